package repository

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildAllowListedUpdate(t *testing.T) {
	sets, args, err := buildAllowListedUpdate(map[string]any{"username": "alice"}, userMutableColumns)
	if err != nil {
		t.Fatalf("buildAllowListedUpdate: %v", err)
	}
	if len(sets) != 1 || sets[0] != "username=$1" {
		t.Errorf("sets = %v", sets)
	}
	if len(args) != 1 || args[0] != "alice" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildAllowListedUpdateRejectsUnknownColumn(t *testing.T) {
	_, _, err := buildAllowListedUpdate(map[string]any{"email": "x@example.com"}, userMutableColumns)
	if !errors.Is(err, ErrColumnNotAllowed) {
		t.Fatalf("err = %v, want ErrColumnNotAllowed", err)
	}

	// An injection attempt in the key never reaches the SQL text.
	injected := "username=$1; DROP TABLE users; --"
	_, _, err = buildAllowListedUpdate(map[string]any{injected: "x"}, userMutableColumns)
	if !errors.Is(err, ErrColumnNotAllowed) {
		t.Fatalf("err = %v, want ErrColumnNotAllowed", err)
	}
	if err != nil && !strings.Contains(err.Error(), injected) {
		// The rejected key is reported back for debugging.
		t.Errorf("error does not name the offending key: %v", err)
	}
}

func TestBuildAllowListedUpdateRejectsEmpty(t *testing.T) {
	if _, _, err := buildAllowListedUpdate(nil, userMutableColumns); !errors.Is(err, ErrNoFields) {
		t.Fatalf("err = %v, want ErrNoFields", err)
	}
}

func TestBuildAllowListedUpdateNumbersArgsSequentially(t *testing.T) {
	fields := map[string]any{
		"title":       "t",
		"description": "d",
		"status":      "public",
	}
	sets, args, err := buildAllowListedUpdate(fields, reportMutableColumns)
	if err != nil {
		t.Fatalf("buildAllowListedUpdate: %v", err)
	}
	if len(sets) != len(args) {
		t.Fatalf("%d sets for %d args", len(sets), len(args))
	}
	seen := map[string]bool{}
	for i, clause := range sets {
		if !strings.Contains(clause, "=$") {
			t.Errorf("clause %q has no placeholder", clause)
		}
		if !strings.HasSuffix(clause, "=$"+string(rune('1'+i))) {
			t.Errorf("clause %d = %q, want placeholder $%d", i, clause, i+1)
		}
		column := clause[:strings.Index(clause, "=")]
		if seen[column] {
			t.Errorf("column %q appears twice", column)
		}
		seen[column] = true
	}
}
