package auth

import "strings"

// NormalizeEmail trims surrounding whitespace and case-folds the address.
// Every lookup and uniqueness check runs on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
