package auth

import "strings"

// commonPasswords is a short denylist of passwords that appear at the top
// of every breach corpus. Matching is case-insensitive.
var commonPasswords = map[string]struct{}{
	"password":      {},
	"password1":     {},
	"password123":   {},
	"passw0rd":      {},
	"123456":        {},
	"1234567890":    {},
	"12345678":      {},
	"123456789":     {},
	"qwerty":        {},
	"qwerty123":     {},
	"qwertyuiop":    {},
	"letmein":       {},
	"welcome":       {},
	"welcome1":      {},
	"iloveyou":      {},
	"admin":         {},
	"administrator": {},
	"abc123":        {},
	"monkey":        {},
	"dragon":        {},
	"sunshine":      {},
	"princess":      {},
	"football":      {},
	"baseball":      {},
	"trustno1":      {},
	"superman":      {},
	"master":        {},
	"shadow":        {},
	"michael":       {},
	"jennifer":      {},
}

// IsCommonPassword reports whether the password is on the denylist.
func IsCommonPassword(password string) bool {
	_, found := commonPasswords[strings.ToLower(password)]
	return found
}
