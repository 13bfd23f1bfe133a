package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MemberType is the role a member was registered with.
type MemberType string

const (
	MemberTypeUser    MemberType = "USER"
	MemberTypeManager MemberType = "MANAGER"
)

// Username length bounds, counted in runes after normalization.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
)

// NormalizeUsername trims surrounding space and applies Unicode NFC, so names
// that render identically are one identity.
func NormalizeUsername(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidUsername reports whether name is within bounds once normalized.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(NormalizeUsername(name))
	return n >= UsernameMinLen && n <= UsernameMaxLen
}

// Member is an account that can sign in.
type Member struct {
	ID           string
	Username     string
	PasswordHash string
	PhoneNumber  string
	MemberType   MemberType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
