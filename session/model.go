package session

import "strings"

const recordSeparator = ","

// RefreshRecord is a live refresh token together with its owner and the role
// captured at issuance.
type RefreshRecord struct {
	Token  string
	UserID string
	Role   string
}

// RecordKey composes the store key "{token},{user_id}".
func RecordKey(token, userID string) string {
	return token + recordSeparator + userID
}

// ParseRecordKey splits a store key at its first comma.
func ParseRecordKey(key string) (token, userID string, ok bool) {
	token, userID, ok = strings.Cut(key, recordSeparator)
	if !ok || token == "" || userID == "" {
		return "", "", false
	}
	return token, userID, true
}

func tokenPattern(token string) string {
	return escapeGlob(token) + recordSeparator + "*"
}

func userPattern(userID string) string {
	return "*" + recordSeparator + escapeGlob(userID)
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
