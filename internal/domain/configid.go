package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CalendarConfigID derives the persisted identifier for a provider calendar.
// The same (type, account, calendar) triple always yields the same id, so
// repeated setup runs recognize calendars they have already configured. The
// readable parts are sanitized; a short digest of the raw triple keeps two
// inputs that sanitize identically from colliding.
func CalendarConfigID(t ProviderType, accountID, providerCalendarID string) string {
	sum := sha256.Sum256([]byte(string(t) + "\x00" + accountID + "\x00" + providerCalendarID))
	return strings.Join([]string{
		string(t),
		sanitizeID(accountID),
		sanitizeID(providerCalendarID),
		hex.EncodeToString(sum[:4]),
	}, "-")
}

// sanitizeID lowercases v and drops every rune outside [a-z0-9._@-].
func sanitizeID(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '@' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
