package domain

import (
	"strings"
	"testing"
)

func TestCalendarConfigIDDeterministic(t *testing.T) {
	t.Parallel()
	a := CalendarConfigID(TypeGoogle, "a@example.com", "primary")
	b := CalendarConfigID(TypeGoogle, "a@example.com", "primary")
	if a != b {
		t.Fatalf("same inputs produced different ids: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "google-a@example.com-primary-") {
		t.Fatalf("unexpected id shape: %q", a)
	}
	if len(a) != len("google-a@example.com-primary-")+8 {
		t.Fatalf("expected 8 hex digest chars: %q", a)
	}
}

func TestCalendarConfigIDDistinguishesInputs(t *testing.T) {
	t.Parallel()
	ids := map[string]bool{}
	for _, id := range []string{
		CalendarConfigID(TypeGoogle, "a@example.com", "primary"),
		CalendarConfigID(TypeGoogle, "a@example.com", "xyz"),
		CalendarConfigID(TypeGoogle, "b@example.com", "primary"),
		CalendarConfigID(TypeICal, "a@example.com", "primary"),
	} {
		if ids[id] {
			t.Fatalf("duplicate id: %q", id)
		}
		ids[id] = true
	}
}

func TestCalendarConfigIDSanitizes(t *testing.T) {
	t.Parallel()
	id := CalendarConfigID(TypeGoogle, "A User@Example.COM", "Team Calendar #7")
	if id != strings.ToLower(id) {
		t.Fatalf("id not lowercased: %q", id)
	}
	for _, forbidden := range []string{" ", "#"} {
		if strings.Contains(id, forbidden) {
			t.Fatalf("id contains %q: %q", forbidden, id)
		}
	}
}

func TestCalendarConfigIDSanitizationCollisions(t *testing.T) {
	t.Parallel()
	// "cal#1" and "cal!1" both sanitize to "cal1"; the digest must keep the
	// ids apart.
	a := CalendarConfigID(TypeGoogle, "a@example.com", "cal#1")
	b := CalendarConfigID(TypeGoogle, "a@example.com", "cal!1")
	if a == b {
		t.Fatalf("sanitization collision: %q", a)
	}
}

func TestSanitizeID(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"a@example.com":  "a@example.com",
		"A@Example.Com":  "a@example.com",
		"  spaced  ":     "spaced",
		"weird/id\\here": "weirdidhere",
		"日本語":            "",
		"under_score-ok": "under_score-ok",
	}
	for in, want := range cases {
		if got := sanitizeID(in); got != want {
			t.Fatalf("sanitizeID(%q) = %q, want %q", in, got, want)
		}
	}
}
