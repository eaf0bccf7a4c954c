package streambroadcast

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCenterTextPadding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		pad  int
	}{
		{"empty", "", 35},
		{"short", strings.Repeat("x", 10), 30},
		{"odd length", strings.Repeat("x", 11), 29},
		{"one below width", strings.Repeat("x", 69), 0},
		{"exact width", strings.Repeat("x", 70), 0},
		{"over width", strings.Repeat("x", 80), 0},
		{"multibyte runes count once", "☄☄☄☄", 33},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := centerText(tt.in)
			if !strings.HasSuffix(got, tt.in) {
				t.Fatalf("input not kept verbatim: %q", got)
			}
			lead := utf8.RuneCountInString(got) - utf8.RuneCountInString(tt.in)
			if lead != tt.pad {
				t.Fatalf("pad = %d, want %d", lead, tt.pad)
			}
			if strings.TrimLeft(got[:len(got)-len(tt.in)], " ") != "" {
				t.Fatalf("padding is not all spaces: %q", got)
			}
		})
	}
}

func TestSubstituteOnce(t *testing.T) {
	t.Parallel()
	if got := substituteOnce("<white>%s", "https://kick.com/bob"); got != "<white>https://kick.com/bob" {
		t.Fatalf("got %q", got)
	}
	// Only the first placeholder is replaced.
	if got := substituteOnce("%s and %s", "x"); got != "x and %s" {
		t.Fatalf("got %q", got)
	}
	// No placeholder is a no-op.
	if got := substituteOnce("static", "x"); got != "static" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatLines(t *testing.T) {
	t.Parallel()
	m := defaultMessages()
	url := "https://twitch.tv/alice"

	l, err := formatLines(m, "Alice", url)
	if err != nil {
		t.Fatalf("formatLines: %v", err)
	}

	if got := l.blank.PlainText(); strings.TrimLeft(got, " ") != "" {
		t.Fatalf("blank line not blank: %q", got)
	}
	if got := l.announcement.PlainText(); !strings.Contains(got, "☄ Alice is now live") {
		t.Fatalf("announcement = %q", got)
	}
	if got := l.link.PlainText(); !strings.Contains(got, url) {
		t.Fatalf("link line = %q", got)
	}
	if l.link.ClickEvent == nil || l.link.ClickEvent.Value != url {
		t.Fatalf("click payload = %+v", l.link.ClickEvent)
	}
	if l.announcement.ClickEvent != nil || l.blank.ClickEvent != nil {
		t.Fatal("click action leaked onto non-link lines")
	}
}

func TestFormatLinesBadTemplate(t *testing.T) {
	t.Parallel()
	m := defaultMessages()
	m.AnnouncementFormat = "<nosuchtag>%s"
	if _, err := formatLines(m, "Alice", "https://twitch.tv/alice"); err == nil {
		t.Fatal("expected parse error")
	}
}
