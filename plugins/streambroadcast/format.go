package streambroadcast

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"streamcast/internal/minimsg"
)

// chatWidth is the approximate column width of the client chat box.
const chatWidth = 70

// centerText pads s with leading spaces so it sits centered in the chat.
// Centering runs on the raw template BEFORE markup parsing, so tags count
// toward the length; operators tune templates against that behavior.
func centerText(s string) string {
	pad := (chatWidth - utf8.RuneCountInString(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// substituteOnce replaces the first %s only; templates are validated at
// config load to carry at most one.
func substituteOnce(template, value string) string {
	return strings.Replace(template, "%s", value, 1)
}

// lines is the ordered triple a broadcast is built from. Recipients get
// blank, announcement, link, blank.
type lines struct {
	blank        *minimsg.Component
	announcement *minimsg.Component
	link         *minimsg.Component
}

// formatLines substitutes the display name and URL into the templates,
// centers each raw string, parses the markup, and attaches the open-URL
// click action to the link line.
func formatLines(m Messages, displayName, streamURL string) (lines, error) {
	blank, err := minimsg.Parse(centerText(m.Space))
	if err != nil {
		return lines{}, fmt.Errorf("space template: %w", err)
	}
	ann, err := minimsg.Parse(centerText(substituteOnce(m.AnnouncementFormat, displayName)))
	if err != nil {
		return lines{}, fmt.Errorf("announcement template: %w", err)
	}
	link, err := minimsg.Parse(centerText(substituteOnce(m.LinkPrefix, streamURL)))
	if err != nil {
		return lines{}, fmt.Errorf("link template: %w", err)
	}
	return lines{
		blank:        blank,
		announcement: ann,
		link:         link.WithClickURL(streamURL),
	}, nil
}
