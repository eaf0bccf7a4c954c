package minimsg

import "strings"

// ClickAction identifies what the client does when a component is clicked.
type ClickAction string

const ActionOpenURL ClickAction = "open_url"

type ClickEvent struct {
	Action ClickAction `json:"action"`
	Value  string      `json:"value"`
}

// Component is a styled chat message tree, serialized in the wire format
// game clients expect: a root node with styled children under "extra".
type Component struct {
	Text          string       `json:"text"`
	Color         string       `json:"color,omitempty"`
	Bold          bool         `json:"bold,omitempty"`
	Italic        bool         `json:"italic,omitempty"`
	Underlined    bool         `json:"underlined,omitempty"`
	Strikethrough bool         `json:"strikethrough,omitempty"`
	Obfuscated    bool         `json:"obfuscated,omitempty"`
	ClickEvent    *ClickEvent  `json:"clickEvent,omitempty"`
	Extra         []*Component `json:"extra,omitempty"`
}

// Plain returns an unstyled component carrying only text.
func Plain(text string) *Component { return &Component{Text: text} }

// WithClickURL returns a copy of c that opens url when clicked.
// The click event is carried on the root so it covers the whole line.
func (c *Component) WithClickURL(url string) *Component {
	cp := *c
	cp.ClickEvent = &ClickEvent{Action: ActionOpenURL, Value: url}
	return &cp
}

// PlainText flattens the component tree to its raw text, dropping all
// styling. Used for console rendering and logs.
func (c *Component) PlainText() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	c.appendPlain(&b)
	return b.String()
}

func (c *Component) appendPlain(b *strings.Builder) {
	b.WriteString(c.Text)
	for _, e := range c.Extra {
		if e != nil {
			e.appendPlain(b)
		}
	}
}
