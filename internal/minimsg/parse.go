package minimsg

import (
	"fmt"
	"strings"
)

var namedColors = map[string]struct{}{
	"black": {}, "dark_blue": {}, "dark_green": {}, "dark_aqua": {},
	"dark_red": {}, "dark_purple": {}, "gold": {}, "gray": {},
	"dark_gray": {}, "blue": {}, "green": {}, "aqua": {}, "red": {},
	"light_purple": {}, "yellow": {}, "white": {},
}

var decorationAliases = map[string]string{
	"bold": "bold", "b": "bold",
	"italic": "italic", "i": "italic", "em": "italic",
	"underlined": "underlined", "u": "underlined",
	"strikethrough": "strikethrough", "st": "strikethrough",
	"obfuscated": "obfuscated", "obf": "obfuscated",
}

type style struct {
	color         string
	bold          bool
	italic        bool
	underlined    bool
	strikethrough bool
	obfuscated    bool
}

func (st style) component(text string) *Component {
	return &Component{
		Text:          text,
		Color:         st.color,
		Bold:          st.bold,
		Italic:        st.italic,
		Underlined:    st.underlined,
		Strikethrough: st.strikethrough,
		Obfuscated:    st.obfuscated,
	}
}

// frame remembers the style that was active before a tag opened, so a
// closing tag can restore it.
type frame struct {
	name string
	prev style
}

// Parse converts markup like "<red>hi <#8bf723>there" into a component
// tree. Tag names it does not recognize are an error; a stray '<' that
// does not form a tag is kept as literal text.
func Parse(s string) (*Component, error) {
	root := &Component{}
	var (
		stack []frame
		cur   style
		text  strings.Builder
	)

	flush := func() {
		if text.Len() == 0 {
			return
		}
		root.Extra = append(root.Extra, cur.component(text.String()))
		text.Reset()
	}

	i := 0
	for i < len(s) {
		open := strings.IndexByte(s[i:], '<')
		if open < 0 {
			text.WriteString(s[i:])
			break
		}
		text.WriteString(s[i : i+open])
		i += open

		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			// No closing '>': the rest is literal.
			text.WriteString(s[i:])
			break
		}
		tag := s[i+1 : i+end]
		if tag == "" || strings.ContainsAny(tag, " \t") {
			// Not a tag (e.g. "1 < 2"); keep the '<' literally.
			text.WriteByte('<')
			i++
			continue
		}

		closing := strings.HasPrefix(tag, "/")
		name := strings.ToLower(strings.TrimPrefix(tag, "/"))

		if name == "reset" {
			flush()
			stack = stack[:0]
			cur = style{}
			i += end + 1
			continue
		}

		canon, next, err := applyTag(cur, name)
		if err != nil {
			return nil, err
		}

		flush()
		if closing {
			// Restore the style that was active before the matching open
			// tag; unmatched closes are ignored.
			for idx := len(stack) - 1; idx >= 0; idx-- {
				if stack[idx].name == canon {
					cur = stack[idx].prev
					stack = stack[:idx]
					break
				}
			}
		} else {
			stack = append(stack, frame{name: canon, prev: cur})
			cur = next
		}
		i += end + 1
	}

	flush()
	return root, nil
}

// applyTag returns the canonical tag name and the style with the tag applied.
func applyTag(cur style, name string) (string, style, error) {
	if strings.HasPrefix(name, "#") {
		if !validHexColor(name) {
			return "", cur, fmt.Errorf("minimsg: bad hex color %q", name)
		}
		cur.color = name
		return name, cur, nil
	}
	if _, ok := namedColors[name]; ok {
		cur.color = name
		return name, cur, nil
	}
	if canon, ok := decorationAliases[name]; ok {
		switch canon {
		case "bold":
			cur.bold = true
		case "italic":
			cur.italic = true
		case "underlined":
			cur.underlined = true
		case "strikethrough":
			cur.strikethrough = true
		case "obfuscated":
			cur.obfuscated = true
		}
		return canon, cur, nil
	}
	return "", cur, fmt.Errorf("minimsg: unknown tag %q", name)
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
