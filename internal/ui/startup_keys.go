package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
)

// ApplyStartupKeys feeds simulated keypresses to m. Tokens may mix
// Vim-like keys ("<Esc>", "<CR>", "<Right>") with literal text; a leading
// backslash forces the whole token to be literal.
func ApplyStartupKeys(m *Model, keys []string) {
	if len(keys) == 0 || m == nil {
		return
	}
	for _, raw := range keys {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, `\`) {
			typeText(m, strings.TrimPrefix(token, `\`))
			continue
		}
		for _, segment := range parseTokenSegments(token) {
			if !segment.isVimKey {
				typeText(m, segment.text)
				continue
			}
			if msgs, ok := keyMsgsFromToken(segment.text); ok {
				for _, msg := range msgs {
					m.Update(msg)
				}
			}
		}
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// tokenSegment is either a <key> token or literal text.
type tokenSegment struct {
	text     string
	isVimKey bool
}

// parseTokenSegments splits a token into <key> tokens and literal text.
// Example: "<Right>web" -> [{"<Right>", true}, {"web", false}]
func parseTokenSegments(token string) []tokenSegment {
	var segments []tokenSegment
	remaining := token

	for len(remaining) > 0 {
		startIdx := strings.Index(remaining, "<")
		if startIdx == -1 {
			segments = append(segments, tokenSegment{text: remaining})
			break
		}
		if startIdx > 0 {
			segments = append(segments, tokenSegment{text: remaining[:startIdx]})
		}
		endIdx := strings.Index(remaining[startIdx:], ">")
		if endIdx == -1 {
			segments = append(segments, tokenSegment{text: remaining[startIdx:]})
			break
		}
		segments = append(segments, tokenSegment{text: remaining[startIdx : startIdx+endIdx+1], isVimKey: true})
		remaining = remaining[startIdx+endIdx+1:]
	}

	return segments
}

// keyMsgsFromToken parses a Vim-like token such as "<Esc>", "<CR>", "<BS>",
// "<C-c>", "<Home>" into key messages.
func keyMsgsFromToken(token string) ([]tea.KeyPressMsg, bool) {
	if !strings.HasPrefix(token, "<") || !strings.HasSuffix(token, ">") {
		return nil, false
	}
	inner := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">"))
	switch inner {
	case "esc", "c-[", "escape":
		return []tea.KeyPressMsg{{Code: tea.KeyEscape}}, true
	case "cr", "enter", "return":
		return []tea.KeyPressMsg{{Code: tea.KeyEnter}}, true
	case "tab":
		return []tea.KeyPressMsg{{Code: tea.KeyTab}}, true
	case "space":
		return []tea.KeyPressMsg{{Code: ' ', Text: " "}}, true
	case "bs", "backspace":
		return []tea.KeyPressMsg{{Code: tea.KeyBackspace}}, true
	case "left":
		return []tea.KeyPressMsg{{Code: tea.KeyLeft}}, true
	case "right":
		return []tea.KeyPressMsg{{Code: tea.KeyRight}}, true
	case "up":
		return []tea.KeyPressMsg{{Code: tea.KeyUp}}, true
	case "down":
		return []tea.KeyPressMsg{{Code: tea.KeyDown}}, true
	case "home":
		return []tea.KeyPressMsg{{Code: tea.KeyHome}}, true
	case "end":
		return []tea.KeyPressMsg{{Code: tea.KeyEnd}}, true
	case "lt":
		return []tea.KeyPressMsg{{Code: '<', Text: "<"}}, true
	case "c-c":
		return []tea.KeyPressMsg{{Code: 'c', Mod: tea.ModCtrl}}, true
	}
	return nil, false
}
