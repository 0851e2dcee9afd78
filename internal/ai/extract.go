package ai

import (
	"regexp"

	"sitegen_server/internal/types"
)

// Fence grammar: a line-opening triple backtick immediately followed by the
// label, then the body up to the next line-opening closing fence. The \r?\n
// right after the label keeps ```js from matching ```json.
var (
	htmlFence = regexp.MustCompile("(?ms)^```html[ \t]*\r?\n(.*?)\r?\n```")
	cssFence  = regexp.MustCompile("(?ms)^```css[ \t]*\r?\n(.*?)\r?\n```")
	jsFence   = regexp.MustCompile("(?ms)^```(?:js|javascript)[ \t]*\r?\n(.*?)\r?\n```")
)

// ExtractResult carries the parsed bundle plus the labels that had no
// well-formed fence, so callers can report a partial parse instead of
// silently degrading.
type ExtractResult struct {
	Bundle  types.CodeBundle
	Missing []string
}

// Partial reports whether any label failed to match.
func (r ExtractResult) Partial() bool {
	return len(r.Missing) > 0
}

// ExtractCodeBundle scans the model's raw output for the three labeled fences.
// Each label is matched independently over the whole text; when a label
// appears more than once, the last match wins. Malformed fencing (no closing
// fence, label not at line start) simply fails to match and the field stays
// empty. Pure function: no I/O, no hidden state.
func ExtractCodeBundle(raw string) ExtractResult {
	var res ExtractResult

	res.Bundle.HTML = lastFenceBody(htmlFence, raw)
	res.Bundle.CSS = lastFenceBody(cssFence, raw)
	res.Bundle.JS = lastFenceBody(jsFence, raw)

	if res.Bundle.HTML == "" {
		res.Missing = append(res.Missing, "html")
	}
	if res.Bundle.CSS == "" {
		res.Missing = append(res.Missing, "css")
	}
	if res.Bundle.JS == "" {
		res.Missing = append(res.Missing, "js")
	}
	return res
}

func lastFenceBody(re *regexp.Regexp, raw string) string {
	matches := re.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
