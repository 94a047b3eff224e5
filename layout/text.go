package layout

import (
	"strings"
)

// RenderText renders plain text. Blank lines separate paragraphs and line
// feeds inside a paragraph are kept.
func (e *Engine) RenderText(source string) error {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	for _, para := range strings.Split(source, "\n\n") {
		para = strings.Trim(para, "\n")
		if strings.TrimSpace(para) == "" {
			continue
		}
		e.ensurePage()
		e.renderSpans([]TextSpan{e.span(para, 0, e.DefaultFontSize)}, e.lineHeight(e.DefaultFontSize))
		e.paragraphSpacing()
	}
	e.Finish()
	return e.b.Err()
}
