package bridge

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Layout holds the text metrics used to size an isolated surface.
type Layout struct {
	FontSize     int     // px
	LineHeight   float64 // multiple of FontSize
	CharsPerLine int
	MaxHeight    int // px
}

// DefaultLayout matches the stylesheet embedded in Surface.
var DefaultLayout = Layout{
	FontSize:     14,
	LineHeight:   1.6,
	CharsPerLine: 65,
	MaxHeight:    350,
}

// EstimateHeight approximates the pixel height needed to show text without
// a scrollbar. It is a heuristic, not a text measurement, and the result is
// always within [0, MaxHeight].
func (l Layout) EstimateHeight(text string) int {
	if l.MaxHeight <= 0 || text == "" {
		return 0
	}
	fontSize := l.FontSize
	if fontSize <= 0 {
		fontSize = DefaultLayout.FontSize
	}
	lineHeight := l.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1
	}
	perLine := l.CharsPerLine
	if perLine <= 0 {
		perLine = DefaultLayout.CharsPerLine
	}

	chars := utf8.RuneCountInString(text)
	breaks := strings.Count(text, "\n")

	lines := float64(chars) / (lineHeight * float64(perLine))
	scale := 1.0
	if breaks > 0 {
		lines += float64(breaks) * lineHeight
		scale = lineHeight
	}

	height := math.Round(lines * float64(fontSize) * scale)
	if height > float64(l.MaxHeight) {
		return l.MaxHeight
	}
	if height < 0 {
		return 0
	}
	return int(height)
}

// surfaceScript binds every marker on load and posts a citation_click event
// to the parent. It never looks into the parent document.
const surfaceScript = `<script>
window.addEventListener('load', function () {
  document.querySelectorAll('span[data-citation-id]').forEach(function (span) {
    span.addEventListener('click', function () {
      window.parent.postMessage({
        type: 'citation_click',
        citation_id: span.getAttribute('data-citation-id')
      }, '*');
    });
  });
});
</script>`

// Surface wraps already-escaped marker HTML in a standalone document meant
// for a sandboxed iframe's srcdoc.
func Surface(markup string, l Layout) string {
	fontSize := l.FontSize
	if fontSize <= 0 {
		fontSize = DefaultLayout.FontSize
	}
	lineHeight := l.LineHeight
	if lineHeight <= 0 {
		lineHeight = DefaultLayout.LineHeight
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>`)
	b.WriteString(`body{margin:0;font-family:sans-serif;color:rgb(49,51,63);}`)
	b.WriteString(`.body{letter-spacing:0.01em;word-break:break-word;white-space:pre-wrap;`)
	b.WriteString(`font-size:` + strconv.Itoa(fontSize) + `px;line-height:` + strconv.FormatFloat(lineHeight, 'f', -1, 64) + `;}`)
	b.WriteString(`.citation{color:#1f6feb;cursor:pointer;font-weight:600;}`)
	b.WriteString(`.citation:hover{text-decoration:underline;}`)
	b.WriteString(`</style></head><body><div class="body">`)
	b.WriteString(markup)
	b.WriteString(`</div>`)
	b.WriteString(surfaceScript)
	b.WriteString(`</body></html>`)
	return b.String()
}
