package citation

import (
	"html"
	"testing"

	"github.com/SincereJuliya/chatbotgermano/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatHTMLWithoutCitations(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"<b>bold</b> & \"quotes\"",
		"line one\nline two",
		"[c1] looks like a marker but isn't",
	}
	for _, in := range inputs {
		assert.Equal(t, html.EscapeString(in), FormatHTML(in, nil), "input %q", in)
		assert.Equal(t, html.EscapeString(in), FormatHTML(in, []models.Citation{}), "input %q", in)
	}
}

func TestFormatHTMLAppendsUnanchored(t *testing.T) {
	got := FormatHTML("Paris is the capital.", []models.Citation{{ID: "c1", Text: "foo"}})
	assert.Equal(t,
		`Paris is the capital. <span class="citation" data-citation-id="c1">[c1]</span>`,
		got)
}

func TestFormatHTMLAnchorsInPlace(t *testing.T) {
	got := FormatHTML("A [c1] and B [c2].", []models.Citation{{ID: "c2"}, {ID: "c1"}})
	assert.Equal(t,
		`A <span class="citation" data-citation-id="c1">[c1]</span> and B <span class="citation" data-citation-id="c2">[c2]</span>.`,
		got)
}

func TestFormatHTMLEscapes(t *testing.T) {
	got := FormatHTML("x < y", []models.Citation{{ID: `a"b`}})
	assert.Equal(t,
		`x &lt; y <span class="citation" data-citation-id="a&#34;b">[a&#34;b]</span>`,
		got)
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		citations []models.Citation
		want      []Segment
	}{
		{
			name:    "no citations",
			content: "plain",
			want:    []Segment{{Text: "plain"}},
		},
		{
			name:      "empty content lists markers",
			citations: []models.Citation{{ID: "c1"}, {ID: "c2"}},
			want: []Segment{
				{Text: "[c1]", CitationID: "c1"},
				{Text: " "},
				{Text: "[c2]", CitationID: "c2"},
			},
		},
		{
			name:      "repeated anchor",
			content:   "[c1] then [c1]",
			citations: []models.Citation{{ID: "c1"}},
			want: []Segment{
				{Text: "[c1]", CitationID: "c1"},
				{Text: " then "},
				{Text: "[c1]", CitationID: "c1"},
			},
		},
		{
			name:      "missing id skipped",
			content:   "text",
			citations: []models.Citation{{Text: "orphan"}, {ID: "c9"}},
			want: []Segment{
				{Text: "text"},
				{Text: " "},
				{Text: "[c9]", CitationID: "c9"},
			},
		},
		{
			name:      "mixed anchored and appended",
			content:   "see [b]",
			citations: []models.Citation{{ID: "a"}, {ID: "b"}},
			want: []Segment{
				{Text: "see "},
				{Text: "[b]", CitationID: "b"},
				{Text: " "},
				{Text: "[a]", CitationID: "a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.content, tt.citations))
		})
	}
}

func TestValidDeduplicates(t *testing.T) {
	got := Valid([]models.Citation{{ID: "c1", Text: "first"}, {ID: ""}, {ID: "c1", Text: "second"}, {ID: "c2"}})
	assert.Equal(t, []models.Citation{{ID: "c1", Text: "first"}, {ID: "c2"}}, got)
	assert.Nil(t, Valid(nil))
}
