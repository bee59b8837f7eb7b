package httphandler

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlSanitizer = bluemonday.UGCPolicy()
}

// renderNotes converts saved-review notes from markdown to sanitized HTML.
// Returns empty string for nil or empty input.
func renderNotes(notes *string) string {
	if notes == nil || *notes == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(*notes), &buf); err != nil {
		return htmlSanitizer.Sanitize(*notes)
	}

	return htmlSanitizer.Sanitize(buf.String())
}
