package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTML(t *testing.T) {
	dirty := `<p onclick="evil()">Hello <script>alert(1)</script><b>world</b></p>`

	clean := SanitizeHTML(dirty)

	assert.NotContains(t, clean, "script")
	assert.NotContains(t, clean, "onclick")
	assert.Contains(t, clean, "<b>world</b>")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world", StripHTML("<p>Hello <b>world</b></p>"))
}

func TestHTMLToText(t *testing.T) {
	text := HTMLToText("<p>First line</p><p>Second&nbsp;line &amp; more</p>")

	assert.Contains(t, text, "First line")
	assert.Contains(t, text, "Second line & more")
	assert.NotContains(t, text, "<p>")
}

func TestCreatePreview_Short(t *testing.T) {
	assert.Equal(t, "short body", CreatePreview("short   body"))
}

func TestCreatePreview_LongBreaksAtWord(t *testing.T) {
	long := strings.Repeat("word ", 60)

	preview := CreatePreview(long)

	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.LessOrEqual(t, len(preview), 153)
	assert.NotContains(t, preview, "  ")
}

func TestCreatePreview_CollapsesNewlines(t *testing.T) {
	assert.Equal(t, "a b c", CreatePreview("a\nb\r\nc"))
}
