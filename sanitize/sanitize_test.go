package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	assert.Equal(t, "", HTML(nil))
	assert.Equal(t, "", HTML(42))
	assert.Equal(t, "Fast &amp; Furious", HTML("Fast & Furious"))
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", HTML("<script>alert(1)</script>"))
	assert.Equal(t, "plain", HTML("plain"))
	assert.Equal(t, `Say "Hi" & 'Bye'`, HTML(`Say "Hi" & 'Bye'`))
	assert.Equal(t, "Tom&nbsp;Boy", HTML("Tom\u00a0Boy"))
}

func TestAttr(t *testing.T) {
	assert.Equal(t, "", Attr(nil))
	assert.Equal(t, "a&#34; onclick=&#34;x&amp;y", Attr(`a" onclick="x&y`))
	assert.Equal(t, "it&#39;s", Attr("it's"))
}

func TestURL(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"non string", 12, ""},
		{"trims whitespace", "  https://store.steampowered.com/app/1  ", "https://store.steampowered.com/app/1"},
		{"javascript scheme", "javascript:alert(1)", ""},
		{"mixed case javascript", "  JavaScript:alert(1)", ""},
		{"data scheme", "data:text/html;base64,AAAA", ""},
		{"relative path allowed", "images/poster.jpg", "images/poster.jpg"},
		{"other schemes allowed", "ftp://example.com/file", "ftp://example.com/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.input))
		})
	}
}
