package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize(`<script>alert(1)</script>hello`))
	link := Sanitize(`<a href="https://example.com" onclick="x()">x</a>`)
	assert.Contains(t, link, `href="https://example.com"`)
	assert.NotContains(t, link, "onclick")
	assert.Empty(t, Sanitize("   "))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Hello & bye", StripTags("<b>Hello</b> &amp; bye "))
	assert.Empty(t, StripTags("<i></i>"))
}
