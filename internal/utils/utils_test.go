package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**Great** movie <script>alert(1)</script>")
	assert.Contains(t, out, "<strong>Great</strong>")
	assert.NotContains(t, out, "<script>")

	assert.Equal(t, "", RenderMarkdown("   "))
}

func TestRenderMarkdown_LazyImagesAndTrailers(t *testing.T) {
	out := RenderMarkdown("![poster](https://example.com/p.jpg)\n\nhttps://www.youtube.com/watch?v=abc_123&t=5")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, "youtube-nocookie.com/embed/abc_123")
}

func TestYouTubeID_RejectsUnsafeIDs(t *testing.T) {
	assert.Equal(t, "xyz", youTubeID("https://youtu.be/xyz?si=1"))
	assert.Equal(t, "", youTubeID("https://youtu.be/x\"onload=1"))
	assert.Equal(t, "", youTubeID("https://vimeo.com/1"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Alien", SanitizeTitle("  <b>Alien</b> "))
	assert.Equal(t, "", SanitizeTitle("<script>x</script>"))
	assert.Equal(t, "<b>bold</b>", SanitizeDescription(" <b>bold</b><script>x</script>"))
}

func TestStringConversions(t *testing.T) {
	assert.Equal(t, uint(12), StringToUint("12"))
	assert.Equal(t, uint(0), StringToUint("-1"))

	n, ok := StringToInt("", 10)
	assert.True(t, ok)
	assert.Equal(t, 10, n)
	n, ok = StringToInt("3", 10)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = StringToInt("x", 10)
	assert.False(t, ok)
}
