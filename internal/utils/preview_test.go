package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPreview(t *testing.T) {
	body := "AML teams are drowning in alerts.\n\nRead more at https://example.com/report #AML #fincrime #aml"

	p := RenderPreview(body, 3000)

	assert.Contains(t, string(p.HTML), `href="https://example.com/report"`)
	assert.Equal(t, []string{"https://example.com/report"}, p.Links)
	assert.Equal(t, []string{"aml", "fincrime"}, p.Hashtags)
	assert.False(t, p.OverLimit)
	assert.Equal(t, len([]rune(body)), p.Characters)
}

func TestRenderPreviewStripsScripts(t *testing.T) {
	p := RenderPreview("hello <script>alert(1)</script>", 3000)
	assert.NotContains(t, string(p.HTML), "<script")
}

func TestRenderPreviewOverLimit(t *testing.T) {
	p := RenderPreview(strings.Repeat("a", 3001), 3000)
	assert.True(t, p.OverLimit)
	assert.Equal(t, 3001, p.Characters)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Great point & well made", SanitizeText("  <b>Great point</b> &amp; well made "))
	assert.Equal(t, "", SanitizeText("<script>x</script>"))
}
