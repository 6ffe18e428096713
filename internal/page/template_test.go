package page

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, params Params) string {
	t.Helper()
	html, err := (&Templator{}).Page(context.Background(), params)
	require.NoError(t, err)
	return string(html)
}

func TestNewParams(t *testing.T) {
	p := NewParams("a cat", "16-9", false, "")
	require.Len(t, p.Sizes, 4)
	assert.True(t, p.Sizes[1].Selected)
	assert.False(t, p.Sizes[0].Selected)
	assert.Equal(t, "16-9", p.SizeLabel)
}

func TestPageIdle(t *testing.T) {
	html := render(t, NewParams("", "1-1", false, ""))
	assert.Contains(t, html, "Your generated image will appear here")
	assert.Contains(t, html, "Enter a prompt and click generate to start")
	assert.NotContains(t, html, "Creating your masterpiece")
	assert.NotContains(t, html, `href="/download"`)
	assert.NotContains(t, html, `http-equiv="refresh"`)
	assert.Contains(t, html, `value="1-1" checked`)
	assert.Equal(t, 4, strings.Count(html, `type="radio"`))
	assert.Contains(t, html, `<button id="generate" type="submit">`, "submit stays usable without scripts")
}

func TestPageGenerating(t *testing.T) {
	html := render(t, NewParams("a cat", "1-1", true, ""))
	assert.Contains(t, html, "Creating your masterpiece...")
	assert.Contains(t, html, "Generating...")
	assert.Contains(t, html, `<button id="generate" type="submit" disabled>`)
	assert.Contains(t, html, `http-equiv="refresh"`)
	assert.NotContains(t, html, `href="/download"`)
	assert.NotContains(t, html, "Your generated image will appear here")
}

func TestPageDisplaying(t *testing.T) {
	html := render(t, NewParams("a cat", "3-2", false, "https://img/1.png"))
	assert.Contains(t, html, `<img src="https://img/1.png"`)
	assert.Contains(t, html, `href="/download"`)
	assert.Contains(t, html, "Size: 3-2 pixels")
	assert.NotContains(t, html, "Your generated image will appear here")
}

func TestPageEscapesPrompt(t *testing.T) {
	html := render(t, NewParams(`</textarea><script>alert(1)</script>`, "1-1", false, ""))
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestPagePlaceholderImage(t *testing.T) {
	html := render(t, NewParams("a cat on a roof", "1-1", false, "/placeholder.svg?height=512&width=512&text=a%20cat%20on%20a%20roof"))
	assert.Contains(t, html, `src="/placeholder.svg?height=512&amp;width=512&amp;text=a%20cat%20on%20a%20roof"`)
}

func TestPageDataImage(t *testing.T) {
	html := render(t, NewParams("a cat", "1-1", false, "data:image/png;base64,AAAA"))
	assert.Contains(t, html, `src="data:image/png;base64,AAAA"`)
}

func TestPlaceholder(t *testing.T) {
	svg, err := (&Templator{}).Placeholder(context.Background(), PlaceholderParams{Width: 768, Height: 512, Text: "a <cat> & dog"})
	require.NoError(t, err)
	out := string(svg)
	assert.Contains(t, out, `width="768"`)
	assert.Contains(t, out, `height="512"`)
	assert.Contains(t, out, `font-size="25"`)
	assert.Contains(t, out, "a &lt;cat&gt; &amp; dog")
}

func TestPlaceholderFromQuery(t *testing.T) {
	q, err := url.ParseQuery("height=768&width=1024&text=a%20cat%20on%20a%20roof")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderParams{Width: 1024, Height: 768, Text: "a cat on a roof"}, PlaceholderFromQuery(q))

	q, err = url.ParseQuery("height=99999&width=-3")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderParams{Width: 1, Height: 4096}, PlaceholderFromQuery(q))

	assert.Equal(t, PlaceholderParams{Width: 512, Height: 512}, PlaceholderFromQuery(url.Values{}))
}
