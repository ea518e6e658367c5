package browser

import (
	"net/url"
	"testing"
	"time"

	"github.com/entrhq/scout/pkg/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
		<nav>
			<a href="/pricing">  Pricing
			</a>
			<a href="/pricing">Plans</a>
			<a href="https://docs.example.com/">Docs</a>
		</nav>
		<a href="#">Top</a>
		<a href="mailto:sales@example.com">Email</a>
		<a href="JavaScript:void(0)">Toggle</a>
		<a>No href</a>
		<footer><a href="about">About us</a></footer>
	</body></html>`

	links, err := ExtractLinks(page, mustURL(t, "https://example.com/company/"))
	require.NoError(t, err)

	assert.Equal(t, []discovery.Link{
		{URL: "https://example.com/pricing", Label: "Pricing"},
		{URL: "https://docs.example.com/", Label: "Docs"},
		{URL: "https://example.com/company/about", Label: "About us"},
	}, links)
}

func TestExtractLinksHonoursBaseElement(t *testing.T) {
	page := `<html><head><base href="https://cdn.example.com/site/"></head>
		<body><a href="features">Features</a></body></html>`

	links, err := ExtractLinks(page, mustURL(t, "https://example.com/"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://cdn.example.com/site/features", links[0].URL)
}

func TestExtractLinksWithoutBaseKeepsAbsoluteOnly(t *testing.T) {
	page := `<a href="/relative">Rel</a><a href="https://example.com/abs">Abs</a>`

	links, err := ExtractLinks(page, nil)
	require.NoError(t, err)
	assert.Equal(t, []discovery.Link{{URL: "https://example.com/abs", Label: "Abs"}}, links)
}

func TestDecodeAnchors(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"href": "/a", "text": "A"},
		map[string]interface{}{"href": "", "text": "B"},
	}

	anchors, err := decodeAnchors(raw)
	require.NoError(t, err)
	assert.Equal(t, []discovery.Anchor{{Href: "/a", Text: "A"}, {Href: "", Text: "B"}}, anchors)

	anchors, err = decodeAnchors(nil)
	require.NoError(t, err)
	assert.Empty(t, anchors)

	_, err = decodeAnchors("not a list")
	assert.Error(t, err)
}

func TestSessionOptionsDefaults(t *testing.T) {
	opts := SessionOptions{}.withDefaults()

	require.NotNil(t, opts.Viewport)
	assert.Equal(t, DefaultViewportWidth, opts.Viewport.Width)
	assert.Equal(t, DefaultViewportHeight, opts.Viewport.Height)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultConnectTimeout, opts.ConnectTimeout)
	assert.Equal(t, DefaultMaxPages, opts.MaxPages)

	custom := SessionOptions{MaxPages: 2, Timeout: time.Second}.withDefaults()
	assert.Equal(t, 2, custom.MaxPages)
	assert.Equal(t, time.Second, custom.Timeout)
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 1500.0, milliseconds(1500*time.Millisecond))
	assert.Equal(t, 0.5, milliseconds(500*time.Microsecond))
}

func TestSessionManagerShutdownBeforeUse(t *testing.T) {
	manager := NewSessionManager(SessionOptions{MaxPages: 1})
	assert.Equal(t, 0, manager.ActivePages())

	require.NoError(t, manager.Shutdown())

	_, err := manager.OpenPage(t.Context())
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Equal(t, 0, manager.ActivePages())
}
