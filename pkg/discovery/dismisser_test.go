package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDismissInterstitial(t *testing.T) {
	t.Run("clicks the first visible pattern only", func(t *testing.T) {
		page := newFakePage().
			element(`button:has-text("Accept All")`, &fakeElement{text: "Accept All", visible: false}).
			element(`button:has-text("Accept")`, &fakeElement{text: "Accept", visible: true, toggle: "dismissed"}).
			element(`[id*="cookie" i] button`, &fakeElement{text: "Close", visible: true, toggle: "other"})

		assert.True(t, DismissInterstitial(page, time.Millisecond))
		assert.Equal(t, 1, page.clicks)
		assert.True(t, page.toggled["dismissed"])
		assert.False(t, page.toggled["other"])
	})

	t.Run("nothing to dismiss", func(t *testing.T) {
		page := newFakePage()
		assert.False(t, DismissInterstitial(page, time.Millisecond))
		assert.Equal(t, 0, page.clicks)
	})

	t.Run("failed click stops without error", func(t *testing.T) {
		page := newFakePage().
			element(`button:text-is("OK")`, &fakeElement{visible: true, failClick: true}).
			element(`[class*="consent" i] button`, &fakeElement{visible: true})

		assert.False(t, DismissInterstitial(page, time.Millisecond))
		assert.Equal(t, 0, page.clicks)
	})
}
