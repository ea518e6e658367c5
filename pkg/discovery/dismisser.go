package discovery

import "time"

// DismissInterstitial clicks the first visible consent control it finds and
// reports whether it clicked one. At most one overlay is dismissed per call.
// Absence of an overlay is the normal case and is not an error.
func DismissInterstitial(page Page, timeout time.Duration) bool {
	for _, selector := range consentSelectors {
		candidate := page.Locate(selector).Nth(0)

		visible, err := candidate.IsVisible(timeout)
		if err != nil || !visible {
			continue
		}

		if err := candidate.Click(timeout); err != nil {
			discoveryLog.Debugf("Consent control %q visible but click failed: %v", selector, err)
			return false
		}
		discoveryLog.Debugf("Dismissed interstitial via %q", selector)
		return true
	}
	return false
}
