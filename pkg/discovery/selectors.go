package discovery

// Selector lists are tried in order. They use Playwright selector syntax,
// which is a superset of CSS.

// consentSelectors match "accept" controls on cookie and consent overlays.
var consentSelectors = []string{
	`button:has-text("Accept All")`,
	`button:has-text("Accept")`,
	`a:has-text("Accept")`,
	`button:text-is("Got it")`,
	`button:text-is("I agree")`,
	`button:text-is("OK")`,
	`[id*="cookie" i] button`,
	`[class*="cookie" i] button`,
	`[id*="consent" i] button`,
	`[class*="consent" i] button`,
}

// primaryNavScopes select anchors inside navigation-shaped regions.
var primaryNavScopes = []string{
	`nav a[href]`,
	`[role="navigation"] a[href]`,
	`header a[href]`,
	`[class*="nav"] a[href]`,
}

// hoverScopes select top-level menu items that may open a submenu on hover.
var hoverScopes = []string{
	`nav > ul > li`,
	`[role="navigation"] > ul > li`,
	`[class*="nav"] > ul > li`,
	`nav button`,
	`header button`,
}

// menuToggleSelectors select mobile menu ("hamburger") toggles.
var menuToggleSelectors = []string{
	`[aria-label*="menu" i]`,
	`[aria-label*="navigation" i]`,
	`[class*="hamburger"]`,
	`[class*="menu-toggle"]`,
	`[class*="burger"]`,
	`[aria-controls*="nav"]`,
	`[aria-controls*="menu"]`,
}

// footerScopes select anchors inside footer-shaped regions.
var footerScopes = []string{
	`footer a[href]`,
	`[role="contentinfo"] a[href]`,
	`[class*="footer"] a[href]`,
}

// Section labels emitted by the fixed phases.
const (
	LabelPrimaryNav = "Primary Nav"
	LabelHamburger  = "Mobile/Hamburger Menu"
	LabelFooter     = "Footer"
)
