package research

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/logging"
)

var researchLog *logging.Logger

func init() {
	var err error
	researchLog, err = logging.NewLogger("research")
	if err != nil {
		researchLog.Warnf("Failed to initialize research logger, using stderr fallback: %v", err)
	}
}

// contentPage is a page that can also hand back its rendered document.
type contentPage interface {
	discovery.Page
	Title() (string, error)
	Content() (string, error)
}

// loadedPage is the rendered document of one fetched URL.
type loadedPage struct {
	URL    string
	Title  string
	HTML   string
	Status int
}

// validateURL accepts absolute http and https URLs only.
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing required parameter: url")
	}
	resolved, ok := discovery.ResolveHref(raw, nil)
	if !ok {
		return "", fmt.Errorf("invalid url %q: an absolute http(s) URL is required", raw)
	}
	u, err := url.Parse(resolved)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid url %q: an absolute http(s) URL is required", raw)
	}
	return resolved, nil
}

// loadPage opens an isolated page, navigates to target and reads the
// rendered document. The page is closed before returning.
func loadPage(ctx context.Context, pages discovery.PageProvider, target string, nav discovery.NavigateOptions) (*loadedPage, error) {
	page, err := pages.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			researchLog.Warnf("Failed to close page for %s: %v", target, closeErr)
		}
	}()

	cp, ok := page.(contentPage)
	if !ok {
		return nil, fmt.Errorf("browser page does not expose document content")
	}

	status, err := cp.Navigate(target, nav)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", target, err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("failed to load %s: HTTP %d", target, status)
	}

	content, err := cp.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read content of %s: %w", target, err)
	}

	title, err := cp.Title()
	if err != nil {
		researchLog.Debugf("Failed to read title of %s: %v", target, err)
	}

	finalURL := cp.URL()
	if finalURL == "" {
		finalURL = target
	}

	researchLog.Debugf("Loaded %s (status %d, %d bytes)", finalURL, status, len(content))
	return &loadedPage{URL: finalURL, Title: strings.TrimSpace(title), HTML: content, Status: status}, nil
}
