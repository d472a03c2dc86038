// Package publish sends approved content to the managed site and reports the
// resulting URL.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/seoforge/seoforge/internal/store"
)

// SitePublisher writes rendered content to a site. Implementations must
// respect the context deadline; a timeout is a retryable failure, not fatal.
type SitePublisher interface {
	Publish(ctx context.Context, site *store.SiteRecord, draft *store.DraftRecord) (url string, err error)
}

// HTTPPublisher posts sanitized content to the site's deployment endpoint.
type HTTPPublisher struct {
	endpointURL string
	authToken   string
	client      *http.Client
	policy      *bluemonday.Policy
}

// NewHTTPPublisher builds a publisher with a bounded per-request timeout.
func NewHTTPPublisher(endpointURL, authToken string, timeout time.Duration) *HTTPPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPublisher{
		endpointURL: endpointURL,
		authToken:   authToken,
		client:      &http.Client{Timeout: timeout},
		policy:      bluemonday.UGCPolicy(),
	}
}

type publishRequest struct {
	Domain   string `json:"domain"`
	RootPath string `json:"root_path"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

type publishResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Publish sends the draft body, sanitized, to the deployment endpoint and
// returns the published URL.
func (p *HTTPPublisher) Publish(ctx context.Context, site *store.SiteRecord, draft *store.DraftRecord) (string, error) {
	if p.endpointURL == "" {
		return "", fmt.Errorf("no publish endpoint configured")
	}

	payload, err := json.Marshal(publishRequest{
		Domain:   site.Domain,
		RootPath: site.RootPath,
		Slug:     draft.Slug,
		Title:    draft.Title,
		Body:     p.policy.Sanitize(draft.Body),
	})
	if err != nil {
		return "", fmt.Errorf("marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("site write: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("site write failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out publishResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode publish response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("site rejected content: %s", out.Error)
	}
	if out.URL == "" {
		// Endpoint accepted but returned no URL; derive the canonical one.
		return fmt.Sprintf("https://%s/blog/%s", site.Domain, draft.Slug), nil
	}
	return out.URL, nil
}

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	slugAccents   = strings.NewReplacer(
		"à", "a", "â", "a", "ä", "a", "é", "e", "è", "e", "ê", "e", "ë", "e",
		"î", "i", "ï", "i", "ô", "o", "ö", "o", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "œ", "oe", "æ", "ae",
	)
)

// Slugify turns a title into a URL slug: lower-cased, accents folded,
// non-alphanumerics collapsed to single hyphens.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugAccents.Replace(s)
	s = slugInvalidRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}
