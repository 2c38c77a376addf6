// Package research implements the research collaborators (web, encyclopedia,
// academic, code-trends, financial filings, market data, correlation
// analysis), the router that picks between them and the multi-source
// synthesizer.
package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/run-bigpig/consilium/internal/logger"
)

var log = logger.New("Research")

// Source keys used for routing and quality scoring.
const (
	SourceWeb         = "web"
	SourceWikipedia   = "wikipedia"
	SourceArxiv       = "arxiv"
	SourceGitHub      = "github"
	SourceSEC         = "sec"
	SourceMarketData  = "marketdata"
	SourceCorrelation = "correlation"
)

// Options carries the optional parameters a research function may supply.
// Most collaborators ignore most fields.
type Options struct {
	MaxResults      int
	DateRange       string
	AnalysisType    string
	Timeframe       string
	Metric          string
	Instruments     []string
	IncludeAnalysis bool
}

// Collaborator is one research source. Search always returns a usable,
// formatted string - on transport or parsing failure it returns a formatted
// unavailability notice instead of empty text. The error return is advisory
// only, so the router can fall back to another source; callers that just
// want text may ignore it.
type Collaborator interface {
	// Name is the human-readable source name used in formatted output.
	Name() string
	// Source is the routing/scoring key.
	Source() string
	// Search runs the query against this source.
	Search(ctx context.Context, query string, opts Options) (string, error)
	// ShouldUseForQuery is an advisory keyword heuristic used for routing.
	ShouldUseForQuery(query string) bool
}

// httpCollaborator carries the shared pieces of the HTTP-backed sources:
// a client, a politeness delay between requests and soft-failure formatting.
type httpCollaborator struct {
	name      string
	source    string
	client    *http.Client
	minDelay  time.Duration
	lastReq   time.Time
	userAgent string
}

func newHTTPCollaborator(name, source string, client *http.Client, minDelay time.Duration) httpCollaborator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return httpCollaborator{
		name:      name,
		source:    source,
		client:    client,
		minDelay:  minDelay,
		userAgent: "consilium-research/1.0",
	}
}

func (h *httpCollaborator) Name() string   { return h.name }
func (h *httpCollaborator) Source() string { return h.source }

// pace sleeps just enough to respect the per-source request delay.
func (h *httpCollaborator) pace() {
	if h.minDelay <= 0 {
		return
	}
	if since := time.Since(h.lastReq); since < h.minDelay {
		time.Sleep(h.minDelay - since)
	}
	h.lastReq = time.Now()
}

// get performs a GET and returns the body. Callers format their own soft
// failures from the returned error.
func (h *httpCollaborator) get(ctx context.Context, url string) ([]byte, error) {
	h.pace()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// unavailable produces the soft-failure string every collaborator uses.
func (h *httpCollaborator) unavailable(query string, err error) string {
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return fmt.Sprintf("**%s Research for: %s**\n\nResearch temporarily unavailable: %s...", h.name, query, msg)
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
