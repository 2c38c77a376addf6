package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SECCollaborator looks up company filings through the EDGAR Atom feed.
type SECCollaborator struct {
	httpCollaborator
	apiBase string
}

func NewSECCollaborator(client *http.Client) *SECCollaborator {
	c := &SECCollaborator{
		httpCollaborator: newHTTPCollaborator("SEC EDGAR", SourceSEC, client, time.Second),
		apiBase:          "https://www.sec.gov/cgi-bin/browse-edgar",
	}
	// EDGAR rejects anonymous clients.
	c.userAgent = "consilium-research/1.0 (research@consilium.dev)"
	return c
}

func (s *SECCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{
		"company", "stock", "financial", "revenue", "earnings", "sec", "filing", "investor",
	})
}

type edgarFeed struct {
	Entries []struct {
		Title    string `xml:"title"`
		Updated  string `xml:"updated"`
		Category struct {
			Term string `xml:"term,attr"`
		} `xml:"category"`
		Link struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func (s *SECCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	searchURL := fmt.Sprintf("%s?action=getcompany&company=%s&type=10-K&dateb=&owner=include&count=%d&output=atom",
		s.apiBase, url.QueryEscape(query), maxResults)
	body, err := s.get(ctx, searchURL)
	if err != nil {
		log.Warn("sec search failed for %q: %v", query, err)
		return s.unavailable(query, err), err
	}
	var feed edgarFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return s.unavailable(query, err), err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Financial Research for: %s**\n\n", query)
	if len(feed.Entries) == 0 {
		b.WriteString("No SEC filings found for this company.\n")
		return b.String(), nil
	}
	count := 0
	for _, entry := range feed.Entries {
		if count >= maxResults {
			break
		}
		count++
		updated := entry.Updated
		if len(updated) >= 10 {
			updated = updated[:10]
		}
		form := entry.Category.Term
		if form == "" {
			form = "filing"
		}
		fmt.Fprintf(&b, "**Filing %d: %s**\n", count, strings.TrimSpace(entry.Title))
		fmt.Fprintf(&b, "Form type: %s\n", form)
		fmt.Fprintf(&b, "Filed: %s\n", updated)
		if entry.Link.Href != "" {
			fmt.Fprintf(&b, "Source: %s\n", entry.Link.Href)
		}
		b.WriteString("\n")
	}
	b.WriteString("Official filings from the SEC EDGAR database. Annual reports (10-K) carry audited financial statements, risk factors and management discussion.\n")
	return b.String(), nil
}
