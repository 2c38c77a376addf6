package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WebCollaborator searches the general web through the DuckDuckGo HTML
// endpoint and scrapes result titles and snippets.
type WebCollaborator struct {
	httpCollaborator
	endpoint string
}

func NewWebCollaborator(client *http.Client) *WebCollaborator {
	return &WebCollaborator{
		httpCollaborator: newHTTPCollaborator("Web Search", SourceWeb, client, 500*time.Millisecond),
		endpoint:         "https://html.duckduckgo.com/html/",
	}
}

func (w *WebCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{
		"current", "latest", "recent", "today", "news", "2024", "2025", "2026", "trend",
	})
}

func (w *WebCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	body, err := w.get(ctx, w.endpoint+"?q="+url.QueryEscape(query))
	if err != nil {
		log.Warn("web search failed for %q: %v", query, err)
		return w.unavailable(query, err), err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return w.unavailable(query, err), err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Web Search Results for: %s**\n\n", query)
	count := 0
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find(".result__title").Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		link, _ := sel.Find(".result__title a").Attr("href")
		if title == "" && snippet == "" {
			return true
		}
		count++
		fmt.Fprintf(&b, "%d. **%s**\n%s\n", count, title, snippet)
		if link != "" {
			fmt.Fprintf(&b, "Source: %s\n", link)
		}
		b.WriteString("\n")
		return count < maxResults
	})
	if count == 0 {
		fmt.Fprintf(&b, "No results found for this query.\n")
	}
	return b.String(), nil
}
