package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WikipediaCollaborator retrieves background articles via the MediaWiki
// search and extract APIs.
type WikipediaCollaborator struct {
	httpCollaborator
	apiBase string
}

func NewWikipediaCollaborator(client *http.Client) *WikipediaCollaborator {
	return &WikipediaCollaborator{
		httpCollaborator: newHTTPCollaborator("Wikipedia", SourceWikipedia, client, 200*time.Millisecond),
		apiBase:          "https://en.wikipedia.org/w/api.php",
	}
}

func (w *WikipediaCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{
		"what is", "definition", "history", "background", "overview", "explain",
	})
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func (w *WikipediaCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	searchURL := fmt.Sprintf("%s?action=query&list=search&srsearch=%s&srlimit=%d&format=json",
		w.apiBase, url.QueryEscape(query), maxResults)
	body, err := w.get(ctx, searchURL)
	if err != nil {
		log.Warn("wikipedia search failed for %q: %v", query, err)
		return w.unavailable(query, err), err
	}
	var sr wikiSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return w.unavailable(query, err), err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Wikipedia Research for: %s**\n\n", query)
	if len(sr.Query.Search) == 0 {
		b.WriteString("No articles found for this topic.\n")
		return b.String(), nil
	}
	for i, hit := range sr.Query.Search {
		extract, pageErr := w.fetchExtract(ctx, hit.Title)
		if pageErr != nil {
			continue
		}
		fmt.Fprintf(&b, "**Article %d: %s**\n%s\n", i+1, hit.Title, truncate(extract, 800))
		fmt.Fprintf(&b, "Source: https://en.wikipedia.org/wiki/%s\n\n",
			url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")))
	}
	return b.String(), nil
}

func (w *WikipediaCollaborator) fetchExtract(ctx context.Context, title string) (string, error) {
	extractURL := fmt.Sprintf("%s?action=query&prop=extracts&exintro=1&explaintext=1&titles=%s&format=json",
		w.apiBase, url.QueryEscape(title))
	body, err := w.get(ctx, extractURL)
	if err != nil {
		return "", err
	}
	var er wikiExtractResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return "", err
	}
	for _, page := range er.Query.Pages {
		if page.Extract != "" {
			return page.Extract, nil
		}
	}
	return "", fmt.Errorf("no extract for %s", title)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
