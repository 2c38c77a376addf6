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

// ArxivCollaborator queries the arXiv Atom API for academic papers.
type ArxivCollaborator struct {
	httpCollaborator
	apiBase string
}

func NewArxivCollaborator(client *http.Client) *ArxivCollaborator {
	return &ArxivCollaborator{
		httpCollaborator: newHTTPCollaborator("arXiv Academic", SourceArxiv, client, 3 * time.Second),
		apiBase:          "http://export.arxiv.org/api/query",
	}
}

func (a *ArxivCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{
		"research", "study", "academic", "paper", "scientific", "algorithm", "theory",
	})
}

type arxivFeed struct {
	Entries []struct {
		Title     string `xml:"title"`
		Summary   string `xml:"summary"`
		Published string `xml:"published"`
		ID        string `xml:"id"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

func (a *ArxivCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	searchURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance",
		a.apiBase, url.QueryEscape(query), maxResults)
	body, err := a.get(ctx, searchURL)
	if err != nil {
		log.Warn("arxiv search failed for %q: %v", query, err)
		return a.unavailable(query, err), err
	}
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return a.unavailable(query, err), err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Academic Research for: %s**\n\n", query)
	if len(feed.Entries) == 0 {
		b.WriteString("No academic papers found for this topic.\n")
		return b.String(), nil
	}
	for i, entry := range feed.Entries {
		title := strings.Join(strings.Fields(entry.Title), " ")
		summary := strings.Join(strings.Fields(entry.Summary), " ")
		var authors []string
		for _, au := range entry.Authors {
			authors = append(authors, au.Name)
		}
		if len(authors) > 3 {
			authors = append(authors[:3], "et al.")
		}
		published := entry.Published
		if len(published) >= 10 {
			published = published[:10]
		}
		fmt.Fprintf(&b, "**Paper %d: %s**\n", i+1, title)
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(authors, ", "))
		fmt.Fprintf(&b, "Published: %s\n", published)
		fmt.Fprintf(&b, "%s\n", truncate(summary, 600))
		fmt.Fprintf(&b, "Source: %s\n\n", entry.ID)
	}
	return b.String(), nil
}
