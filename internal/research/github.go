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

// GitHubCollaborator surveys technology adoption through the GitHub
// repository search API.
type GitHubCollaborator struct {
	httpCollaborator
	apiBase string
}

func NewGitHubCollaborator(client *http.Client) *GitHubCollaborator {
	return &GitHubCollaborator{
		httpCollaborator: newHTTPCollaborator("Technology Trends", SourceGitHub, client, time.Second),
		apiBase:          "https://api.github.com/search/repositories",
	}
}

func (g *GitHubCollaborator) ShouldUseForQuery(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{
		"technology", "framework", "programming", "software", "library", "tool", "adoption", "developer",
	})
}

type githubSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		FullName    string `json:"full_name"`
		Description string `json:"description"`
		Stars       int    `json:"stargazers_count"`
		Forks       int    `json:"forks_count"`
		Language    string `json:"language"`
		UpdatedAt   string `json:"updated_at"`
		HTMLURL     string `json:"html_url"`
	} `json:"items"`
}

func (g *GitHubCollaborator) Search(ctx context.Context, query string, opts Options) (string, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	searchURL := fmt.Sprintf("%s?q=%s&sort=stars&order=desc&per_page=%d",
		g.apiBase, url.QueryEscape(query), maxResults)
	body, err := g.get(ctx, searchURL)
	if err != nil {
		log.Warn("github search failed for %q: %v", query, err)
		return g.unavailable(query, err), err
	}
	var sr githubSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return g.unavailable(query, err), err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Technology Trend Analysis for: %s**\n\n", query)
	if len(sr.Items) == 0 {
		b.WriteString("No repositories found for this technology.\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Total matching repositories: %d\n\n", sr.TotalCount)
	totalStars := 0
	recentlyUpdated := 0
	cutoff := time.Now().AddDate(0, -6, 0)
	for i, repo := range sr.Items {
		totalStars += repo.Stars
		if updated, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil && updated.After(cutoff) {
			recentlyUpdated++
		}
		lang := repo.Language
		if lang == "" {
			lang = "Unknown"
		}
		fmt.Fprintf(&b, "%d. **%s** (%d stars, %d forks, %s)\n", i+1, repo.FullName, repo.Stars, repo.Forks, lang)
		if repo.Description != "" {
			fmt.Fprintf(&b, "%s\n", truncate(repo.Description, 200))
		}
		fmt.Fprintf(&b, "Source: %s\n\n", repo.HTMLURL)
	}
	fmt.Fprintf(&b, "**Trend Indicators:**\n")
	fmt.Fprintf(&b, "- Combined stars across top results: %d\n", totalStars)
	fmt.Fprintf(&b, "- Repositories updated in the last 6 months: %d of %d\n", recentlyUpdated, len(sr.Items))
	return b.String(), nil
}
