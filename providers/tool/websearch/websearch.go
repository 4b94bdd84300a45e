// Package websearch provides a web search tool backed by the DuckDuckGo
// Instant Answer API. The API is free and keyless; results are condensed
// into a plain-text summary suitable for feeding back to a language model.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/tool"
)

const (
	userAgent = "agentkit-websearch/1.0"

	maxRelatedTopics = 5
)

// apiBaseURL is a variable so tests can point Search at a local server.
var apiBaseURL = "https://api.duckduckgo.com/"

// Input holds the search parameters supplied by the language model.
type Input struct {
	Query string `json:"query" description:"The search query to look up"`
}

// Output is the condensed search result returned to the language model.
type Output struct {
	Query   string `json:"query" description:"The original search query"`
	Summary string `json:"summary" description:"Summary of search results including abstracts, answers, and related topics"`
}

// ddgResponse mirrors the subset of the Instant Answer payload we consume.
type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	Definition    string `json:"Definition"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// New returns a [tool.Tool] that searches the web via DuckDuckGo.
func New() *tool.Tool[Input, Output] {
	return tool.New(
		"web_search",
		"Searches the web using the DuckDuckGo search engine. Returns instant answers, abstracts, and related topics for a given query.",
		Search,
	)
}

// Search queries the DuckDuckGo Instant Answer API and condenses the
// response into a single summary string.
func Search(ctx context.Context, req Input) (Output, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Output{}, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Output{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return Output{}, fmt.Errorf("making request: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return Output{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, fmt.Errorf("reading response: %w", err)
	}

	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Output{}, fmt.Errorf("parsing response: %w", err)
	}

	return Output{Query: query, Summary: buildSummary(parsed)}, nil
}

func buildSummary(r ddgResponse) string {
	var sections []string

	if r.AbstractText != "" {
		sections = append(sections, "Abstract: "+r.AbstractText)
		if r.AbstractURL != "" {
			sections = append(sections, "Source: "+r.AbstractURL)
		}
	}
	if r.Answer != "" {
		sections = append(sections, "Answer: "+r.Answer)
	}
	if r.Definition != "" {
		sections = append(sections, "Definition: "+r.Definition)
	}

	var topics []string
	for _, topic := range r.RelatedTopics {
		if len(topics) == maxRelatedTopics {
			break
		}
		if topic.Text != "" {
			topics = append(topics, topic.Text)
		}
	}
	if len(topics) > 0 {
		sections = append(sections, "Related topics: "+strings.Join(topics, "; "))
	}

	if len(sections) == 0 {
		return "No results found for this query."
	}
	return strings.Join(sections, "\n\n")
}
