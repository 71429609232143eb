// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-tracker/internal/httputil"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const openAlexPageCap = 200

// OpenAlexClient queries the OpenAlex API. It is the fallback provider,
// used after the primary reports rate limiting or a transient failure.
type OpenAlexClient struct {
	Client *http.Client
	// Email is sent as the mailto parameter for polite pool access.
	Email     string
	UserAgent string
	Retry     httputil.RetryPolicy

	pace pacer
}

// NewOpenAlexClient builds a client from configuration. The pacing
// interval defaults to 1s (OpenAlex allows 10 req/s; one per second keeps
// a wide margin).
func NewOpenAlexClient(cfg types.SourceConfig) *OpenAlexClient {
	pacing := cfg.FallbackPacing
	if pacing == 0 {
		pacing = time.Second
	}
	return &OpenAlexClient{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Email:     cfg.OpenAlexEmail,
		UserAgent: cfg.UserAgent,
		Retry:     httputil.RetryPolicy{Delay: cfg.RetryDelay},
		pace:      pacer{interval: pacing},
	}
}

// Name returns the provider identifier.
func (c *OpenAlexClient) Name() string { return string(types.SourceOpenAlex) }

// Search queries OpenAlex for works matching the keyword published in or
// after minYear. Results come back sorted by citation count descending.
func (c *OpenAlexClient) Search(ctx context.Context, keyword string, minYear, limit int) ([]types.PaperRecord, error) {
	if err := validateQuery(keyword, minYear); err != nil {
		return nil, fmt.Errorf("openalex: %w", err)
	}
	if err := c.pace.wait(ctx); err != nil {
		return nil, err
	}

	filters := []string{
		"default.search:" + keyword,
		fmt.Sprintf("publication_year:>%d", minYear-1),
	}
	params := url.Values{
		"filter":   {strings.Join(filters, ",")},
		"sort":     {"cited_by_count:desc"},
		"per-page": {fmt.Sprintf("%d", clampLimit(limit, openAlexPageCap))},
		"page":     {"1"},
	}
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.Do(ctx, c.Client, req, c.Retry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.Name(), ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(c.Name(), resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var records []types.PaperRecord
	for _, work := range oar.Results {
		rec, ok := normalizeOpenAlex(work)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeOpenAlex converts one work into a PaperRecord. Works without a
// usable identifier or title are dropped.
func normalizeOpenAlex(work openAlexWork) (types.PaperRecord, bool) {
	providerID := strings.TrimPrefix(work.ID, "https://openalex.org/")
	if providerID == "" || work.Title == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		ProviderID: providerID,
		Source:     types.SourceOpenAlex,
		Title:      strings.TrimSpace(work.Title),
		Year:       work.PublicationYear,
		Abstract:   reconstructAbstract(work.AbstractInvertedIndex),
		URL:        work.ID,
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			rec.Authors = append(rec.Authors, authorship.Author.DisplayName)
		}
	}

	rec.Venue = work.PrimaryLocation.Source.DisplayName

	if work.PrimaryLocation.PDFURL != "" {
		rec.PDFURL = work.PrimaryLocation.PDFURL
	} else if work.OpenAccess.OAURL != "" {
		rec.PDFURL = work.OpenAccess.OAURL
	}

	if work.CitedByCount > 0 {
		rec.CitationCount = work.CitedByCount
	}

	return rec, true
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexVenue `json:"source"`
	PDFURL string        `json:"pdf_url"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}
