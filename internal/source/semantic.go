// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/research-tracker/internal/httputil"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// semanticSearchBase is the Semantic Scholar paper search endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticSearchBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields  = "paperId,externalIds,title,abstract,venue,year,authors,citationCount,url,openAccessPdf"
	semanticPageCap = 100
)

// SemanticScholarClient queries the Semantic Scholar Graph API. It is the
// primary provider of the acquisition run.
type SemanticScholarClient struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.RetryPolicy

	pace pacer
}

// NewSemanticScholarClient builds a client from configuration. The pacing
// interval defaults to 3s, which keeps an unauthenticated client under the
// free-tier rate limit.
func NewSemanticScholarClient(cfg types.SourceConfig) *SemanticScholarClient {
	pacing := cfg.PrimaryPacing
	if pacing == 0 {
		pacing = 3 * time.Second
	}
	return &SemanticScholarClient{
		Client:    &http.Client{Timeout: cfg.Timeout},
		APIKey:    cfg.SemanticScholarAPIKey,
		UserAgent: cfg.UserAgent,
		Retry:     httputil.RetryPolicy{Delay: cfg.RetryDelay},
		pace:      pacer{interval: pacing},
	}
}

// Name returns the provider identifier.
func (c *SemanticScholarClient) Name() string { return string(types.SourceSemanticScholar) }

// Search queries Semantic Scholar for papers matching the keyword
// published in or after minYear.
func (c *SemanticScholarClient) Search(ctx context.Context, keyword string, minYear, limit int) ([]types.PaperRecord, error) {
	if err := validateQuery(keyword, minYear); err != nil {
		return nil, fmt.Errorf("semantic scholar: %w", err)
	}
	if err := c.pace.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {keyword},
		"limit":  {fmt.Sprintf("%d", clampLimit(limit, semanticPageCap))},
		"fields": {semanticFields},
		"year":   {fmt.Sprintf("%d-", minYear)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := httputil.Do(ctx, c.Client, req, c.Retry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.Name(), ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(c.Name(), resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.PaperRecord
	for _, paper := range sr.Data {
		rec, ok := normalizeSemantic(paper)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeSemantic converts one API paper into a PaperRecord. Papers
// without a usable identifier or title are dropped.
func normalizeSemantic(paper semanticPaper) (types.PaperRecord, bool) {
	providerID := paper.ExternalIDs.ArXiv
	if providerID == "" {
		providerID = paper.PaperID
	}
	if providerID == "" || paper.Title == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		ProviderID: providerID,
		Source:     types.SourceSemanticScholar,
		Title:      paper.Title,
		Year:       paper.Year,
		Venue:      paper.Venue,
		Abstract:   paper.Abstract,
		URL:        paper.URL,
	}

	for _, a := range paper.Authors {
		if a.Name != "" {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}

	if paper.CitationCount > 0 {
		rec.CitationCount = paper.CitationCount
	}

	// arXiv papers get canonical links even when the API omits them.
	if paper.ExternalIDs.ArXiv != "" {
		rec.URL = "https://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
		rec.PDFURL = "https://arxiv.org/pdf/" + paper.ExternalIDs.ArXiv
	} else if paper.OpenAccessPDF.URL != "" {
		rec.PDFURL = paper.OpenAccessPDF.URL
	}

	return rec, true
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Venue         string              `json:"venue"`
	Year          int                 `json:"year"`
	URL           string              `json:"url"`
	CitationCount int                 `json:"citationCount"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF semanticOpenAccess  `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}
