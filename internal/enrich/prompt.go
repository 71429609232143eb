// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/research-tracker/pkg/types"
)

// promptTemplate aliases the template type so engine code reads cleanly.
type promptTemplate = *template.Template

const summarySystem = "You are a research analyst covering AI and robotics, skilled at distilling " +
	"academic papers into summaries an investor can absorb quickly."

const commentarySystem = "You are an investment analyst covering AI and robotics, skilled at " +
	"identifying technology trends and commercial opportunities in academic research."

// summaryPromptTmpl asks for a 300-500 word summary of the paper grounded
// on its title and abstract.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize the core content of the following research paper in 300-500 words.

Title: {{.Title}}
Authors: {{.Authors}}
Year: {{.Year}}
Venue: {{.Venue}}
Citations: {{.Citations}}

Abstract:
{{.Abstract}}

Cover:
1. Research background and motivation
2. Main method or technique
3. Key contributions and novelty
4. Experimental results, if reported
5. Potential application areas

Write in {{.Language}}, concise and professional, so an investor can understand it quickly.`))

// commentaryPromptTmpl asks for a 200-400 word investment analysis of the
// same paper. It is grounded on the same title and abstract; the summary
// is deliberately not an input, so the two generations are independent.
var commentaryPromptTmpl = template.Must(template.New("commentary").Parse(`Analyze the investment relevance of the following research paper in 200-400 words.

Title: {{.Title}}
Year: {{.Year}}
Citations: {{.Citations}}

Abstract:
{{.Abstract}}

From an investment perspective, address:
1. Technology maturity (early research vs. application ready)
2. Commercialization potential (possible products or services)
3. Industries and companies likely to benefit
4. Points to watch and risk notes

Write in {{.Language}}, emphasizing investment-relevant information.`))

// promptData is the field set exposed to the prompt templates. Only
// immutable paper metadata is included; enrichment never reads mutable
// state other than the paper row itself.
type promptData struct {
	Title     string
	Authors   string
	Year      int
	Venue     string
	Citations int
	Abstract  string
	Language  string
}

func renderPrompt(tmpl promptTemplate, paper *types.PaperRecord, language string) (string, error) {
	abstract := paper.Abstract
	if abstract == "" {
		abstract = "(no abstract available)"
	}
	venue := paper.Venue
	if venue == "" {
		venue = "(unknown)"
	}

	data := promptData{
		Title:     paper.Title,
		Authors:   strings.Join(paper.Authors, ", "),
		Year:      paper.Year,
		Venue:     venue,
		Citations: paper.CitationCount,
		Abstract:  abstract,
		Language:  language,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
