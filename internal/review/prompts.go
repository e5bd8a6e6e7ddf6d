// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/literature-review/pkg/types"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"year": func(y *int) string {
		if y == nil {
			return "Unknown"
		}
		return fmt.Sprint(*y)
	},
	"venue": func(v *string) string {
		if v == nil || *v == "" {
			return "Unknown"
		}
		return *v
	},
	"score": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"inc":   func(i int) int { return i + 1 },
}

func newPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Parse(text))
}

var searchPromptTmpl = newPrompt("search", `Find at least {{.MaxPapers}} recent and highly cited academic papers about "{{.Topic}}".

Use the search_semantic_scholar tool for published work with venues and citation counts, the search_arxiv tool for preprints, and the fetch_page tool to check publisher or Google Scholar pages when you need venue or year details. Prefer peer-reviewed work when it exists.

For each paper report the title, the list of authors, the abstract, the publication year, the venue, and a URL where the paper can be read.

Return the papers as a JSON list of objects with exactly these keys:
"title", "authors" (a list of names), "abstract", "year", "venue", "url".
Put the list in a single ` + "```json" + ` code block.
`)

var contentPromptTmpl = newPrompt("content", `Open {{.URL}} and read the academic paper titled "{{.Title}}".

Use the fetch_page tool. If the page is a landing page, follow links to the HTML full text when one is available.

Return:
1. The full text of the paper, or as much of it as you can read. Keep the original wording.
2. A line starting with "Keywords:" listing the paper's keywords separated by commas.
3. A line starting with "Citations:" with the citation count if the page shows one.
`)

var filterPromptTmpl = newPrompt("filter", `Assess how relevant this paper is to the research topic "{{.Topic}}".

Title: {{.Paper.Title}}
Authors: {{join .Paper.Authors ", "}}
Abstract: {{.Paper.Abstract}}
{{- if .Paper.Keywords}}
Keywords: {{join .Paper.Keywords ", "}}
{{- end}}

Rate the relevance on a scale from 0.0 (unrelated) to 1.0 (central to the topic) and explain your rating in two or three sentences.
On the last line provide only the score in the form RELEVANCE_SCORE: X.X
`)

var summaryPromptTmpl = newPrompt("summary", `Summarize this academic paper for a literature review on "{{.Topic}}".

Title: {{.Paper.Title}}
Authors: {{join .Paper.Authors ", "}}
Year: {{year .Paper.Year}}
Venue: {{venue .Paper.Venue}}

Content:
{{.Content}}

Write 200 to 300 words covering the research question, the methodology, the key findings, and the implications for the field.
`)

var synthesisPromptTmpl = newPrompt("synthesis", `Write a comprehensive literature review on "{{.Topic}}" based on the papers below.
{{range $i, $e := .Entries}}
Paper {{inc $i}}:
Title: {{$e.Paper.Title}}
Authors: {{join $e.Paper.Authors ", "}}
Year: {{year $e.Paper.Year}}
Venue: {{venue $e.Paper.Venue}}
Relevance: {{score $e.Paper.RelevanceScore}}/1.00

Summary:
{{$e.Summary}}
{{else}}
No papers met the relevance threshold. Say so, and outline what a review of this topic would need to cover.
{{end}}
Structure the review with these Markdown sections:
1. Introduction
2. Major themes and findings
3. Research methodologies
4. Synthesis of findings
5. Research gaps and future directions
6. Conclusion

Cite papers in the text as (Author et al., Year) and finish with a References section listing every paper you cited.
`)

type searchPromptData struct {
	Topic     string
	MaxPapers int
}

type filterPromptData struct {
	Topic string
	Paper types.Paper
}

type summaryPromptData struct {
	Topic   string
	Paper   types.Paper
	Content string
}

type summaryEntry struct {
	Paper   types.Paper
	Summary string
}

type synthesisPromptData struct {
	Topic   string
	Entries []summaryEntry
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
