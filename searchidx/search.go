/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package searchidx

import (
	"html"
	"strings"

	"github.com/blevesearch/bleve/v2"
	htmlhighlighter "github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
)

// Hit is one search result, with an HTML-escaped, <mark>-wrapped snippet of
// the matching body region (spec.md §4.4 "Snippet rendering").
type Hit struct {
	DocID   string  `json:"doc_id"`
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Search runs a query string against the index, returning up to limit hits
// ordered by relevance score, each carrying a rendered snippet.
func (ix *Indexer) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"doc_id", "path", "title"}
	req.Highlight = bleve.NewHighlightWithStyle(htmlhighlighter.Name)
	req.Highlight.AddField("body")

	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, dm := range res.Hits {
		hit := Hit{
			DocID: dm.ID,
			Score: dm.Score,
		}
		if v, ok := dm.Fields["path"].(string); ok {
			hit.Path = v
		}
		if v, ok := dm.Fields["title"].(string); ok {
			hit.Title = v
		}
		hit.Snippet = renderSnippet(dm.Fragments["body"])
		hits = append(hits, hit)
	}
	return hits, nil
}

// renderSnippet joins bleve's highlighted fragments (which already wrap
// matches in <mark>...</mark>) and escapes everything else, so the result
// is safe to embed directly in an HTML response.
func renderSnippet(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	var b strings.Builder
	for i, frag := range fragments {
		if i > 0 {
			b.WriteString(" … ")
		}
		b.WriteString(escapeExceptMark(frag))
	}
	return b.String()
}

// escapeExceptMark HTML-escapes frag while preserving the literal <mark> and
// </mark> tags bleve's html highlighter already inserted around matches.
func escapeExceptMark(frag string) string {
	const openTag = "\x00OPEN\x00"
	const closeTag = "\x00CLOSE\x00"
	frag = strings.ReplaceAll(frag, "<mark>", openTag)
	frag = strings.ReplaceAll(frag, "</mark>", closeTag)
	frag = html.EscapeString(frag)
	frag = strings.ReplaceAll(frag, openTag, "<mark>")
	frag = strings.ReplaceAll(frag, closeTag, "</mark>")
	return frag
}
