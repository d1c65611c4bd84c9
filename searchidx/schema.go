// Package searchidx maintains a full-text index over document content,
// kept consistent with the mutation stream via the same debounced-worker
// pattern as the link indexer (spec.md §4.4, component C4).
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package searchidx

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// docFields mirrors spec.md §4.4's schema:
//   doc_id: string (stored, exact), title: text (stored, tokenized),
//   path: string (stored), folder: string (stored),
//   body: text (tokenized, not stored), updated_at: u64 (stored)
type docFields struct {
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	Folder    string `json:"folder"`
	Body      string `json:"body"`
	UpdatedAt int64  `json:"updated_at"`
}

func buildMapping() mapping.IndexMapping {
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = "keyword"
	exact.Store = true

	tokenizedStored := bleve.NewTextFieldMapping()
	tokenizedStored.Store = true

	tokenizedUnstored := bleve.NewTextFieldMapping()
	tokenizedUnstored.Store = false

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("doc_id", exact)
	doc.AddFieldMappingsAt("title", tokenizedStored)
	doc.AddFieldMappingsAt("path", exact)
	doc.AddFieldMappingsAt("folder", exact)
	doc.AddFieldMappingsAt("body", tokenizedUnstored)
	doc.AddFieldMappingsAt("updated_at", numeric)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Open creates or opens the memory-mapped on-disk index directory at dir
// (spec.md §4.4 "Index storage"). A missing directory is created fresh; an
// existing one is opened as-is, so restarts reuse the prior index.
func Open(dir string) (bleve.Index, error) {
	idx, err := bleve.Open(dir)
	if err == nil {
		return idx, nil
	}
	return bleve.New(dir, buildMapping())
}
