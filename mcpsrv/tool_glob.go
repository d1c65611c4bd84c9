package mcpsrv

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

type globArgs struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

// toolGlob implements spec.md §4.7 "Glob-tool specifics": glob_match
// against resolver.AllPaths(), optionally scoped by a path prefix, sorted
// alphabetically (CRDT documents carry no mtime to sort by).
func toolGlob(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a globArgs
	if err := jsonAPI.Unmarshal(raw, &a); err != nil || a.Pattern == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "glob requires pattern"}
	}

	scope := strings.TrimSuffix(a.Path, "/")
	seen := make(map[string]bool)
	var matches []string
	for _, p := range s.resolver.AllPaths() {
		if scope != "" && !withinScope(p, scope) {
			continue
		}
		full, _ := filepath.Match(a.Pattern, p)
		// Also try matching against the path's basename, so "*.md" matches
		// regardless of which folder the document lives in.
		base, _ := filepath.Match(a.Pattern, filepath.Base(p))
		if (full || base) && !seen[p] {
			seen[p] = true
			matches = append(matches, p)
		}
	}
	sort.Strings(matches)
	return textResult(strings.Join(matches, "\n")), nil
}

func withinScope(path, scope string) bool {
	return path == scope || strings.HasPrefix(path, scope+"/")
}
