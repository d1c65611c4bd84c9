package mcpsrv

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

type lsArgs struct {
	Path string `json:"path"`
}

// toolLs is a supplemented convenience tool (not in spec.md's original
// table): it lists the immediate children of a folder path, the way a
// filesystem-backed MCP server's ls tool would, built from the same
// resolver.AllPaths() data glob and grep already use.
func toolLs(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a lsArgs
	if len(raw) > 0 {
		if err := jsonAPI.Unmarshal(raw, &a); err != nil {
			return nil, &RPCError{Code: codeInvalidParams, Message: "malformed ls arguments"}
		}
	}
	scope := strings.TrimSuffix(a.Path, "/")

	seen := make(map[string]bool)
	var children []string
	for _, p := range s.resolver.AllPaths() {
		rest := p
		if scope != "" {
			if !withinScope(p, scope) {
				continue
			}
			rest = strings.TrimPrefix(p, scope+"/")
		}
		if rest == "" {
			continue
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i] + "/"
		}
		if !seen[rest] {
			seen[rest] = true
			children = append(children, rest)
		}
	}
	sort.Strings(children)
	return textResult(strings.Join(children, "\n")), nil
}
