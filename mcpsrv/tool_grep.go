package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/store"
)

type grepArgs struct {
	Pattern    string `json:"pattern"`
	Path       string `json:"path"`
	OutputMode string `json:"output_mode"`
	I          bool   `json:"-i"`
	A          int    `json:"-A"`
	B          int    `json:"-B"`
	C          int    `json:"-C"`
	HeadLimit  int    `json:"head_limit"`
}

// toolGrep implements spec.md §4.7 "Grep-tool specifics" using regexp2
// with the RE2 option. That option selects RE2-compatible pattern syntax
// only: regexp2 is a backtracking engine, so matching time is not bounded
// linearly and no match timeout is set.
func toolGrep(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a grepArgs
	if err := jsonAPI.Unmarshal(raw, &a); err != nil || a.Pattern == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "grep requires pattern"}
	}
	if a.OutputMode == "" {
		a.OutputMode = "content"
	}

	opts := regexp2.RE2
	if a.I {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(a.Pattern, opts)
	if err != nil {
		return errResult(cmn.NewErrInvalidRegex(a.Pattern, err)), nil
	}

	before, after := a.B, a.A
	if a.C > 0 {
		before, after = a.C, a.C
	}

	scope := strings.TrimSuffix(a.Path, "/")
	paths := s.resolver.AllPaths()
	sort.Strings(paths)

	var lines []string
	for _, path := range paths {
		if scope != "" && !withinScope(path, scope) {
			continue
		}
		entry, ok := s.resolver.Resolve(path)
		if !ok {
			continue
		}
		docID := store.MakeDocID(entry.RelayUUID, entry.DocUUID)
		h, err := s.docs.GetOrLoad(ctx, docID)
		if err != nil {
			continue
		}
		body := h.Doc.Text(contentsContainer).String()
		matchedLines, count := grepFile(re, body, before, after)
		if count == 0 {
			continue
		}

		switch a.OutputMode {
		case "files_with_matches":
			lines = append(lines, path)
		case "count":
			lines = append(lines, fmt.Sprintf("%s:%d", path, count))
		default:
			for _, ml := range matchedLines {
				if ml.lineNo < 0 {
					lines = append(lines, "--")
					continue
				}
				sep := ":"
				if !ml.isMatch {
					sep = "-"
				}
				lines = append(lines, fmt.Sprintf("%s%s%d%s%s", path, sep, ml.lineNo, sep, ml.text))
			}
		}
	}
	if a.HeadLimit > 0 && len(lines) > a.HeadLimit {
		lines = lines[:a.HeadLimit]
	}
	if len(lines) == 0 {
		return textResult("No matches found."), nil
	}
	return textResult(strings.Join(lines, "\n")), nil
}

type grepLine struct {
	lineNo  int
	text    string
	isMatch bool
}

// grepFile scans body for re, returning the merged set of matching lines
// plus their configured context window. Overlapping windows coalesce into
// one contiguous run, per spec.md "Overlapping context windows coalesce."
func grepFile(re *regexp2.Regexp, body string, before, after int) ([]grepLine, int) {
	lines := strings.Split(body, "\n")
	matched := make([]bool, len(lines))
	count := 0
	for i, line := range lines {
		m, _ := re.MatchString(line)
		if m {
			matched[i] = true
			count++
		}
	}
	if count == 0 {
		return nil, 0
	}

	include := make([]bool, len(lines))
	for i, isMatch := range matched {
		if !isMatch {
			continue
		}
		lo := i - before
		if lo < 0 {
			lo = 0
		}
		hi := i + after
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		for k := lo; k <= hi; k++ {
			include[k] = true
		}
	}

	var out []grepLine
	prevIncluded := -2
	for i, inc := range include {
		if !inc {
			continue
		}
		if i != prevIncluded+1 && len(out) > 0 {
			out = append(out, grepLine{lineNo: -1, text: "--", isMatch: false})
		}
		out = append(out, grepLine{lineNo: i + 1, text: lines[i], isMatch: matched[i]})
		prevIncluded = i
	}
	return out, count
}
