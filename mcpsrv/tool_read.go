package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/store"
)

type readArgs struct {
	FilePath string `json:"file_path"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

const defaultReadLimit = 2000
const maxLineChars = 2000

// toolRead implements spec.md §4.7 "Read-tool specifics": cat -n formatted
// output, a `[session: ...]` compatibility trailer, and marking the
// document read in the caller's session so editengine's read-before-edit
// guard is satisfiable.
func toolRead(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a readArgs
	if err := jsonAPI.Unmarshal(raw, &a); err != nil || a.FilePath == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "read requires file_path"}
	}
	if a.Limit <= 0 {
		a.Limit = defaultReadLimit
	}

	entry, ok := s.resolver.Resolve(a.FilePath)
	if !ok {
		return errResult(cmn.NewErrDocumentNotFound(a.FilePath)), nil
	}
	docID := store.MakeDocID(entry.RelayUUID, entry.DocUUID)
	h, err := s.docs.GetOrLoad(ctx, docID)
	if err != nil {
		return errResult(cmn.NewErrDocumentNotFound(a.FilePath)), nil
	}

	body := h.Doc.Text(contentsContainer).String()
	lines := strings.Split(body, "\n")

	var b strings.Builder
	end := a.Offset + a.Limit
	if end > len(lines) {
		end = len(lines)
	}
	for i := a.Offset; i < end; i++ {
		line := lines[i]
		if len(line) > maxLineChars {
			line = line[:maxLineChars]
		}
		fmt.Fprintf(&b, "%6d\t%s\n", i+1, line)
	}

	sessionID := sessionIDFromContext(ctx)
	if sess, ok := s.sessions.Get(sessionID); ok {
		sess.MarkRead(docID)
	}

	fmt.Fprintf(&b, "\n[session: %s]", sessionID)
	return textResult(b.String()), nil
}
