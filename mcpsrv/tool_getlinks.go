package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/linkidx"
	"github.com/lens-academy/relay/store"
)

type getLinksArgs struct {
	FilePath string `json:"file_path"`
}

// toolGetLinks implements spec.md §4.7 "get_links specifics": backlinks
// come from the document's folder's backlinks_v0[target_doc_uuid] map,
// resolved back to paths; forward links come from parsing the document's
// own content.
func toolGetLinks(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a getLinksArgs
	if err := jsonAPI.Unmarshal(raw, &a); err != nil || a.FilePath == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "get_links requires file_path"}
	}

	entry, ok := s.resolver.Resolve(a.FilePath)
	if !ok {
		return errResult(cmn.NewErrDocumentNotFound(a.FilePath)), nil
	}

	var b strings.Builder
	b.WriteString("Backlinks:\n")
	for _, p := range backlinkPaths(ctx, s, entry.FolderDocID, entry.DocUUID) {
		fmt.Fprintf(&b, "  %s\n", p)
	}

	b.WriteString("\nForward links:\n")
	docID := store.MakeDocID(entry.RelayUUID, entry.DocUUID)
	h, err := s.docs.GetOrLoad(ctx, docID)
	if err == nil {
		body := h.Doc.Text(contentsContainer).String()
		for _, l := range linkidx.ExtractLinks(body) {
			target, ok := s.resolver.Resolve(l.Name)
			if !ok {
				target, ok = s.resolver.ResolveBasename(l.Name)
			}
			if ok {
				fmt.Fprintf(&b, "  %s\n", target.FullPath)
			} else {
				fmt.Fprintf(&b, "  %s (unresolved)\n", l.Name)
			}
		}
	}

	return textResult(b.String()), nil
}

func backlinkPaths(ctx context.Context, s *Server, folderDocID, targetUUID string) []string {
	folder, err := s.docs.GetOrLoad(ctx, folderDocID)
	if err != nil {
		return nil
	}
	v, found := folder.Doc.Map(backlinksContainer).Get(targetUUID)
	if !found {
		return nil
	}
	var sourceUUIDs []string
	switch list := v.(type) {
	case []string:
		sourceUUIDs = list
	case []any:
		for _, e := range list {
			if str, ok := e.(string); ok {
				sourceUUIDs = append(sourceUUIDs, str)
			}
		}
	}

	var paths []string
	for _, uuid := range sourceUUIDs {
		if p, ok := s.resolver.PathFor(uuid); ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
