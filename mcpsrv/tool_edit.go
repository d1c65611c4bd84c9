package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/editengine"
)

type editArgs struct {
	FilePath  string `json:"file_path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
	SessionID string `json:"session_id"`
}

// toolEdit delegates to editengine.Edit, which implements the full
// read-verify-write contract of spec.md §4.8.
func toolEdit(ctx context.Context, s *Server, raw json.RawMessage) (*CallToolResult, *RPCError) {
	var a editArgs
	if err := jsonAPI.Unmarshal(raw, &a); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "malformed edit arguments"}
	}
	if a.FilePath == "" || a.SessionID == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "edit requires file_path, old_string, new_string, and session_id"}
	}

	sess, ok := s.sessions.Get(a.SessionID)
	if !ok {
		return errResult(cmn.NewErrReadBeforeEdit()), nil
	}

	res, err := editengine.Edit(ctx, sess, s.docs, s.resolver, a.FilePath, a.OldString, a.NewString)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(fmt.Sprintf("Edited %s at byte offset %d.", res.Path, res.ReplacedAt)), nil
}
