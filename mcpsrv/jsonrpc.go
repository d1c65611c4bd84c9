// Package mcpsrv implements the MCP tool dispatcher (spec.md §4.7,
// component C7): a JSON-RPC 2.0 handler over "Streamable HTTP" exposing
// read/glob/grep/get_links/edit (plus a supplemented ls) to AI clients.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package mcpsrv

import (
	"context"
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lens-academy/relay/cmn"
	"github.com/lens-academy/relay/cmn/nlog"
	"github.com/lens-academy/relay/mcpsession"
	"github.com/lens-academy/relay/metrics"
	"github.com/lens-academy/relay/resolver"
	"github.com/lens-academy/relay/store"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const protocolVersion = "2024-11-05"
const contentsContainer = "contents"
const backlinksContainer = "backlinks_v0"

// Request/Response are the JSON-RPC 2.0 envelope types.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC error codes used for protocol violations (spec.md §7
// "ProtocolViolation").
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// ContentBlock and CallToolResult mirror the MCP tool-call envelope spec.md
// §6 describes: { content: [{ type: "text", text }], isError }.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

func textResult(s string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{{Type: "text", Text: s}}}
}

func errResult(err error) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{{Type: "text", Text: err.Error()}}, IsError: true}
}

// Docs is the narrow slice of the document store mcpsrv needs.
type Docs interface {
	GetOrLoad(ctx context.Context, docID string) (*store.Handle, error)
}

// Server dispatches JSON-RPC requests to the registered tools.
type Server struct {
	docs     Docs
	resolver *resolver.Resolver
	sessions *mcpsession.Manager
	log      *nlog.Tagged
}

func New(docs Docs, res *resolver.Resolver, sessions *mcpsession.Manager) *Server {
	return &Server{docs: docs, resolver: res, sessions: sessions, log: nlog.Component(cmn.SmoduleMCP)}
}

// Handle processes one JSON-RPC request and returns the response to
// serialize back to the client. A nil response means the method was a
// notification (no id) and no reply is sent.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}}
	}
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleInitialize(req *Request) *Response {
	var p initializeParams
	if len(req.Params) > 0 {
		_ = jsonAPI.Unmarshal(req.Params, &p)
	}
	pv := p.ProtocolVersion
	if pv == "" {
		pv = protocolVersion
	}
	sess := s.sessions.Create(pv, mcpsession.ClientInfo{Name: p.ClientInfo.Name, Version: p.ClientInfo.Version})

	var res initializeResult
	res.ProtocolVersion = pv
	res.ServerInfo.Name = "lens-relay"
	res.ServerInfo.Version = "1.0.0"
	res.SessionID = sess.ID
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: res}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": toolDescriptors}}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var p toolCallParams
	if err := jsonAPI.Unmarshal(req.Params, &p); err != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInvalidParams, Message: "malformed tools/call params"}}
	}
	tool, ok := registry[p.Name]
	if !ok {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: "unknown tool: " + p.Name}}
	}

	start := time.Now()
	result, rpcErr := tool(ctx, s, p.Arguments)
	metrics.MCPToolDurationSeconds.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// toolFunc implements one MCP tool. It returns a JSON-RPC protocol error
// only for malformed/missing-required-argument requests; every domain
// failure is reported through CallToolResult.IsError instead (spec.md §4.7
// "Error-vs-protocol distinction").
type toolFunc func(ctx context.Context, s *Server, args json.RawMessage) (*CallToolResult, *RPCError)

type sessionCtxKey struct{}

// WithSessionID attaches the transport-level MCP session id (the
// "Mcp-Session-Id" header on the Streamable HTTP transport) to ctx, so
// tools like read that don't take an explicit session_id argument can
// still record read_docs against the right session (spec.md §4.6
// "Compatibility note").
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

var registry = map[string]toolFunc{
	"read":      toolRead,
	"glob":      toolGlob,
	"grep":      toolGrep,
	"get_links": toolGetLinks,
	"edit":      toolEdit,
	"ls":        toolLs,
}
