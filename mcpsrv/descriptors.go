package mcpsrv

// toolDescriptor is the "tools/list" entry shape MCP clients expect:
// name, a human description, and a JSON Schema for arguments.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

func schema(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func strProp(desc string) map[string]any  { return map[string]any{"type": "string", "description": desc} }
func intProp(desc string) map[string]any  { return map[string]any{"type": "integer", "description": desc} }
func boolProp(desc string) map[string]any { return map[string]any{"type": "boolean", "description": desc} }

var toolDescriptors = []toolDescriptor{
	{
		Name:        "read",
		Description: "Read a document's content, cat -n formatted.",
		InputSchema: schema([]string{"file_path"}, map[string]any{
			"file_path": strProp("path of the document to read"),
			"offset":    intProp("0-based line to start from"),
			"limit":     intProp("maximum number of lines to return, default 2000"),
		}),
	},
	{
		Name:        "glob",
		Description: "List known document paths matching a glob pattern.",
		InputSchema: schema([]string{"pattern"}, map[string]any{
			"pattern": strProp("glob pattern, e.g. \"*.md\" or \"Folder/**\""),
			"path":    strProp("optional path prefix to scope the search"),
		}),
	},
	{
		Name:        "grep",
		Description: "Search document contents with a regular expression.",
		InputSchema: schema([]string{"pattern"}, map[string]any{
			"pattern":     strProp("regular expression"),
			"path":        strProp("optional path prefix to scope the search"),
			"output_mode": strProp("files_with_matches | count | content, default content"),
			"-i":          boolProp("case-insensitive match"),
			"-A":          intProp("lines of context after a match"),
			"-B":          intProp("lines of context before a match"),
			"-C":          intProp("lines of context before and after a match"),
			"head_limit":  intProp("cap the number of output lines"),
		}),
	},
	{
		Name:        "get_links",
		Description: "Show a document's backlinks and forward links.",
		InputSchema: schema([]string{"file_path"}, map[string]any{
			"file_path": strProp("path of the document"),
		}),
	},
	{
		Name:        "edit",
		Description: "Replace the first unique occurrence of old_string with new_string, wrapped as a reviewable suggestion.",
		InputSchema: schema([]string{"file_path", "old_string", "new_string", "session_id"}, map[string]any{
			"file_path":  strProp("path of the document to edit"),
			"old_string": strProp("exact text to replace; must be unique in the document"),
			"new_string": strProp("replacement text"),
			"session_id": strProp("MCP session id, must have read this document first"),
		}),
	},
	{
		Name:        "ls",
		Description: "List documents directly under a folder path.",
		InputSchema: schema(nil, map[string]any{
			"path": strProp("folder path to list, empty for the root"),
		}),
	},
}
