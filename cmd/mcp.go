/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mcppresenter "github.com/josephgoksu/TaskDivider/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio so AI assistants
can build and edit a task mind map.

Tools: mindmap_generate, mindmap_expand, mindmap_select, mindmap_roles,
mindmap_update, mindmap_delete, mindmap_export.

With --file the document is loaded at startup (when it exists) and saved
after every change.

  taskdivider mcp --file Learn_Guitar_mind_map.json

The server will run until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpMarkdownResponse wraps Markdown content in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse wraps an error in an MCP tool result with IsError=true.
// Tool errors are returned in the result (not as protocol errors) so the
// client model can see them and self-correct.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return mcpFormattedErrorResponse(mcppresenter.FormatError(err.Error()))
}

// mcpFormattedErrorResponse wraps pre-formatted error text with IsError=true.
func mcpFormattedErrorResponse(formattedError string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: formattedError}},
		IsError: true,
	}, nil
}

// toolResponse converts a handler outcome into a tool result.
func toolResponse(res *mcppresenter.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	if res.Error != "" {
		return mcpFormattedErrorResponse(res.Error)
	}
	return mcpMarkdownResponse(res.Content)
}

// mcpHandler adapts a handler method to the SDK's typed tool handler.
func mcpHandler[P any](fn func(context.Context, P) (*mcppresenter.ToolResult, error)) mcpsdk.ToolHandlerFor[P, any] {
	return func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[P]) (*mcpsdk.CallToolResultFor[any], error) {
		return toolResponse(fn(ctx, params.Arguments))
	}
}

// newMCPServer registers every mindmap tool on a new server.
func newMCPServer(h *mcppresenter.Handlers) *mcpsdk.Server {
	impl := &mcpsdk.Implementation{
		Name:    "taskdivider-mcp",
		Version: version,
	}
	serverOpts := &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			fmt.Fprintf(os.Stderr, "✓ MCP connection established\n")
			if viper.GetBool("verbose") {
				fmt.Fprintf(os.Stderr, "[DEBUG] Client initialized, session %s\n", h.Session.ID)
			}
		},
	}
	server := mcpsdk.NewServer(impl, serverOpts)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolGenerate,
		Description: "Create a new task mind map for a topic, replacing the current one. Optional depth (0-3) expands every leaf that many extra levels. Returns the tree with node ids.",
	}, mcpHandler(h.HandleGenerate))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolExpand,
		Description: "Generate subtasks under one node. node is a node id or name. On failure the tree is unchanged.",
	}, mcpHandler(h.HandleExpand))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolSelect,
		Description: "Fetch a node's detailed explanation, evaluation checklist and learning links. Cached: repeated calls do not regenerate.",
	}, mcpHandler(h.HandleSelect))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolRoles,
		Description: "Generate role/responsibility assignments for a node. Requires " + mcppresenter.ToolSelect + " on the node first.",
	}, mcpHandler(h.HandleRoles))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: mcppresenter.ToolUpdate,
		Description: `Edit one node. Any of:
- name: rename (the id stays the same)
- details: replace the one-line description
- status: not_started, in_progress, done, skipped
- checklist_action add|remove|set with checklist_index (1-based) and checklist_text`,
	}, mcpHandler(h.HandleUpdate))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolDelete,
		Description: "Delete a node and all of its subtasks. The root cannot be deleted.",
	}, mcpHandler(h.HandleDelete))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcppresenter.ToolExport,
		Description: "Export the mind map as markdown (default), json or yaml.",
	}, mcpHandler(h.HandleExport))

	return server
}

func runMCPServer(cmd *cobra.Command) error {
	// NOTE: MCP uses stdio transport. stdout MUST be pure JSON-RPC.
	// All status/debug output goes to stderr only.
	fmt.Fprintln(os.Stderr, "TaskDivider MCP Server starting...")

	w, err := openWorkspace(cmd, docFile, true, false)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = w.Close() }()

	var persist func() error
	if docFile != "" {
		if exists, _ := afero.Exists(appFS, docFile); exists {
			doc, err := loadDocument(docFile)
			if err != nil {
				return err
			}
			if err := w.session.Load(doc); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Loaded %s\n", docFile)
		}
		persist = w.Save
	}

	h := mcppresenter.NewHandlers(w.session, persist, slog.Default())
	server := newMCPServer(h)
	if err := server.Run(cmd.Context(), mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
