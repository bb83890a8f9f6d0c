package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/mcp-gmail-server/internal/config"
	"github.com/teemow/mcp-gmail-server/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference of every registered MCP tool, read from the
tool definitions themselves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := registeredTools()
			if err != nil {
				return err
			}
			md := generateToolsMarkdown(tools)

			if outputFile == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(md), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// registeredTools builds the server the serve command would build and lists
// its tools. Listing needs no credentials.
func registeredTools() ([]mcp.Tool, error) {
	cfg, err := config.Process()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	sc := server.NewServerContext(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc, cfg)
	if err != nil {
		return nil, err
	}
	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return tools, nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		c := getCategoryFromToolName(tool.Name)
		byCategory[c] = append(byCategory[c], tool)
	}
	categories := slices.Sorted(maps.Keys(byCategory))

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools served by mcp-gmail-server. This file is generated by `mcp-gmail-server generate-docs`.\n\n")
	sb.WriteString("All tools are read-only. Results are JSON text; failures are returned as tool errors whose text is `{\"error\": \"...\"}`.\n\n")

	for _, c := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
	}
	sb.WriteString("\n")

	for _, c := range categories {
		fmt.Fprintf(&sb, "## %s\n\n", c)
		group := byCategory[c]
		slices.SortFunc(group, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })
		for _, tool := range group {
			writeToolMarkdown(&sb, tool)
		}
	}
	return sb.String()
}

// getCategoryFromToolName maps the tool namespace, the part before the first
// "." (or "_"), to a section title.
func getCategoryFromToolName(name string) string {
	prefix, _, found := strings.Cut(name, ".")
	if !found {
		prefix, _, _ = strings.Cut(name, "_")
	}
	if prefix == "gmail" {
		return "Gmail Tools"
	}
	return "Other"
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}
	if len(tool.InputSchema.Properties) == 0 {
		return
	}

	sb.WriteString("| Argument | Type | Required | Default | Description |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, name := range slices.Sorted(maps.Keys(tool.InputSchema.Properties)) {
		prop, ok := tool.InputSchema.Properties[name].(map[string]any)
		if !ok {
			continue
		}
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		def := ""
		if v, ok := prop["default"]; ok {
			def = fmt.Sprintf("`%v`", v)
		}
		desc, _ := prop["description"].(string)
		fmt.Fprintf(sb, "| `%s` | %s | %s | %s | %s |\n",
			name, propertyType(prop), required, def, strings.ReplaceAll(desc, "|", `\|`))
	}
	sb.WriteString("\n")
}

func propertyType(prop map[string]any) string {
	t, ok := prop["type"].(string)
	if !ok {
		return "any"
	}
	if t == "array" {
		if items, ok := prop["items"].(map[string]any); ok {
			if it, ok := items["type"].(string); ok {
				return it + "[]"
			}
		}
	}
	return t
}
