// Package codegen turns MCP tool schemas into standalone Go stub sources.
//
// A generated stub carries one typed params struct and one call function per
// tool, plus the server URL, so agent code can invoke remote tools with
// compile-time checked arguments and without any protocol knowledge.
package codegen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mcpgen/mcpgen"
	"github.com/mcpgen/mcpgen/client"
	"github.com/mcpgen/mcpgen/schema"
)

// Fetch connects to the endpoint described by options and returns its full
// tool listing.
func Fetch(ctx context.Context, options *mcpgen.ClientOptions, clientOptions ...client.Option) ([]schema.Tool, error) {
	cli, err := mcpgen.NewClient(options, clientOptions...)
	if err != nil {
		return nil, err
	}
	defer cli.Close()
	callCtx, cancel := context.WithTimeout(ctx, options.Timeout())
	defer cancel()
	return cli.ListTools(callCtx)
}

// Module describes one generated stub package.
type Module struct {
	Package   string
	ServerURL string
	Tools     []schema.Tool
}

// Render generates the complete stub source for a module. Tools render in
// name order so regeneration against an unchanged server is byte-stable.
func Render(module *Module) (string, error) {
	if len(module.Tools) == 0 {
		return "", fmt.Errorf("no tools to generate; verify the server exposes tools")
	}
	tools := make([]schema.Tool, len(module.Tools))
	copy(tools, module.Tools)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	var b strings.Builder
	writeHeader(&b, module, tools)
	for _, tool := range tools {
		writeTool(&b, tool)
	}
	return b.String(), nil
}

// ToolsHash fingerprints a tool set for change detection; regenerating
// against an unchanged server yields the same hash.
func ToolsHash(tools []schema.Tool) string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name+":"+description(tool))
	}
	sort.Strings(names)
	sum := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return hex.EncodeToString(sum[:])[:16]
}

func writeHeader(b *strings.Builder, module *Module, tools []schema.Tool) {
	fmt.Fprintf(b, "// Code generated by mcpgen. DO NOT EDIT.\n")
	fmt.Fprintf(b, "// source: %s\n", module.ServerURL)
	fmt.Fprintf(b, "// tools: %s\n\n", ToolsHash(tools))
	fmt.Fprintf(b, "package %s\n\n", PackageName(module.Package))
	b.WriteString("import (\n")
	b.WriteString("\t\"context\"\n")
	b.WriteString("\t\"encoding/json\"\n")
	b.WriteString("\t\"fmt\"\n\n")
	b.WriteString("\t\"github.com/mcpgen/mcpgen/client\"\n")
	b.WriteString("\t\"github.com/mcpgen/mcpgen/schema\"\n")
	b.WriteString(")\n\n")
	fmt.Fprintf(b, "// ServerURL is the endpoint these stubs were generated from.\nconst ServerURL = %q\n\n", module.ServerURL)
	b.WriteString("func callTool(ctx context.Context, cli client.Interface, name string, params any) (string, error) {\n")
	b.WriteString("\tdata, err := json.Marshal(params)\n")
	b.WriteString("\tif err != nil {\n\t\treturn \"\", err\n\t}\n")
	b.WriteString("\targuments := map[string]any{}\n")
	b.WriteString("\tif err := json.Unmarshal(data, &arguments); err != nil {\n\t\treturn \"\", err\n\t}\n")
	b.WriteString("\tresult, err := cli.CallTool(ctx, &schema.CallToolRequestParams{Name: name, Arguments: arguments})\n")
	b.WriteString("\tif err != nil {\n\t\treturn \"\", err\n\t}\n")
	b.WriteString("\tfor _, elem := range result.Content {\n")
	b.WriteString("\t\tif elem.Text != \"\" {\n\t\t\treturn elem.Text, nil\n\t\t}\n")
	b.WriteString("\t\tif elem.Data != \"\" {\n\t\t\treturn elem.Data, nil\n\t\t}\n")
	b.WriteString("\t}\n")
	b.WriteString("\tencoded, err := json.Marshal(result)\n")
	b.WriteString("\tif err != nil {\n\t\treturn \"\", fmt.Errorf(\"encode result: %w\", err)\n\t}\n")
	b.WriteString("\treturn string(encoded), nil\n")
	b.WriteString("}\n\n")
}

func writeTool(b *strings.Builder, tool schema.Tool) {
	goName := GoName(tool.Name)
	if desc := description(tool); desc != "" {
		fmt.Fprintf(b, "// %sParams holds arguments for %s: %s\n", goName, tool.Name, firstLine(desc))
	}
	fmt.Fprintf(b, "type %sParams struct {\n", goName)
	keys := make([]string, 0, len(tool.InputSchema.Properties))
	for key := range tool.InputSchema.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	required := map[string]bool{}
	for _, key := range tool.InputSchema.Required {
		required[key] = true
	}
	for _, key := range keys {
		goType := goTypeFor(tool.InputSchema.Properties[key])
		if required[key] {
			fmt.Fprintf(b, "\t%s %s `json:%q`\n", GoName(key), goType, key)
		} else {
			fmt.Fprintf(b, "\t%s *%s `json:%q`\n", GoName(key), goType, key+",omitempty")
		}
	}
	b.WriteString("}\n\n")
	if desc := description(tool); desc != "" {
		fmt.Fprintf(b, "// %s invokes the %s tool. %s\n", goName, tool.Name, firstLine(desc))
	} else {
		fmt.Fprintf(b, "// %s invokes the %s tool.\n", goName, tool.Name)
	}
	fmt.Fprintf(b, "func %s(ctx context.Context, cli client.Interface, params *%sParams) (string, error) {\n", goName, goName)
	fmt.Fprintf(b, "\treturn callTool(ctx, cli, %q, params)\n", tool.Name)
	b.WriteString("}\n\n")
}

// goTypeFor maps a JSON schema property to a Go type. Unknown shapes decay to
// json.RawMessage so the stub still compiles against any schema.
func goTypeFor(raw []byte) string {
	var spec struct {
		Type  string `json:"type"`
		Enum  []any  `json:"enum"`
		Items *struct {
			Type string `json:"type"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return "json.RawMessage"
	}
	if len(spec.Enum) > 0 {
		return "string"
	}
	switch spec.Type {
	case "string":
		return "string"
	case "number":
		return "float64"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]any"
	case "array":
		if spec.Items != nil {
			switch spec.Items.Type {
			case "string":
				return "[]string"
			case "number":
				return "[]float64"
			case "integer":
				return "[]int"
			case "boolean":
				return "[]bool"
			}
		}
		return "[]any"
	}
	return "json.RawMessage"
}

func description(tool schema.Tool) string {
	if tool.Description == nil {
		return ""
	}
	return *tool.Description
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
