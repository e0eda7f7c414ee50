package codegen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/mcpgen/mcpgen/schema"
)

// Layout writes stubs as a per-server directory tree: one file per tool plus
// an index file carrying the server URL and the shared call helper. Small
// per-tool files let agent code load only the tools it needs.
type Layout struct {
	fs        afs.Service
	OutputDir string
}

// NewLayout creates a layout generator rooted at outputDir ("servers" when
// empty).
func NewLayout(outputDir string) *Layout {
	if outputDir == "" {
		outputDir = "servers"
	}
	return &Layout{fs: afs.New(), OutputDir: outputDir}
}

// Generate writes the directory tree for one server. Existing files are
// overwritten; regeneration against an unchanged server is byte-stable.
func (l *Layout) Generate(ctx context.Context, serverName, serverURL string, tools []schema.Tool) error {
	if len(tools) == 0 {
		return fmt.Errorf("no tools to generate for %s", serverName)
	}
	sorted := make([]schema.Tool, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	pkg := PackageName(serverName)
	baseURL := url.Join(l.OutputDir, serverName)

	index := renderIndex(pkg, serverURL, sorted)
	if err := l.fs.Upload(ctx, url.Join(baseURL, "server.go"), file.DefaultFileOsMode, strings.NewReader(index)); err != nil {
		return fmt.Errorf("write index for %s: %w", serverName, err)
	}
	for _, tool := range sorted {
		source := renderToolFile(pkg, tool)
		name := FileName(tool.Name) + ".go"
		if err := l.fs.Upload(ctx, url.Join(baseURL, name), file.DefaultFileOsMode, strings.NewReader(source)); err != nil {
			return fmt.Errorf("write %s for %s: %w", name, serverName, err)
		}
	}
	return nil
}

// FileName converts a tool name into its stub file name.
func FileName(toolName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(toolName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ' || r == '/':
			b.WriteRune('_')
		case r == '_':
			b.WriteRune('_')
		}
	}
	ret := strings.Trim(b.String(), "_")
	if ret == "" {
		return "tool"
	}
	return ret
}

func renderIndex(pkg, serverURL string, tools []schema.Tool) string {
	var b strings.Builder
	writeHeader(&b, &Module{Package: pkg, ServerURL: serverURL}, tools)
	b.WriteString("// Tools lists every tool this package wraps.\nvar Tools = []string{\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "\t%q,\n", tool.Name)
	}
	b.WriteString("}\n")
	return b.String()
}

func renderToolFile(pkg string, tool schema.Tool) string {
	var body strings.Builder
	writeTool(&body, tool)

	var b strings.Builder
	b.WriteString("// Code generated by mcpgen. DO NOT EDIT.\n")
	if desc := description(tool); desc != "" {
		fmt.Fprintf(&b, "// %s: %s\n", tool.Name, firstLine(desc))
	}
	fmt.Fprintf(&b, "\npackage %s\n\n", pkg)
	b.WriteString("import (\n\t\"context\"\n")
	if strings.Contains(body.String(), "json.RawMessage") {
		b.WriteString("\t\"encoding/json\"\n")
	}
	b.WriteString("\n\t\"github.com/mcpgen/mcpgen/client\"\n)\n\n")
	b.WriteString(body.String())
	return b.String()
}
