// Package skill emits SKILL.md files describing generated tool stubs, so
// agent tooling can discover which servers exist and when to reach for them.
package skill

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/mcpgen/mcpgen/codegen"
	"github.com/mcpgen/mcpgen/schema"
)

// Server pairs an endpoint with its fetched tool listing.
type Server struct {
	Name  string
	URL   string
	Tools []schema.Tool
}

// Generator writes skill files under OutputDir (".claude/skills" by default).
type Generator struct {
	fs        afs.Service
	OutputDir string
}

// New creates a skill generator.
func New(outputDir string) *Generator {
	if outputDir == "" {
		outputDir = ".claude/skills"
	}
	return &Generator{fs: afs.New(), OutputDir: outputDir}
}

// Generate writes one skill directory for the server and returns its URL.
func (g *Generator) Generate(ctx context.Context, server *Server) (string, error) {
	content, err := Render(server)
	if err != nil {
		return "", err
	}
	skillURL := url.Join(g.OutputDir, "mcp-"+server.Name)
	if err := g.fs.Upload(ctx, url.Join(skillURL, "SKILL.md"), file.DefaultFileOsMode, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("write skill for %s: %w", server.Name, err)
	}
	return skillURL, nil
}

// GenerateMulti writes a single skill covering several servers.
func (g *Generator) GenerateMulti(ctx context.Context, servers []*Server) (string, error) {
	content, err := RenderMulti(servers)
	if err != nil {
		return "", err
	}
	skillURL := url.Join(g.OutputDir, "mcp-tools")
	if err := g.fs.Upload(ctx, url.Join(skillURL, "SKILL.md"), file.DefaultFileOsMode, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("write multi-server skill: %w", err)
	}
	return skillURL, nil
}

// category order fixes output so regeneration is stable.
var categoryOrder = []string{"weather", "traffic", "camera", "road", "location", "data", "other"}

var categoryPhrases = map[string]string{
	"weather":  "weather forecasts and conditions",
	"traffic":  "traffic flow and incidents",
	"camera":   "traffic cameras and images",
	"road":     "road conditions and information",
	"location": "location-based queries",
	"data":     "data retrieval and search",
}

// Categorize groups tools by keywords in their names and descriptions.
// Only non-empty categories appear in the result.
func Categorize(tools []schema.Tool) map[string][]schema.Tool {
	categories := map[string][]schema.Tool{}
	for _, tool := range tools {
		name := strings.ToLower(tool.Name)
		desc := ""
		if tool.Description != nil {
			desc = strings.ToLower(*tool.Description)
		}
		category := "other"
		switch {
		case strings.Contains(name, "weather") || strings.Contains(desc, "weather"):
			category = "weather"
		case strings.Contains(name, "traffic") || strings.Contains(desc, "traffic"):
			category = "traffic"
		case strings.Contains(name, "camera") || strings.Contains(desc, "camera"):
			category = "camera"
		case strings.Contains(name, "road") || strings.Contains(desc, "road"):
			category = "road"
		case strings.Contains(name, "location") || strings.Contains(name, "near") || strings.Contains(name, "geo"):
			category = "location"
		case strings.Contains(name, "get") || strings.Contains(name, "list") || strings.Contains(name, "search"):
			category = "data"
		}
		categories[category] = append(categories[category], tool)
	}
	return categories
}

// Description builds the frontmatter description with trigger words, capped
// at 1024 characters.
func Description(serverName string, categories map[string][]schema.Tool) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Access %s MCP server tools", strings.ToUpper(serverName)))
	var phrases, keywords []string
	for _, category := range categoryOrder {
		if _, ok := categories[category]; !ok {
			continue
		}
		keywords = append(keywords, category)
		if phrase, ok := categoryPhrases[category]; ok {
			phrases = append(phrases, phrase)
		}
	}
	if len(phrases) > 0 {
		parts = append(parts, " for "+strings.Join(phrases, ", "))
	}
	parts = append(parts, fmt.Sprintf(". Activates when user mentions %s", serverName))
	if len(keywords) > 0 {
		if len(keywords) > 4 {
			keywords = keywords[:4]
		}
		parts = append(parts, " or asks about "+strings.Join(keywords, ", "))
	}
	parts = append(parts, ". Tools located in servers/ directory.")
	ret := strings.Join(parts, "")
	if len(ret) > 1024 {
		ret = ret[:1024]
	}
	return ret
}

type skillModel struct {
	Name        string
	UpperName   string
	URL         string
	Description string
	Sections    []sectionModel
	ExampleTool string
	Package     string
}

type sectionModel struct {
	Title string
	Lines []string
}

var skillTemplate = template.Must(template.New("skill").Parse(`---
name: mcp-{{.Name}}
description: {{.Description}}
---

# {{.UpperName}} MCP Server Tools

This skill provides access to the {{.UpperName}} MCP server tools.

## Server Information

- **Server Name:** {{.Name}}
- **Server URL:** ` + "`{{.URL}}`" + `
- **Tools Location:** ` + "`servers/{{.Name}}/`" + `

## Available Tools
{{range .Sections}}
### {{.Title}} Tools
{{range .Lines}}
{{.}}{{end}}
{{end}}
## Quick Start

1. Search for relevant tools with the search command.
2. Import the stub package: ` + "`import \"servers/{{.Package}}\"`" + `
3. Build params: ` + "`params := &{{.Package}}.{{.ExampleTool}}Params{...}`" + `
4. Call the tool: ` + "`result, err := {{.Package}}.{{.ExampleTool}}(ctx, cli, params)`" + `

All stubs take a context and a client for ServerURL; check individual tool
files for parameter documentation.
`))

// Render produces the SKILL.md content for one server.
func Render(server *Server) (string, error) {
	if len(server.Tools) == 0 {
		return "", fmt.Errorf("no tools for server %s", server.Name)
	}
	categories := Categorize(server.Tools)
	model := skillModel{
		Name:        server.Name,
		UpperName:   strings.ToUpper(server.Name),
		URL:         server.URL,
		Description: Description(server.Name, categories),
		ExampleTool: codegen.GoName(server.Tools[0].Name),
		Package:     codegen.PackageName(server.Name),
	}
	for _, category := range categoryOrder {
		tools, ok := categories[category]
		if !ok {
			continue
		}
		section := sectionModel{Title: titleCase(category)}
		for i, tool := range tools {
			if i == 5 {
				section.Lines = append(section.Lines, fmt.Sprintf("- ...and %d more %s tools", len(tools)-5, category))
				break
			}
			desc := ""
			if tool.Description != nil {
				desc = *tool.Description
			}
			if len(desc) > 100 {
				desc = desc[:100] + "..."
			}
			section.Lines = append(section.Lines, fmt.Sprintf("- `%s`: %s", tool.Name, desc))
		}
		model.Sections = append(model.Sections, section)
	}
	var b strings.Builder
	if err := skillTemplate.Execute(&b, model); err != nil {
		return "", err
	}
	return b.String(), nil
}

var multiTemplate = template.Must(template.New("multi").Parse(`---
name: mcp-tools
description: {{.Description}}
---

# MCP Tools - Multi-Server Access

This skill provides unified access to multiple MCP servers.

## Available Servers
{{range .Servers}}
- **{{.Name}}** ({{len .Tools}} tools): {{.URL}}{{end}}

## Workflow

1. Search for tools across all servers.
2. Import the stub package for the matching server.
3. Build the params struct and call the tool with a client.

All stubs are typed, standalone, and take a context.
`))

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderMulti produces a SKILL.md covering several servers.
func RenderMulti(servers []*Server) (string, error) {
	if len(servers) == 0 {
		return "", fmt.Errorf("no servers supplied")
	}
	categorySet := map[string]bool{}
	for _, server := range servers {
		for category := range Categorize(server.Tools) {
			categorySet[category] = true
		}
	}
	var categories []string
	for category := range categorySet {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	if len(categories) > 6 {
		categories = categories[:6]
	}
	description := fmt.Sprintf(
		"Access multiple MCP servers for %s. Activates when user asks about these topics or mentions server names. Tools in servers/ directory.",
		strings.Join(categories, ", "))
	if len(description) > 1024 {
		description = description[:1024]
	}
	var b strings.Builder
	err := multiTemplate.Execute(&b, struct {
		Description string
		Servers     []*Server
	}{description, servers})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
