package skill

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpgen/mcpgen/schema"
)

func strPtr(s string) *string { return &s }

func tool(name, description string) schema.Tool {
	ret := schema.Tool{Name: name, InputSchema: schema.ToolInputSchema{Type: "object"}}
	if description != "" {
		ret.Description = strPtr(description)
	}
	return ret
}

func TestCategorize(t *testing.T) {
	tools := []schema.Tool{
		tool("get_weather", "Current conditions"),
		tool("forecast", "Weather for the coming days"),
		tool("traffic_jams", ""),
		tool("list_cameras", "Camera snapshots"),
		tool("road_works", ""),
		tool("find_nearby", ""),
		tool("get_records", ""),
		tool("obscure", ""),
	}
	categories := Categorize(tools)

	names := func(category string) []string {
		var ret []string
		for _, tool := range categories[category] {
			ret = append(ret, tool.Name)
		}
		return ret
	}
	assert.Equal(t, []string{"get_weather", "forecast"}, names("weather"))
	assert.Equal(t, []string{"traffic_jams"}, names("traffic"))
	assert.Equal(t, []string{"list_cameras"}, names("camera"))
	assert.Equal(t, []string{"road_works"}, names("road"))
	assert.Equal(t, []string{"find_nearby"}, names("location"))
	assert.Equal(t, []string{"get_records"}, names("data"))
	assert.Equal(t, []string{"obscure"}, names("other"))
}

func TestDescription(t *testing.T) {
	categories := Categorize([]schema.Tool{
		tool("get_weather", ""),
		tool("traffic_flow", ""),
	})
	description := Description("ndw", categories)
	assert.Contains(t, description, "Access NDW MCP server tools")
	assert.Contains(t, description, "weather forecasts and conditions")
	assert.Contains(t, description, "traffic flow and incidents")
	assert.Contains(t, description, "Activates when user mentions ndw")
	assert.Contains(t, description, "servers/ directory")
	assert.LessOrEqual(t, len(description), 1024)
}

func TestDescriptionCapped(t *testing.T) {
	longName := strings.Repeat("verylongservername", 100)
	description := Description(longName, nil)
	assert.Len(t, description, 1024)
}

func TestRender(t *testing.T) {
	server := &Server{
		Name: "ndw",
		URL:  "https://mcp.ndw.example/mcp",
		Tools: []schema.Tool{
			tool("get_weather", "Current weather conditions"),
			tool("traffic_flow", "Live traffic speeds"),
		},
	}
	content, err := Render(server)
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "---\nname: mcp-ndw\n"), "frontmatter must open the file")
	assert.Contains(t, content, "# NDW MCP Server Tools")
	assert.Contains(t, content, "`https://mcp.ndw.example/mcp`")
	assert.Contains(t, content, "### Weather Tools")
	assert.Contains(t, content, "- `get_weather`: Current weather conditions")
	assert.Contains(t, content, "### Traffic Tools")
	// The quick start references the generated stub identifiers.
	assert.Contains(t, content, "ndw.GetWeatherParams{")
}

func TestRenderTruncatesLongSections(t *testing.T) {
	server := &Server{Name: "big", URL: "https://example.com"}
	for i := 0; i < 8; i++ {
		server.Tools = append(server.Tools, tool("get_weather_"+string(rune('a'+i)), ""))
	}
	content, err := Render(server)
	assert.NoError(t, err)
	assert.Contains(t, content, "- ...and 3 more weather tools")
}

func TestRenderNoTools(t *testing.T) {
	_, err := Render(&Server{Name: "empty"})
	assert.ErrorContains(t, err, "no tools")
}

func TestRenderMulti(t *testing.T) {
	servers := []*Server{
		{Name: "ndw", URL: "https://ndw.example", Tools: []schema.Tool{tool("traffic_flow", "")}},
		{Name: "knmi", URL: "https://knmi.example", Tools: []schema.Tool{tool("get_weather", "")}},
	}
	content, err := RenderMulti(servers)
	assert.NoError(t, err)
	assert.Contains(t, content, "name: mcp-tools")
	assert.Contains(t, content, "traffic, weather")
	assert.Contains(t, content, "**ndw** (1 tools): https://ndw.example")
	assert.Contains(t, content, "**knmi** (1 tools): https://knmi.example")

	_, err = RenderMulti(nil)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	baseDir := t.TempDir()
	generator := New(baseDir)
	server := &Server{
		Name:  "ndw",
		URL:   "https://mcp.ndw.example/mcp",
		Tools: []schema.Tool{tool("get_weather", "Current conditions")},
	}
	skillURL, err := generator.Generate(context.Background(), server)
	assert.NoError(t, err)
	assert.Contains(t, skillURL, "mcp-ndw")

	content, err := os.ReadFile(filepath.Join(baseDir, "mcp-ndw", "SKILL.md"))
	assert.NoError(t, err)
	assert.Contains(t, string(content), "name: mcp-ndw")
}
