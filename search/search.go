// Package search finds tools in a generated stub tree without loading full
// schemas: server and tool names match cheaply, summaries are read from stub
// file headers only when a deeper detail level asks for them.
package search

import (
	"bufio"
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/mcpgen/mcpgen/codegen"
)

// DetailLevel controls how much of each stub is inspected.
type DetailLevel string

const (
	DetailName  DetailLevel = "name"
	DetailBasic DetailLevel = "basic"
	DetailFull  DetailLevel = "full"
)

// ToolRef points at one generated tool stub.
type ToolRef struct {
	Server  string
	Tool    string
	URL     string
	Summary string
}

// Service searches a generated stub tree.
type Service struct {
	fs         afs.Service
	ServersDir string
}

// New creates a search service over serversDir ("servers" when empty).
func New(serversDir string) *Service {
	if serversDir == "" {
		serversDir = "servers"
	}
	return &Service{fs: afs.New(), ServersDir: serversDir}
}

// Search returns tools matching query by server name, tool name, or (at
// basic/full detail) stub summary, sorted by server then tool.
func (s *Service) Search(ctx context.Context, query string, detail DetailLevel) ([]*ToolRef, error) {
	servers, err := s.ListServers(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var results []*ToolRef
	for _, server := range servers {
		tools, err := s.ListTools(ctx, server)
		if err != nil {
			return nil, err
		}
		for _, tool := range tools {
			ref := &ToolRef{
				Server: server,
				Tool:   tool,
				URL:    url.Join(s.ServersDir, server, tool+".go"),
			}
			if strings.Contains(strings.ToLower(server), query) || strings.Contains(strings.ToLower(tool), query) {
				results = append(results, ref)
				continue
			}
			if detail == DetailBasic || detail == DetailFull {
				summary, err := s.Summary(ctx, ref)
				if err != nil {
					continue
				}
				if strings.Contains(strings.ToLower(summary), query) {
					ref.Summary = summary
					results = append(results, ref)
				}
			}
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Server != results[j].Server {
			return results[i].Server < results[j].Server
		}
		return results[i].Tool < results[j].Tool
	})
	return results, nil
}

// ListServers lists server directories in the stub tree.
func (s *Service) ListServers(ctx context.Context) ([]string, error) {
	objects, err := s.fs.List(ctx, s.ServersDir)
	if err != nil {
		return nil, err
	}
	root := strings.TrimRight(s.ServersDir, "/")
	var servers []string
	for _, object := range objects {
		name := object.Name()
		if !object.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		// listings include the listed directory itself
		if strings.HasSuffix(strings.TrimRight(object.URL(), "/"), root) {
			continue
		}
		servers = append(servers, name)
	}
	sort.Strings(servers)
	return servers, nil
}

// ListTools lists the tool stubs generated for one server.
func (s *Service) ListTools(ctx context.Context, server string) ([]string, error) {
	objects, err := s.fs.List(ctx, url.Join(s.ServersDir, server))
	if err != nil {
		return nil, err
	}
	var tools []string
	for _, object := range objects {
		name := object.Name()
		if object.IsDir() || !strings.HasSuffix(name, ".go") || name == "server.go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		tools = append(tools, strings.TrimSuffix(name, ".go"))
	}
	sort.Strings(tools)
	return tools, nil
}

// Summary extracts the one-line description from a stub's header comment
// without parsing the rest of the file.
func (s *Service) Summary(ctx context.Context, ref *ToolRef) (string, error) {
	if ref.Summary != "" {
		return ref.Summary, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, ref.URL)
	if err != nil {
		return "", err
	}
	ref.Summary = headerSummary(data)
	return ref.Summary, nil
}

// headerSummary picks the first leading comment line that carries a tool
// description, skipping the generated-code marker.
func headerSummary(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "//") {
			return ""
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if text == "" || strings.HasPrefix(text, "Code generated") {
			continue
		}
		if _, desc, found := strings.Cut(text, ": "); found {
			return desc
		}
		return text
	}
	return ""
}

// StubName reports the file stem codegen uses for a tool name, letting
// callers map discovery results back onto generated files.
func StubName(toolName string) string {
	return codegen.FileName(toolName)
}
