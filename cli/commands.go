package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mcpgen/mcpgen"
	"github.com/mcpgen/mcpgen/client"
	"github.com/mcpgen/mcpgen/codegen"
	"github.com/mcpgen/mcpgen/runner"
	"github.com/mcpgen/mcpgen/schema"
	"github.com/mcpgen/mcpgen/search"
	"github.com/mcpgen/mcpgen/skill"
)

func (o *endpointOptions) clientOptions() *mcpgen.ClientOptions {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = int(envSeconds("MCP_TIMEOUT", 7*time.Second) / time.Second)
	}
	return &mcpgen.ClientOptions{
		URL:        o.URL,
		Transport:  o.Transport,
		Headers:    o.Header,
		TimeoutSec: timeout,
	}
}

func (o *endpointOptions) validate() error {
	return validateURL(o.URL, o.AllowLocal, o.Transport != "")
}

func (o *endpointOptions) dial() (*client.Client, *mcpgen.ClientOptions, error) {
	if err := o.validate(); err != nil {
		return nil, nil, err
	}
	options := o.clientOptions()
	cli, err := mcpgen.NewClient(options, client.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return cli, options, nil
}

// LsCmd lists the tools a server advertises.
type LsCmd struct {
	endpointOptions
	JSON bool `long:"json" description:"emit the raw tool schemas as JSON"`
}

func (c *LsCmd) Execute(args []string) error {
	cli, options, err := c.dial()
	if err != nil {
		return err
	}
	defer cli.Close()
	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout())
	defer cancel()
	tools, err := cli.ListTools(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(tools)
	}
	fmt.Println("Tools:")
	for _, tool := range tools {
		desc := ""
		if tool.Description != nil {
			desc = *tool.Description
		}
		params := make([]string, 0, len(tool.InputSchema.Properties))
		for key := range tool.InputSchema.Properties {
			params = append(params, key)
		}
		sort.Strings(params)
		if len(params) > 0 {
			fmt.Printf(" - %s: %s (params: %s)\n", tool.Name, desc, strings.Join(params, ", "))
		} else {
			fmt.Printf(" - %s: %s\n", tool.Name, desc)
		}
	}
	return nil
}

// GenCmd generates Go stubs for a server's tools.
type GenCmd struct {
	endpointOptions
	Out       string `short:"o" long:"out" description:"output file for single-module output"`
	Name      string `long:"name" default:"mcpstub" description:"stub package name"`
	FsLayout  bool   `long:"fs-layout" description:"emit per-tool files under the servers directory"`
	OutputDir string `long:"output-dir" default:"servers" description:"output directory for --fs-layout"`
	Skill     bool   `long:"generate-skill" description:"also emit a SKILL.md for the server"`
	SkillDir  string `long:"skill-dir" default:".claude/skills" description:"skill output directory"`
}

func (c *GenCmd) Execute(args []string) error {
	if !c.FsLayout && c.Out == "" {
		return fmt.Errorf("--out is required unless --fs-layout is used")
	}
	if err := c.validate(); err != nil {
		return err
	}
	options := c.clientOptions()
	ctx := context.Background()
	tools, err := codegen.Fetch(ctx, options, client.WithLogger(logger))
	if err != nil {
		return err
	}
	if c.FsLayout {
		layout := codegen.NewLayout(c.OutputDir)
		if err := layout.Generate(ctx, c.Name, c.URL, tools); err != nil {
			return err
		}
		fmt.Printf("Wrote stubs for %d tools to %s/%s\n", len(tools), c.OutputDir, c.Name)
	} else {
		source, err := codegen.Render(&codegen.Module{Package: c.Name, ServerURL: c.URL, Tools: tools})
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.Out, []byte(source), 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote stub to %s\n", c.Out)
	}
	if c.Skill {
		generator := skill.New(c.SkillDir)
		skillURL, err := generator.Generate(ctx, &skill.Server{Name: c.Name, URL: c.URL, Tools: tools})
		if err != nil {
			return err
		}
		fmt.Printf("Generated skill at %s\n", skillURL)
	}
	return nil
}

// CallCmd invokes a single tool without generating code.
type CallCmd struct {
	endpointOptions
	Tool string   `long:"tool" description:"tool name" required:"true"`
	Args []string `short:"a" long:"arg" description:"tool argument as key=value, repeatable"`
	JSON bool     `long:"json" description:"emit the raw result as JSON"`
}

func (c *CallCmd) Execute(args []string) error {
	arguments, err := parseArguments(c.Args)
	if err != nil {
		return err
	}
	cli, options, err := c.dial()
	if err != nil {
		return err
	}
	defer cli.Close()
	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout())
	defer cancel()
	result, err := cli.CallTool(ctx, &schema.CallToolRequestParams{Name: c.Tool, Arguments: arguments})
	if err != nil {
		return err
	}
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	for _, elem := range result.Content {
		if elem.Text != "" {
			fmt.Println(elem.Text)
			continue
		}
		encoded, _ := json.MarshalIndent(elem, "", "  ")
		fmt.Println(string(encoded))
	}
	return nil
}

// parseArguments turns repeated key=value flags into a tool argument map.
// Values parse as JSON when possible, so numbers, booleans, arrays and
// objects come through typed; everything else stays a string.
func parseArguments(pairs []string) (map[string]any, error) {
	arguments := map[string]any{}
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("--arg must be key=value, got %q", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		arguments[key] = value
	}
	return arguments, nil
}

// SearchCmd searches generated stub trees.
type SearchCmd struct {
	ServersDir string `long:"servers-dir" default:"servers" description:"directory holding generated stubs"`
	Detail     string `long:"detail" default:"basic" choice:"name" choice:"basic" choice:"full" description:"match depth"`
	Positional struct {
		Query string `positional-arg-name:"query" required:"true"`
	} `positional-args:"true"`
}

func (c *SearchCmd) Execute(args []string) error {
	service := search.New(c.ServersDir)
	ctx := context.Background()
	refs, err := service.Search(ctx, c.Positional.Query, search.DetailLevel(c.Detail))
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Printf("No tools found matching: %s\n", c.Positional.Query)
		return nil
	}
	fmt.Printf("Found %d tool(s) matching %q:\n\n", len(refs), c.Positional.Query)
	for _, ref := range refs {
		fmt.Printf("  %s/%s\n", ref.Server, ref.Tool)
		if summary, err := service.Summary(ctx, ref); err == nil && summary != "" {
			fmt.Printf("    %s\n", summary)
		}
	}
	return nil
}

// RunCmd executes agent code under resource limits.
type RunCmd struct {
	File           string `short:"f" long:"file" description:"Go file to execute"`
	Code           string `long:"code" description:"Go source to execute, alternative to --file"`
	ServersDir     string `long:"servers-dir" default:"servers" description:"directory holding generated stubs"`
	Workspace      string `long:"workspace" default:".workspace" description:"scratch directory for outputs"`
	CPUSeconds     int    `long:"cpu-seconds" default:"10" description:"CPU time limit"`
	MemoryMB       int    `long:"memory-mb" default:"512" description:"memory limit in MB"`
	DisableNetwork bool   `long:"disable-network" description:"block network access (requires firejail)"`
	Firejail       bool   `long:"firejail" description:"wrap execution in a firejail sandbox"`
	Scrub          string `long:"scrub" default:"basic" choice:"basic" choice:"strict" description:"PII scrubbing level"`
}

func (c *RunCmd) Execute(args []string) error {
	ctx := context.Background()
	workspace := runner.NewWorkspace(c.Workspace)
	service, err := runner.New(ctx, workspace, runner.WithLogger(logger))
	if err != nil {
		return err
	}
	defer service.Close()
	result, err := service.Run(ctx, &runner.Request{
		File:           c.File,
		Code:           c.Code,
		ServersDir:     c.ServersDir,
		Limits:         runner.Limits{CPUSeconds: c.CPUSeconds, MemoryMB: c.MemoryMB},
		DisableNetwork: c.DisableNetwork,
		Firejail:       c.Firejail,
		ScrubLevel:     runner.ScrubLevel(c.Scrub),
	})
	if err != nil {
		return err
	}
	fmt.Print(result.Output)
	if result.Truncated {
		fmt.Fprintln(os.Stderr, "[output truncated]")
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("exit code %d", result.ExitCode)
	}
	return nil
}
