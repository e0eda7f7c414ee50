// Package runner executes agent-written Go programs against generated stubs
// under resource limits, with optional sandboxing and PII scrubbing of
// everything the program prints.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
)

// Request names what to execute and under which constraints. Exactly one of
// File or Code must be set.
type Request struct {
	File            string
	Code            string
	ServersDir      string
	Limits          Limits
	DisableNetwork  bool
	Firejail        bool
	FirejailProfile string
	ScrubLevel      ScrubLevel
}

// Result carries the scrubbed output of one execution.
type Result struct {
	Output    string
	ExitCode  int
	Truncated bool
}

// Service runs agent code through a local shell session.
type Service struct {
	shell     *gosh.Service
	workspace *Workspace
	logger    zerolog.Logger
}

// New creates a runner backed by a local shell and the supplied workspace.
func New(ctx context.Context, workspace *Workspace, options ...Option) (*Service, error) {
	shell, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, fmt.Errorf("open shell: %w", err)
	}
	ret := &Service{shell: shell, workspace: workspace, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Run executes the request and returns its scrubbed, size-capped output.
func (s *Service) Run(ctx context.Context, request *Request) (*Result, error) {
	command, err := s.assemble(ctx, request)
	if err != nil {
		return nil, err
	}
	scrubber := NewScrubber(request.ScrubLevel)
	s.logger.Debug().Str("command", command).Msg("executing")

	output, code, err := s.shell.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	result := &Result{ExitCode: code}
	if max := request.Limits.MaxOutput; len(output) > max {
		output = output[:max]
		result.Truncated = true
	}
	result.Output = scrubber.ScrubText(output)
	return result, nil
}

// Close releases the shell session.
func (s *Service) Close() error {
	return s.shell.Close()
}

// assemble builds the shell command: resource limits, then the program run,
// optionally wrapped in firejail. Code snippets are materialized into the
// workspace first.
func (s *Service) assemble(ctx context.Context, request *Request) (string, error) {
	request.Limits.init()
	target := request.File
	if target == "" {
		if request.Code == "" {
			return "", fmt.Errorf("either File or Code is required")
		}
		target = "main.go"
		if err := s.workspace.Write(ctx, target, request.Code); err != nil {
			return "", err
		}
		target = strings.TrimRight(s.workspace.Root, "/") + "/" + target
	}
	if !strings.HasSuffix(target, ".go") {
		return "", fmt.Errorf("only .go files can be executed, got %s", target)
	}
	run := fmt.Sprintf("go run %s", shellQuote(target))
	if request.DisableNetwork || request.Firejail {
		if !FirejailAvailable() {
			return "", fmt.Errorf("firejail is required for network isolation but is not installed")
		}
		return FirejailCommand(request.Limits.prefix()+"; "+run, request.FirejailProfile), nil
	}
	return request.Limits.prefix() + "; " + run, nil
}

// Option configures a Service.
type Option func(s *Service)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
