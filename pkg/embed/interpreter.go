// Package pyhost embeds the script runtime in Go programs.
package pyhost

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/astload"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/hostbridge"
	"github.com/funvibe/pyhost/internal/hostlib"
	"github.com/funvibe/pyhost/internal/parser"
)

// Aliases for values that cross the API boundary.
type (
	Settings   = config.Settings
	ClassSpec  = hostbridge.ClassSpec
	Module     = ast.Module
	Exception  = evaluator.Exception
	FatalError = evaluator.FatalError
)

// Interpreter creates scripts that share settings and host classes. Each
// script gets its own globals, modules and at-exit registry.
type Interpreter struct {
	settings *config.Settings
	out      io.Writer
	logger   zerolog.Logger
	classes  []hostbridge.ClassSpec
	err      error
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithSettings replaces the default settings.
func WithSettings(s *config.Settings) Option {
	return func(in *Interpreter) { in.settings = s }
}

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

func WithLogger(l zerolog.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithClass exposes a Go type to scripts through hostclass and imports.
func WithClass(spec hostbridge.ClassSpec) Option {
	return func(in *Interpreter) { in.classes = append(in.classes, spec) }
}

// New creates an Interpreter. Invalid class specs are reported by the first
// Parse, LoadJSON or Exec.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		settings: config.Default(),
		out:      os.Stdout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	_, in.err = in.registry()
	return in
}

// registry builds a fresh bridge so every script owns its callback wiring.
func (in *Interpreter) registry() (*hostbridge.Registry, error) {
	reg := hostbridge.NewRegistry()
	if err := hostlib.Register(reg, in.settings.HostPackageEnabled); err != nil {
		return nil, err
	}
	for _, spec := range in.classes {
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ParseError lists the diagnostics that stopped a source from loading.
type ParseError struct {
	Diagnostics []*diagnostics.DiagnosticError
}

func (p *ParseError) Error() string {
	msgs := make([]string, len(p.Diagnostics))
	for i, d := range p.Diagnostics {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// Parse parses source into a Script ready to Exec.
func (in *Interpreter) Parse(source, filename string) (*Script, error) {
	if in.err != nil {
		return nil, in.err
	}
	m, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &ParseError{Diagnostics: diags}
	}
	return in.Load(m), nil
}

// LoadJSON decodes a serialized module in CPython ast shape.
func (in *Interpreter) LoadJSON(data []byte) (*Script, error) {
	if in.err != nil {
		return nil, in.err
	}
	m, err := astload.Decode(data, "<ast>")
	if err != nil {
		return nil, fmt.Errorf("loading AST: %w", err)
	}
	return in.Load(m), nil
}

// Load wraps an already built module. With the compiled backend selected in
// the settings the script is compiled immediately.
func (in *Interpreter) Load(m *ast.Module) *Script {
	file := m.File
	if file == "" {
		file = "<string>"
	}
	e := evaluator.New(evaluator.NewScriptState(file))
	e.Out = in.out
	e.Logger = in.logger
	e.MaxDepth = in.settings.MaxDepth

	s := &Script{module: m, eval: e, funcs: make(map[uintptr]evaluator.Object)}
	reg, err := in.registry()
	if err != nil {
		s.err = err
		return s
	}
	e.Bridge = reg
	reg.Marshaller().Call = s.callback
	s.marshaller = reg.Marshaller()
	if in.settings.Backend == config.BackendCompiled {
		s.Compile()
	}
	return s
}
