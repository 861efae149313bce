package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/funvibe/pyhost/internal/astload"
	"github.com/funvibe/pyhost/internal/backend"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/hostbridge"
	"github.com/funvibe/pyhost/internal/hostlib"
	"github.com/funvibe/pyhost/internal/lexer"
	"github.com/funvibe/pyhost/internal/parser"
	"github.com/funvibe/pyhost/internal/pipeline"
	"github.com/funvibe/pyhost/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	compile    bool
	configPath string
	astInput   bool
	dumpAST    bool
	script     string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pyhost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pyhost [--compile] [--config file] [--ast] [--dump-ast] [script]")
		fs.PrintDefaults()
	}
	opts := &options{}
	fs.BoolVar(&opts.compile, "compile", false, "run functions through the compiled backend")
	fs.StringVar(&opts.configPath, "config", "", "settings file (default: nearest pyhost.yaml)")
	fs.BoolVar(&opts.astInput, "ast", false, "the script is a JSON or YAML AST document")
	fs.BoolVar(&opts.dumpAST, "dump-ast", false, "print the parsed AST instead of running it")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.script = fs.Arg(0)
	default:
		fs.Usage()
		return nil, fmt.Errorf("expected at most one script, got %d", fs.NArg())
	}
	return opts, nil
}

// run is main without the process exit, so tests can drive it in-process.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	settings, err := loadSettings(opts)
	if err != nil {
		fmt.Fprintf(stderr, "pyhost: %s\n", err)
		return 2
	}
	logger := newLogger(settings.LogLevel, stderr).With().Str("module", utils.ExtractModuleName(opts.script)).Logger()
	log.Logger = logger

	e, err := newEvaluator(settings, logger, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "pyhost: %s\n", err)
		return 1
	}
	if opts.script == "" {
		return repl(e, settings, stdin, stdout, stderr)
	}
	return runFile(e, settings, opts, stdout, stderr)
}

func loadSettings(opts *options) (*config.Settings, error) {
	path := opts.configPath
	if path == "" {
		dir := "."
		if opts.script != "" {
			dir = utils.GetModuleDir(opts.script)
		}
		found, err := config.FindSettings(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	settings := config.Default()
	if path != "" {
		var err error
		if settings, err = config.LoadSettings(path); err != nil {
			return nil, err
		}
	}
	if err := settings.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if opts.compile {
		settings.Backend = config.BackendCompiled
	}
	return settings, nil
}

func newLogger(level string, stderr io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	w := zerolog.ConsoleWriter{Out: stderr, NoColor: !isTerminal(stderr)}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// newEvaluator wires the host library into a fresh script runtime.
func newEvaluator(settings *config.Settings, logger zerolog.Logger, stdout io.Writer) (*evaluator.Evaluator, error) {
	reg := hostbridge.NewRegistry()
	if err := hostlib.Register(reg, settings.HostPackageEnabled); err != nil {
		return nil, err
	}
	e := evaluator.New(evaluator.NewScriptState("<stdin>"))
	e.Out = stdout
	e.Logger = logger
	e.Bridge = reg
	e.MaxDepth = settings.MaxDepth
	reg.Marshaller().Call = func(fn evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
		return e.Fork().Call(fn, args, nil)
	}
	return e, nil
}

func runFile(e *evaluator.Evaluator, settings *config.Settings, opts *options, stdout, stderr io.Writer) int {
	source, err := os.ReadFile(opts.script)
	if err != nil {
		fmt.Fprintf(stderr, "pyhost: %s\n", err)
		return 1
	}
	b, err := backend.New(settings.Backend)
	if err != nil {
		fmt.Fprintf(stderr, "pyhost: %s\n", err)
		return 2
	}

	front := []pipeline.Processor{&lexer.LexerProcessor{}, &parser.ParserProcessor{}}
	if opts.astInput || config.IsASTFile(opts.script) {
		front = []pipeline.Processor{&astload.LoaderProcessor{}}
	}
	ctx := &pipeline.PipelineContext{SourceCode: string(source), FilePath: opts.script, Settings: settings}
	if opts.dumpAST {
		ctx = pipeline.New(front...).Run(ctx)
		if reportDiagnostics(ctx, stderr) {
			return 1
		}
		fmt.Fprintf(stdout, "%# v\n", pretty.Formatter(ctx.AstRoot))
		return 0
	}

	exec := backend.NewExecutionProcessor(b, e)
	ctx = pipeline.New(append(front, exec)...).Run(ctx)
	status := 0
	switch {
	case exec.Err != nil:
		reportRuntimeError(exec.Err, stderr)
		status = 1
	case reportDiagnostics(ctx, stderr):
		return 1
	}
	if err := e.RunAtExit(); err != nil {
		reportRuntimeError(err, stderr)
		status = 1
	}
	return status
}

func reportDiagnostics(ctx *pipeline.PipelineContext, stderr io.Writer) bool {
	if !ctx.HasErrors() {
		return false
	}
	for _, err := range ctx.Errors {
		fmt.Fprintf(stderr, "- %s\n", err.Error())
	}
	return true
}

func reportRuntimeError(err error, stderr io.Writer) {
	var exc *evaluator.Exception
	var fatal *evaluator.FatalError
	var text string
	switch {
	case errors.As(err, &exc):
		text = exc.FormatTraceback()
	case errors.As(err, &fatal):
		text = formatFatal(fatal)
	default:
		text = err.Error()
	}
	fmt.Fprintln(stderr, colorize(stderr, text))
}

func formatFatal(f *evaluator.FatalError) string {
	return fmt.Sprintf("Fatal error: %s (line %d, %d frames deep)", f.Message, f.Line, len(f.Traceback))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func colorize(w io.Writer, s string) string {
	if !isTerminal(w) {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}
