package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/pyhost/internal/backend"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/parser"
)

const (
	promptMain  = ">>> "
	promptCont  = "... "
	historyFile = ".pyhost_history"
)

// prompter reads one line of input. liner.State implements it for terminals.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// lineScanner reads piped input without echoing prompts.
type lineScanner struct {
	sc *bufio.Scanner
}

func (l *lineScanner) Prompt(string) (string, error) {
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.sc.Text(), nil
}

func repl(e *evaluator.Evaluator, settings *config.Settings, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{e: e, compiled: settings.Backend == config.BackendCompiled, stdout: stdout, stderr: stderr}

	var in prompter = &lineScanner{sc: bufio.NewScanner(stdin)}
	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)
		histPath := ""
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, historyFile)
			if h, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(h)
				_ = h.Close()
			}
		}
		defer func() {
			if histPath == "" {
				return
			}
			if h, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(h)
				_ = h.Close()
			}
		}()
		s.history = ln.AppendHistory
		in = ln
	}

	for {
		src, err := readChunk(in)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		s.eval(src)
	}
	if err := e.RunAtExit(); err != nil {
		reportRuntimeError(err, stderr)
		return 1
	}
	return 0
}

// readChunk reads lines until they form a complete statement.
func readChunk(in prompter) (string, error) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				return strings.Join(lines, "\n") + "\n", nil
			}
			return "", err
		}
		lines = append(lines, line)
		if !needsMore(lines) {
			return strings.Join(lines, "\n") + "\n", nil
		}
	}
}

// needsMore reports whether lines end inside a block, an open bracket or a
// backslash continuation. A block ends at the first blank line.
func needsMore(lines []string) bool {
	last := strings.TrimRight(lines[len(lines)-1], " \t")
	if strings.HasSuffix(last, "\\") {
		return true
	}
	if bracketDepth(strings.Join(lines, "\n")) > 0 {
		return true
	}
	if len(lines) == 1 {
		return strings.HasSuffix(last, ":")
	}
	return strings.TrimSpace(last) != ""
}

// bracketDepth counts unclosed brackets outside string literals and comments.
func bracketDepth(src string) int {
	depth := 0
	var quote rune
	escaped := false
	comment := false
	for _, r := range src {
		switch {
		case comment:
			if r == '\n' {
				comment = false
			}
		case quote != 0:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
		case r == '#':
			comment = true
		case r == '\'' || r == '"':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		}
	}
	return depth
}

// session runs REPL input against one script runtime.
type session struct {
	e        *evaluator.Evaluator
	compiled bool
	stdout   io.Writer
	stderr   io.Writer
	history  func(string)
}

func (s *session) eval(src string) {
	m, diags := parser.Parse(src, "<stdin>")
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(s.stderr, "- %s\n", d.Error())
		}
		return
	}
	if s.history != nil {
		s.history(strings.TrimRight(src, "\n"))
	}
	if s.compiled {
		prog := compiler.CompileModule(m, s.e.Logger)
		backend.Install(s.e, prog)
		m = prog.Module
	}
	result, err := s.e.ExecModule(m)
	if err != nil {
		reportRuntimeError(err, s.stderr)
		return
	}
	if result == evaluator.None {
		return
	}
	text, err := s.repr(result)
	if err != nil {
		reportRuntimeError(err, s.stderr)
		return
	}
	fmt.Fprintln(s.stdout, text)
}

// repr goes through the builtin so user __repr__ methods apply.
func (s *session) repr(v evaluator.Object) (string, error) {
	fn, ok, err := s.e.State.Globals.Get(config.ReprFuncName)
	if err != nil || !ok {
		return v.Inspect(), err
	}
	r, err := s.e.Call(fn, []evaluator.Object{v}, nil)
	if err != nil {
		return "", err
	}
	if str, ok := r.(*evaluator.Str); ok {
		return str.Value, nil
	}
	return r.Inspect(), nil
}
