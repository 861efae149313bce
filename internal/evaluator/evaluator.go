package evaluator

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
)

type Evaluator struct {
	Out    io.Writer
	Logger zerolog.Logger
	// Bridge resolves host classes; nil disables hostclass and host imports.
	Bridge ForeignBridge
	State  *ScriptState
	// Plans holds compiled function plans. Nil runs every function through
	// the tree walker.
	Plans map[ast.Node]*compiler.Plan
	// MaxDepth bounds nested script calls; exceeding it is fatal.
	MaxDepth int
	// CallStack for stack traces on errors
	CallStack []CallFrame
	// CurrentFile being evaluated
	CurrentFile string

	depth       int
	activations []activation
	// exceptions being handled, innermost last, for bare raise
	handling []*Exception
}

func New(state *ScriptState) *Evaluator {
	if state == nil {
		state = NewScriptState("<string>")
	}
	return &Evaluator{
		Out:         os.Stdout,
		Logger:      zerolog.Nop(),
		State:       state,
		MaxDepth:    config.DefaultMaxDepth,
		CurrentFile: state.File,
	}
}

// Fork returns an evaluator sharing the script state, output and plans with
// its own call stack, for calls made from other goroutines.
func (e *Evaluator) Fork() *Evaluator {
	return &Evaluator{
		Out:         e.Out,
		Logger:      e.Logger,
		Bridge:      e.Bridge,
		State:       e.State,
		Plans:       e.Plans,
		MaxDepth:    e.MaxDepth,
		CurrentFile: e.CurrentFile,
	}
}

// ExecModule runs m in the script's globals. The result is the value of a
// trailing expression statement, or None.
func (e *Evaluator) ExecModule(m *ast.Module) (Object, error) {
	if m.File != "" {
		e.CurrentFile = m.File
	}
	e.Logger.Debug().Str("file", e.CurrentFile).Int("statements", len(m.Body)).Bool("compiled", e.Plans != nil).Msg("script start")
	e.CallStack = append(e.CallStack, CallFrame{Name: "<module>", File: e.CurrentFile})
	defer func() { e.CallStack = e.CallStack[:len(e.CallStack)-1] }()

	var result Object = None
	for _, s := range m.Body {
		result = None
		if es, ok := s.(*ast.ExprStmt); ok {
			e.setLine(ast.Line(s))
			v, err := e.Eval(es.Value, e.State.Globals)
			if err != nil {
				return nil, e.finish(e.annotate(err, ast.Line(s)))
			}
			result = v
			continue
		}
		if err := e.execStmt(s, e.State.Globals); err != nil {
			return nil, e.finish(err)
		}
	}
	e.Logger.Debug().Str("file", e.CurrentFile).Msg("script finished")
	return result, nil
}

func (e *Evaluator) finish(err error) error {
	switch sig := err.(type) {
	case *returnSignal:
		err = newException(SyntaxErrorClass, "'return' outside function")
	case *breakSignal, *continueSignal:
		err = newException(SyntaxErrorClass, "%s", sig.Error())
	}
	switch x := err.(type) {
	case *Exception:
		e.Logger.Debug().Str("exception", x.TypeName()).Int("line", x.Line).Msg("uncaught exception")
	case *FatalError:
		e.Logger.Debug().Str("error", x.Message).Int("line", x.Line).Msg("fatal error")
	}
	return err
}

func (e *Evaluator) setLine(line int) {
	if n := len(e.CallStack); n > 0 && line > 0 {
		e.CallStack[n-1].Line = line
	}
}

func (e *Evaluator) traceback() []CallFrame {
	return append([]CallFrame(nil), e.CallStack...)
}

// annotate records where an exception was first seen by a statement.
func (e *Evaluator) annotate(err error, line int) error {
	if exc, ok := err.(*Exception); ok && exc.Line == 0 {
		exc.Line = line
		exc.File = e.CurrentFile
		exc.Traceback = e.traceback()
	}
	return err
}

func (e *Evaluator) execStmt(s ast.Stmt, env *Environment) error {
	line := ast.Line(s)
	e.setLine(line)
	if err := e.exec(s, env); err != nil {
		return e.annotate(err, line)
	}
	return nil
}

func (e *Evaluator) execBlock(body []ast.Stmt, env *Environment) error {
	for _, s := range body {
		if err := e.execStmt(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) exec(s ast.Stmt, env *Environment) error {
	switch s := s.(type) {
	case *ast.ExprStmt:
		_, err := e.Eval(s.Value, env)
		return err
	case *ast.Assign:
		return e.execAssign(s, env)
	case *ast.AugAssign:
		return e.execAugAssign(s, env)
	case *ast.AnnAssign:
		if s.Value == nil {
			return nil
		}
		v, err := e.Eval(s.Value, env)
		if err != nil {
			return err
		}
		return e.assign(s.Target, v, env)
	case *ast.Delete:
		for _, t := range s.Targets {
			if err := e.delete(t, env); err != nil {
				return err
			}
		}
		return nil
	case *ast.FunctionDef:
		return e.execFunctionDef(s, env)
	case *ast.ClassDef:
		return e.execClassDef(s, env)
	case *ast.Return:
		var v Object = None
		if s.Value != nil {
			var err error
			if v, err = e.Eval(s.Value, env); err != nil {
				return err
			}
		}
		return &returnSignal{value: v}
	case *ast.If:
		return e.execIf(s, env)
	case *ast.While:
		return e.execWhile(s, env)
	case *ast.For:
		return e.execFor(s, env)
	case *ast.Try:
		return e.execTry(s, env)
	case *ast.With:
		return e.execWith(s, env, 0)
	case *ast.Raise:
		return e.execRaise(s, env)
	case *ast.Assert:
		return e.execAssert(s, env)
	case *ast.Import:
		return e.execImport(s, env)
	case *ast.ImportFrom:
		return e.execImportFrom(s, env)
	case *ast.Global:
		env.Declare(namesSet(s.Names), nil)
		return nil
	case *ast.Nonlocal:
		env.Declare(nil, namesSet(s.Names))
		return nil
	case *ast.Pass:
		return nil
	case *ast.Break:
		return errBreak
	case *ast.Continue:
		return errContinue
	}
	return newException(SyntaxErrorClass, "unsupported statement %T", s)
}

func namesSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
