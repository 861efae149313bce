package backend_test

import (
	"fmt"
	"strings"
)

// byteSource turns fuzz input into choices. Exhausted input always picks 0.
type byteSource struct {
	data []byte
	pos  int
}

func (s *byteSource) intn(n int) int {
	if n <= 0 || s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// programGen writes small scripts that stress name resolution: shadowed
// globals, global and nonlocal declarations, closures and comprehensions.
// Nested functions take no parameters so nonlocal always names an enclosing
// local.
type programGen struct {
	src   *byteSource
	b     strings.Builder
	loops int
}

const (
	genMaxStatements = 4
	genMaxDepth      = 2
)

func generateProgram(data []byte) string {
	g := &programGen{src: &byteSource{data: data}}
	for _, name := range []string{"a", "b", "c", "n"} {
		g.line(0, "%s = %d", name, g.src.intn(10))
	}
	funcs := g.src.intn(3) + 1
	for i := 0; i < funcs; i++ {
		g.function(0, fmt.Sprintf("f%d", i), 0)
	}
	for i := 0; i < funcs; i++ {
		g.line(0, "print(f%d(%s, %s))", i, g.expr(0), g.expr(0))
	}
	g.line(0, "print(a, b, c, n)")
	return g.b.String()
}

func (g *programGen) line(indent int, format string, args ...interface{}) {
	g.b.WriteString(strings.Repeat("    ", indent))
	fmt.Fprintf(&g.b, format, args...)
	g.b.WriteByte('\n')
}

func (g *programGen) function(indent int, name string, depth int) {
	params := "p, q"
	if depth > 0 {
		params = ""
	}
	g.line(indent, "def %s(%s):", name, params)
	switch g.src.intn(4) {
	case 0:
		g.line(indent+1, "global c")
	case 1:
		if depth > 0 {
			g.line(indent+1, "nonlocal p")
		}
	}
	count := g.src.intn(genMaxStatements) + 1
	for i := 0; i < count; i++ {
		g.statement(indent+1, depth)
	}
	g.line(indent+1, "return %s", g.expr(0))
}

func (g *programGen) statement(indent, depth int) {
	target := []string{"a", "b", "c", "p", "q"}[g.src.intn(5)]
	switch g.src.intn(8) {
	case 0, 1:
		g.line(indent, "%s = %s", target, g.expr(0))
	case 2:
		g.line(indent, "%s += %s", target, g.expr(0))
	case 3:
		g.line(indent, "for i in range(%d):", g.src.intn(4))
		g.loops++
		g.statement(indent+1, depth)
		g.loops--
	case 4:
		g.line(indent, "if %s > %s:", g.expr(0), g.expr(0))
		g.statement(indent+1, depth)
		g.line(indent, "else:")
		g.statement(indent+1, depth)
	case 5:
		if depth >= genMaxDepth {
			g.line(indent, "pass")
			return
		}
		g.function(indent, "inner", depth+1)
		g.line(indent, "%s = inner()", target)
	case 6:
		g.line(indent, "%s = sum([%s for i in range(3)])", target, g.exprWith("i"))
	case 7:
		g.line(indent, "g = lambda v: %s", g.exprWith("v"))
		g.line(indent, "%s = g(%s)", target, g.expr(0))
	}
}

func (g *programGen) exprWith(extra string) string {
	if g.src.intn(2) == 0 {
		return extra
	}
	return fmt.Sprintf("%s + %s", extra, g.expr(genMaxDepth))
}

func (g *programGen) expr(depth int) string {
	names := []string{"a", "b", "c", "n", "p", "q"}
	if g.loops > 0 {
		names = append(names, "i")
	}
	if depth >= genMaxDepth {
		if g.src.intn(2) == 0 {
			return fmt.Sprint(g.src.intn(7))
		}
		return names[g.src.intn(len(names))]
	}
	switch g.src.intn(4) {
	case 0:
		return fmt.Sprint(g.src.intn(7))
	case 1:
		return names[g.src.intn(len(names))]
	}
	op := []string{"+", "-", "*", "//", "%"}[g.src.intn(5)]
	return fmt.Sprintf("(%s %s %s)", g.expr(depth+1), op, g.expr(depth+1))
}
