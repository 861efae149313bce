// Package astload decodes programs parsed by an external front end. The
// accepted document is CPython's ast module serialized as JSON or YAML: every
// node is a mapping with a "_type" key and the ast module's field names.
package astload

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/pyhost/internal/ast"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/token"
)

var errUnhandled = errors.New("unknown node type")

// node is one decoded mapping, keyed by field name.
type node struct {
	typ    string
	fields map[string]*yaml.Node
	tok    token.Token
}

type nodeCategoryDecoder func(n *node) (ast.Node, bool, error)

var nodeDecoders []nodeCategoryDecoder

func init() {
	nodeDecoders = []nodeCategoryDecoder{
		decodeStatementNodes,
		decodeControlFlowNodes,
		decodeExpressionNodes,
		decodeLiteralNodes,
	}
}

// Decode reads a Module document. Errors carry the offending node's line.
func Decode(data []byte, filePath string) (*ast.Module, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrA001, File: filePath, Message: err.Error()}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	n, err := toNode(root)
	if err == nil && n.typ != "Module" {
		err = fmt.Errorf("expected Module, got %s", n.typ)
	}
	var body []ast.Stmt
	if err == nil {
		body, err = stmtList(n, "body")
	}
	if err != nil {
		var diag *diagnostics.DiagnosticError
		if errors.As(err, &diag) {
			diag.File = filePath
			return nil, diag
		}
		return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrA001, File: filePath, Message: err.Error()}
	}
	return &ast.Module{Token: token.Token{Line: 1}, File: filePath, Body: body}, nil
}

func toNode(y *yaml.Node) (*node, error) {
	if y == nil || y.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a node mapping", lineOf(y))
	}
	n := &node{fields: make(map[string]*yaml.Node, len(y.Content)/2)}
	for i := 0; i+1 < len(y.Content); i += 2 {
		n.fields[y.Content[i].Value] = y.Content[i+1]
	}
	t, ok := n.fields["_type"]
	if !ok {
		return nil, fmt.Errorf("line %d: node without _type", y.Line)
	}
	n.typ = t.Value
	n.tok = token.Token{Lexeme: n.typ, Line: n.intField("lineno"), Column: n.intField("col_offset") + 1}
	return n, nil
}

func lineOf(y *yaml.Node) int {
	if y == nil {
		return 0
	}
	return y.Line
}

func isNull(y *yaml.Node) bool {
	return y == nil || (y.Kind == yaml.ScalarNode && y.Tag == "!!null")
}

func (n *node) fail(format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrA001, n.tok, fmt.Sprintf("%s: ", n.typ)+fmt.Sprintf(format, args...))
}

func (n *node) intField(name string) int {
	y := n.fields[name]
	if isNull(y) {
		return 0
	}
	v, _ := strconv.Atoi(y.Value)
	return v
}

func (n *node) str(name string) string {
	y := n.fields[name]
	if isNull(y) {
		return ""
	}
	return y.Value
}

func (n *node) strList(name string) ([]string, error) {
	y := n.fields[name]
	if isNull(y) {
		return nil, nil
	}
	if y.Kind != yaml.SequenceNode {
		return nil, n.fail("%s must be a list", name)
	}
	out := make([]string, len(y.Content))
	for i, c := range y.Content {
		out[i] = c.Value
	}
	return out, nil
}

func (n *node) child(name string) (*node, error) {
	y := n.fields[name]
	if isNull(y) {
		return nil, nil
	}
	c, err := toNode(y)
	if err != nil {
		return nil, n.fail("%s: %v", name, err)
	}
	if c.tok.Line == 0 {
		c.tok.Line = n.tok.Line
	}
	return c, nil
}

func (n *node) children(name string) ([]*node, error) {
	y := n.fields[name]
	if isNull(y) {
		return nil, nil
	}
	if y.Kind != yaml.SequenceNode {
		return nil, n.fail("%s must be a list", name)
	}
	out := make([]*node, len(y.Content))
	for i, item := range y.Content {
		if isNull(item) {
			continue
		}
		c, err := toNode(item)
		if err != nil {
			return nil, n.fail("%s[%d]: %v", name, i, err)
		}
		if c.tok.Line == 0 {
			c.tok.Line = n.tok.Line
		}
		out[i] = c
	}
	return out, nil
}

func decodeNode(n *node) (ast.Node, error) {
	for _, decoder := range nodeDecoders {
		decoded, handled, err := decoder(n)
		if err != nil {
			return nil, err
		}
		if handled {
			return decoded, nil
		}
	}
	return nil, n.fail("%v", errUnhandled)
}

func decodeExpr(n *node) (ast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	decoded, err := decodeNode(n)
	if err != nil {
		return nil, err
	}
	e, ok := decoded.(ast.Expr)
	if !ok {
		return nil, n.fail("expected an expression")
	}
	return e, nil
}

func decodeStmt(n *node) (ast.Stmt, error) {
	decoded, err := decodeNode(n)
	if err != nil {
		return nil, err
	}
	s, ok := decoded.(ast.Stmt)
	if !ok {
		return nil, n.fail("expected a statement")
	}
	return s, nil
}

func expr(n *node, name string) (ast.Expr, error) {
	c, err := n.child(name)
	if err != nil {
		return nil, err
	}
	return decodeExpr(c)
}

// requiredExpr is expr for fields the evaluator cannot do without.
func requiredExpr(n *node, name string) (ast.Expr, error) {
	e, err := expr(n, name)
	if err == nil && e == nil {
		err = n.fail("missing %s", name)
	}
	return e, err
}

// exprList decodes a list field. Null entries stay nil (Dict keys use them
// for ** unpacking).
func exprList(n *node, name string) ([]ast.Expr, error) {
	items, err := n.children(name)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Expr, len(items))
	for i, item := range items {
		if out[i], err = decodeExpr(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func stmtList(n *node, name string) ([]ast.Stmt, error) {
	items, err := n.children(name)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Stmt, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		s, err := decodeStmt(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func operator(n *node, name string) (ast.Operator, error) {
	c, err := n.child(name)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", n.fail("missing %s", name)
	}
	op := ast.Operator(c.typ)
	if op.Symbol() == c.typ {
		return "", n.fail("unknown operator %s", c.typ)
	}
	return op, nil
}

// constantValue converts a Constant's scalar into the values the parser
// produces. Integers beyond int64 become floats.
func constantValue(n *node) (interface{}, string, error) {
	y := n.fields["value"]
	typeName := n.str("typename")
	if isNull(y) {
		if typeName == "ellipsis" {
			return nil, typeName, nil
		}
		return nil, "NoneType", nil
	}
	if y.Kind != yaml.ScalarNode {
		return nil, "", n.fail("unsupported constant value")
	}
	tag := y.Tag
	switch typeName {
	case "int":
		tag = "!!int"
	case "float":
		tag = "!!float"
	case "str", "bytes":
		tag = "!!str"
	case "bool":
		tag = "!!bool"
	}
	switch tag {
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, "", n.fail("%v", err)
		}
		return b, "bool", nil
	case "!!int":
		if v, err := strconv.ParseInt(y.Value, 0, 64); err == nil {
			return v, "int", nil
		}
		if bi, ok := new(big.Int).SetString(y.Value, 0); ok {
			f, _ := new(big.Float).SetInt(bi).Float64()
			return f, "float", nil
		}
		return nil, "", n.fail("malformed int %q", y.Value)
	case "!!float":
		switch y.Value {
		case "inf", "Infinity", ".inf":
			return math.Inf(1), "float", nil
		case "-inf", "-Infinity", "-.inf":
			return math.Inf(-1), "float", nil
		case "nan", "NaN", ".nan":
			return math.NaN(), "float", nil
		}
		f, err := strconv.ParseFloat(y.Value, 64)
		if err != nil {
			return nil, "", n.fail("malformed float %q", y.Value)
		}
		return f, "float", nil
	}
	return y.Value, "str", nil
}
