// Package ast defines the abstract syntax tree the evaluator consumes.
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/quillsh/quill/pkg/quill/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// BlockStatement represents a brace-delimited list of statements.
type BlockStatement struct {
	Token      lexer.Token // the '{' token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, s := range bs.Statements {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// LetStatement represents 'let $x = expr' (the sigil is optional).
type LetStatement struct {
	Token lexer.Token // the 'let' token
	Name  string
	Value Statement // a pipeline or other value-producing statement
}

func (ls *LetStatement) statementNode()       {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LetStatement) String() string {
	return fmt.Sprintf("let $%s = %s", ls.Name, ls.Value.String())
}

// Param is one declared parameter of a command.
type Param struct {
	Name string
	Rest bool // '...name' collects remaining positionals into a list
}

// DefStatement represents 'def name [params] { body }'.
type DefStatement struct {
	Token  lexer.Token // the 'def' token
	Name   string      // may contain spaces: def "foo bar" [] { }
	Params []Param
	Body   *BlockStatement
	Export bool
}

func (ds *DefStatement) statementNode()       {}
func (ds *DefStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DefStatement) String() string {
	var out bytes.Buffer
	if ds.Export {
		out.WriteString("export ")
	}
	out.WriteString("def ")
	out.WriteString(ds.Name)
	out.WriteString(" [")
	for i, p := range ds.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		if p.Rest {
			out.WriteString("...")
		}
		out.WriteString("$" + p.Name)
	}
	out.WriteString("] ")
	out.WriteString(ds.Body.String())
	return out.String()
}

// AliasStatement represents 'alias f = target args...'. The bound
// arguments stay unevaluated until the alias is invoked.
type AliasStatement struct {
	Token     lexer.Token // the 'alias' token
	Name      string
	Target    []string // target command name parts
	BoundArgs []Expression
}

func (as *AliasStatement) statementNode()       {}
func (as *AliasStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AliasStatement) String() string {
	var out bytes.Buffer
	out.WriteString("alias ")
	out.WriteString(as.Name)
	out.WriteString(" = ")
	out.WriteString(strings.Join(as.Target, " "))
	for _, a := range as.BoundArgs {
		out.WriteString(" ")
		out.WriteString(a.String())
	}
	return out.String()
}

// ModuleStatement represents 'module name { decls }'.
type ModuleStatement struct {
	Token lexer.Token // the 'module' token
	Name  string
	Body  *BlockStatement
}

func (ms *ModuleStatement) statementNode()       {}
func (ms *ModuleStatement) TokenLiteral() string { return ms.Token.Literal }
func (ms *ModuleStatement) String() string {
	return fmt.Sprintf("module %s %s", ms.Name, ms.Body.String())
}

// ImportSelector describes which exports a use/hide path names.
type ImportSelector int

const (
	ImportModule ImportSelector = iota // use M        (qualified M.cmd bindings)
	ImportSingle                       // use M.cmd    (one bare binding)
	ImportAll                          // use M.*      (every export, bare)
	ImportNames                        // use M.[a, b] (listed exports, bare)
)

// UseStatement represents 'use M', 'use M.cmd', 'use M.*', 'use M.[a, b]'.
type UseStatement struct {
	Token    lexer.Token // the 'use' token
	Module   string
	Selector ImportSelector
	Names    []string // ImportSingle: one name; ImportNames: listed names
}

func (us *UseStatement) statementNode()       {}
func (us *UseStatement) TokenLiteral() string { return us.Token.Literal }
func (us *UseStatement) String() string {
	switch us.Selector {
	case ImportSingle:
		return fmt.Sprintf("use %s.%s", us.Module, us.Names[0])
	case ImportAll:
		return fmt.Sprintf("use %s.*", us.Module)
	case ImportNames:
		return fmt.Sprintf("use %s.[%s]", us.Module, strings.Join(us.Names, ", "))
	default:
		return fmt.Sprintf("use %s", us.Module)
	}
}

// HideStatement represents 'hide name' and the module path forms of hide.
type HideStatement struct {
	Token    lexer.Token // the 'hide' token
	Module   string      // set for the selector forms hide M.* / hide M.[a, b]
	Selector ImportSelector
	Names    []string // plain form: one (possibly dotted) name
}

func (hs *HideStatement) statementNode()       {}
func (hs *HideStatement) TokenLiteral() string { return hs.Token.Literal }
func (hs *HideStatement) String() string {
	switch hs.Selector {
	case ImportAll:
		return fmt.Sprintf("hide %s.*", hs.Module)
	case ImportNames:
		return fmt.Sprintf("hide %s.[%s]", hs.Module, strings.Join(hs.Names, ", "))
	default:
		return fmt.Sprintf("hide %s", strings.Join(hs.Names, "."))
	}
}

// IfStatement represents an if / else if / else chain.
type IfStatement struct {
	Token       lexer.Token // the 'if' token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // *IfStatement (else if), *BlockStatement (else), or nil
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" ")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}
	return out.String()
}

// ForStatement represents 'for $x in expr { body }'.
type ForStatement struct {
	Token    lexer.Token // the 'for' token
	Name     string
	Iterable Expression
	Body     *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	return fmt.Sprintf("for $%s in %s %s", fs.Name, fs.Iterable.String(), fs.Body.String())
}

// EnvStatement represents the 'FOO=BAR stmt' shorthand: an environment
// string bound for the duration of one statement.
type EnvStatement struct {
	Token lexer.Token // the name token
	Name  string
	Value Expression
	Stmt  Statement
}

func (es *EnvStatement) statementNode()       {}
func (es *EnvStatement) TokenLiteral() string { return es.Token.Literal }
func (es *EnvStatement) String() string {
	return fmt.Sprintf("%s=%s %s", es.Name, es.Value.String(), es.Stmt.String())
}

// Pipeline is a statement of pipe-separated stages. A single expression
// or call is a pipeline of one stage.
type Pipeline struct {
	Token  lexer.Token
	Stages []Expression
}

func (pl *Pipeline) statementNode()       {}
func (pl *Pipeline) TokenLiteral() string { return pl.Token.Literal }
func (pl *Pipeline) String() string {
	parts := make([]string, len(pl.Stages))
	for i, s := range pl.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

// Identifier is a bare word. In argument position it denotes a string;
// at the head of a pipeline stage it names a command.
type Identifier struct {
	Token lexer.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// Variable represents '$name'.
type Variable struct {
	Token lexer.Token
	Name  string
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Token.Literal }
func (v *Variable) String() string       { return "$" + v.Name }

// IntegerLiteral represents integer literals.
type IntegerLiteral struct {
	Token lexer.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// FloatLiteral represents floating-point literals.
type FloatLiteral struct {
	Token lexer.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

// StringLiteral represents quoted string literals.
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return fmt.Sprintf("%q", sl.Value) }

// BooleanLiteral represents '$true' and '$false'.
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string {
	if bl.Value {
		return "$true"
	}
	return "$false"
}

// ListLiteral represents '[e1, e2, ...]' (commas optional).
type ListLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	parts := make([]string, len(ll.Elements))
	for i, e := range ll.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// TableLiteral represents '[[col1, col2]; [a, 1], [b, 2]]'.
type TableLiteral struct {
	Token   lexer.Token // the outer '[' token
	Columns []Expression
	Rows    [][]Expression
}

func (tl *TableLiteral) expressionNode()      {}
func (tl *TableLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TableLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("[[")
	for i, c := range tl.Columns {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(c.String())
	}
	out.WriteString("];")
	for i, row := range tl.Rows {
		if i > 0 {
			out.WriteString(",")
		}
		out.WriteString(" [")
		for j, cell := range row {
			if j > 0 {
				out.WriteString(", ")
			}
			out.WriteString(cell.String())
		}
		out.WriteString("]")
	}
	out.WriteString("]")
	return out.String()
}

// RangeLiteral represents 'start..end' and 'start..<end'.
type RangeLiteral struct {
	Token     lexer.Token // the '..' token
	Start     Expression
	End       Expression
	Inclusive bool
}

func (rl *RangeLiteral) expressionNode()      {}
func (rl *RangeLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RangeLiteral) String() string {
	op := ".."
	if !rl.Inclusive {
		op = "..<"
	}
	return rl.Start.String() + op + rl.End.String()
}

// BlockLiteral represents '{ $it + 1 }' and '{ |y| $y + 1 }'. A block
// evaluates to a closure over the frame where it was written.
type BlockLiteral struct {
	Token lexer.Token // the '{' token
	Param string      // "" when the implicit $it is used
	Body  *BlockStatement
}

func (bl *BlockLiteral) expressionNode()      {}
func (bl *BlockLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BlockLiteral) String() string {
	if bl.Param != "" {
		return fmt.Sprintf("{ |%s| %s }", bl.Param, innerString(bl.Body))
	}
	return bl.Body.String()
}

func innerString(bs *BlockStatement) string {
	parts := make([]string, len(bs.Statements))
	for i, s := range bs.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// Subexpression represents a parenthesized statement used as an operand.
type Subexpression struct {
	Token lexer.Token // the '(' token
	Stmt  Statement
}

func (se *Subexpression) expressionNode()      {}
func (se *Subexpression) TokenLiteral() string { return se.Token.Literal }
func (se *Subexpression) String() string       { return "(" + se.Stmt.String() + ")" }

// PrefixExpression represents '-x' and '!x'.
type PrefixExpression struct {
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression represents binary operators, including 'in'/'not-in'.
type InfixExpression struct {
	Token    lexer.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// PathMember is one segment of a cell path: a column name, a list
// index, or an expression that evaluates to either.
type PathMember struct {
	Name  string
	Index int
	Expr  Expression // when set, evaluated to a name or index at runtime
	IsInt bool
}

func (pm PathMember) String() string {
	if pm.Expr != nil {
		return pm.Expr.String()
	}
	if pm.IsInt {
		return fmt.Sprintf("%d", pm.Index)
	}
	return pm.Name
}

// FullCellPath represents 'head.a.0' — a head expression addressed by
// path members.
type FullCellPath struct {
	Token lexer.Token // the '.' token
	Head  Expression
	Path  []PathMember
}

func (cp *FullCellPath) expressionNode()      {}
func (cp *FullCellPath) TokenLiteral() string { return cp.Token.Literal }
func (cp *FullCellPath) String() string {
	var out bytes.Buffer
	out.WriteString(cp.Head.String())
	for _, m := range cp.Path {
		out.WriteString(".")
		out.WriteString(m.String())
	}
	return out.String()
}

// CellPathLiteral is a bare path in argument position, e.g. 'grade.1'
// in 'get grade.1'. Members may be runtime expressions ('get $x').
type CellPathLiteral struct {
	Token   lexer.Token
	Members []PathMember
}

func (cp *CellPathLiteral) expressionNode()      {}
func (cp *CellPathLiteral) TokenLiteral() string { return cp.Token.Literal }
func (cp *CellPathLiteral) String() string {
	parts := make([]string, len(cp.Members))
	for i, m := range cp.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, ".")
}

// Flag represents a leading-dash argument like '-n'.
type Flag struct {
	Token lexer.Token
	Name  string
}

func (f *Flag) expressionNode()      {}
func (f *Flag) TokenLiteral() string { return f.Token.Literal }
func (f *Flag) String() string       { return "-" + f.Name }

// StringInterpolation represents '$"literal (expr) literal"'. Parts are
// StringLiteral fragments and parenthesized sub-statements.
type StringInterpolation struct {
	Token lexer.Token
	Parts []Expression
}

func (si *StringInterpolation) expressionNode()      {}
func (si *StringInterpolation) TokenLiteral() string { return si.Token.Literal }
func (si *StringInterpolation) String() string {
	var out bytes.Buffer
	out.WriteString(`$"`)
	for _, p := range si.Parts {
		if lit, ok := p.(*StringLiteral); ok {
			out.WriteString(lit.Value)
		} else {
			out.WriteString("(" + p.String() + ")")
		}
	}
	out.WriteString(`"`)
	return out.String()
}

// RowCondition wraps a 'where' condition. Bare column names inside it
// were rewritten to $it cell paths at parse time.
type RowCondition struct {
	Token lexer.Token
	Expr  Expression
}

func (rc *RowCondition) expressionNode()      {}
func (rc *RowCondition) TokenLiteral() string { return rc.Token.Literal }
func (rc *RowCondition) String() string       { return rc.Expr.String() }

// CommandCall represents a command invocation stage. NameParts holds the
// leading bare words; the longest prefix naming a known command wins at
// resolution time and any leftover parts become string arguments.
type CommandCall struct {
	Token     lexer.Token
	NameParts []string
	Args      []Expression
}

func (cc *CommandCall) expressionNode()      {}
func (cc *CommandCall) TokenLiteral() string { return cc.Token.Literal }
func (cc *CommandCall) String() string {
	var out bytes.Buffer
	out.WriteString(strings.Join(cc.NameParts, " "))
	for _, a := range cc.Args {
		out.WriteString(" ")
		out.WriteString(a.String())
	}
	return out.String()
}
