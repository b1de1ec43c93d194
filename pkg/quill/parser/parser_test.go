package parser

import (
	"strings"
	"testing"

	"github.com/quillsh/quill/pkg/quill/ast"
	"github.com/quillsh/quill/pkg/quill/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors for %q: %s", input, errs[0].Message)
	}
	return program
}

func parseFail(t *testing.T, input, want string) {
	t.Helper()
	p := New(lexer.New(input))
	p.ParseProgram()
	errs := p.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected parse error containing %q for %q, got none", want, input)
	}
	if !strings.Contains(errs[0].Message, want) {
		t.Errorf("expected error containing %q, got %q", want, errs[0].Message)
	}
}

func TestLetStatements(t *testing.T) {
	tests := []struct {
		input        string
		expectedName string
	}{
		{"let x = 5", "x"},
		{"let $y = 10", "y"},
		{"let total = 1 + 2", "total"},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(program.Statements))
		}
		stmt, ok := program.Statements[0].(*ast.LetStatement)
		if !ok {
			t.Fatalf("expected *ast.LetStatement, got %T", program.Statements[0])
		}
		if stmt.Name != tt.expectedName {
			t.Errorf("expected name %q, got %q", tt.expectedName, stmt.Name)
		}
	}
}

func TestDefStatement(t *testing.T) {
	program := parseProgram(t, "def foo [a, ...rest] { 1 }")
	stmt, ok := program.Statements[0].(*ast.DefStatement)
	if !ok {
		t.Fatalf("expected *ast.DefStatement, got %T", program.Statements[0])
	}
	if stmt.Name != "foo" {
		t.Errorf("expected name foo, got %q", stmt.Name)
	}
	if len(stmt.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(stmt.Params))
	}
	if stmt.Params[0].Name != "a" || stmt.Params[0].Rest {
		t.Errorf("param 0: expected a, got %+v", stmt.Params[0])
	}
	if stmt.Params[1].Name != "rest" || !stmt.Params[1].Rest {
		t.Errorf("param 1: expected ...rest, got %+v", stmt.Params[1])
	}
	if stmt.Export {
		t.Errorf("top-level def should not be exported")
	}
}

func TestDefWithQuotedName(t *testing.T) {
	program := parseProgram(t, `def "foo bar" [] { 3 }`)
	stmt, ok := program.Statements[0].(*ast.DefStatement)
	if !ok {
		t.Fatalf("expected *ast.DefStatement, got %T", program.Statements[0])
	}
	if stmt.Name != "foo bar" {
		t.Errorf("expected name %q, got %q", "foo bar", stmt.Name)
	}
}

func TestModuleWithExports(t *testing.T) {
	program := parseProgram(t, "module m { export def a [] { 1 }; def b [] { 2 } }")
	stmt, ok := program.Statements[0].(*ast.ModuleStatement)
	if !ok {
		t.Fatalf("expected *ast.ModuleStatement, got %T", program.Statements[0])
	}
	if stmt.Name != "m" {
		t.Errorf("expected module name m, got %q", stmt.Name)
	}
	if len(stmt.Body.Statements) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(stmt.Body.Statements))
	}
	a := stmt.Body.Statements[0].(*ast.DefStatement)
	b := stmt.Body.Statements[1].(*ast.DefStatement)
	if !a.Export {
		t.Errorf("def a should be exported")
	}
	if b.Export {
		t.Errorf("def b should not be exported")
	}
}

func TestPipelineStages(t *testing.T) {
	program := parseProgram(t, "[1, 2] | each { $it } | length")
	stmt, ok := program.Statements[0].(*ast.Pipeline)
	if !ok {
		t.Fatalf("expected *ast.Pipeline, got %T", program.Statements[0])
	}
	if len(stmt.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stmt.Stages))
	}
	if _, ok := stmt.Stages[0].(*ast.ListLiteral); !ok {
		t.Errorf("stage 0: expected *ast.ListLiteral, got %T", stmt.Stages[0])
	}
	each, ok := stmt.Stages[1].(*ast.CommandCall)
	if !ok {
		t.Fatalf("stage 1: expected *ast.CommandCall, got %T", stmt.Stages[1])
	}
	if len(each.NameParts) != 1 || each.NameParts[0] != "each" {
		t.Errorf("stage 1: expected name each, got %v", each.NameParts)
	}
	if len(each.Args) != 1 {
		t.Fatalf("stage 1: expected 1 arg, got %d", len(each.Args))
	}
	if _, ok := each.Args[0].(*ast.BlockLiteral); !ok {
		t.Errorf("stage 1: expected block arg, got %T", each.Args[0])
	}
}

func TestMultiWordCommandNames(t *testing.T) {
	program := parseProgram(t, `"a b" | split row " "`)
	stmt := program.Statements[0].(*ast.Pipeline)
	call, ok := stmt.Stages[1].(*ast.CommandCall)
	if !ok {
		t.Fatalf("expected *ast.CommandCall, got %T", stmt.Stages[1])
	}
	if len(call.NameParts) != 2 || call.NameParts[0] != "split" || call.NameParts[1] != "row" {
		t.Errorf("expected name parts [split row], got %v", call.NameParts)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
}

func TestCellPathArgument(t *testing.T) {
	program := parseProgram(t, "get grade.1")
	stmt := program.Statements[0].(*ast.Pipeline)
	call := stmt.Stages[0].(*ast.CommandCall)
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
	path, ok := call.Args[0].(*ast.CellPathLiteral)
	if !ok {
		t.Fatalf("expected *ast.CellPathLiteral, got %T", call.Args[0])
	}
	if len(path.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(path.Members))
	}
	if path.Members[0].Name != "grade" {
		t.Errorf("member 0: expected grade, got %q", path.Members[0].Name)
	}
	if !path.Members[1].IsInt || path.Members[1].Index != 1 {
		t.Errorf("member 1: expected index 1, got %+v", path.Members[1])
	}
}

func TestUseStatements(t *testing.T) {
	tests := []struct {
		input    string
		module   string
		selector ast.ImportSelector
		names    []string
	}{
		{"use foo", "foo", ast.ImportModule, nil},
		{"use foo.a", "foo", ast.ImportSingle, []string{"a"}},
		{"use foo.*", "foo", ast.ImportAll, nil},
		{"use foo.[a, c]", "foo", ast.ImportNames, []string{"a", "c"}},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.UseStatement)
		if !ok {
			t.Fatalf("%q: expected *ast.UseStatement, got %T", tt.input, program.Statements[0])
		}
		if stmt.Module != tt.module {
			t.Errorf("%q: expected module %q, got %q", tt.input, tt.module, stmt.Module)
		}
		if stmt.Selector != tt.selector {
			t.Errorf("%q: expected selector %d, got %d", tt.input, tt.selector, stmt.Selector)
		}
		if len(stmt.Names) != len(tt.names) {
			t.Fatalf("%q: expected %d names, got %d", tt.input, len(tt.names), len(stmt.Names))
		}
		for i, name := range tt.names {
			if stmt.Names[i] != name {
				t.Errorf("%q: names[%d] expected %q, got %q", tt.input, i, name, stmt.Names[i])
			}
		}
	}
}

func TestHideStatements(t *testing.T) {
	tests := []struct {
		input    string
		module   string
		selector ast.ImportSelector
		names    []string
	}{
		{"hide foo", "", ast.ImportSingle, []string{"foo"}},
		{"hide spam.foo", "spam", ast.ImportSingle, []string{"foo"}},
		{"hide spam.*", "spam", ast.ImportAll, nil},
		{"hide spam.[foo]", "spam", ast.ImportNames, []string{"foo"}},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.HideStatement)
		if !ok {
			t.Fatalf("%q: expected *ast.HideStatement, got %T", tt.input, program.Statements[0])
		}
		if stmt.Module != tt.module {
			t.Errorf("%q: expected module %q, got %q", tt.input, tt.module, stmt.Module)
		}
		if stmt.Selector != tt.selector {
			t.Errorf("%q: expected selector %d, got %d", tt.input, tt.selector, stmt.Selector)
		}
		if len(stmt.Names) != len(tt.names) {
			t.Fatalf("%q: expected %d names, got %d", tt.input, len(tt.names), len(stmt.Names))
		}
	}
}

func TestIfElseChain(t *testing.T) {
	program := parseProgram(t, "if $true { 1 } else if $false { 2 } else { 3 }")
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", program.Statements[0])
	}
	elseIf, ok := stmt.Alternative.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected else-if chain, got %T", stmt.Alternative)
	}
	if _, ok := elseIf.Alternative.(*ast.BlockStatement); !ok {
		t.Fatalf("expected final else block, got %T", elseIf.Alternative)
	}
}

func TestForStatement(t *testing.T) {
	for _, input := range []string{"for x in [1, 2] { $x }", "for $x in [1, 2] { $x }"} {
		program := parseProgram(t, input)
		stmt, ok := program.Statements[0].(*ast.ForStatement)
		if !ok {
			t.Fatalf("%q: expected *ast.ForStatement, got %T", input, program.Statements[0])
		}
		if stmt.Name != "x" {
			t.Errorf("%q: expected loop variable x, got %q", input, stmt.Name)
		}
	}
}

func TestRangeLiterals(t *testing.T) {
	program := parseProgram(t, "1..5")
	stmt := program.Statements[0].(*ast.Pipeline)
	r, ok := stmt.Stages[0].(*ast.RangeLiteral)
	if !ok {
		t.Fatalf("expected *ast.RangeLiteral, got %T", stmt.Stages[0])
	}
	if !r.Inclusive {
		t.Errorf("1..5 should be inclusive")
	}

	program = parseProgram(t, "0..<3")
	stmt = program.Statements[0].(*ast.Pipeline)
	r, ok = stmt.Stages[0].(*ast.RangeLiteral)
	if !ok {
		t.Fatalf("expected *ast.RangeLiteral, got %T", stmt.Stages[0])
	}
	if r.Inclusive {
		t.Errorf("0..<3 should be exclusive")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"1 + 2 < 3 + 4", "((1 + 2) < (3 + 4))"},
		{"1 < 2 == $true", "((1 < 2) == $true)"},
		{"-5 + 10", "((-5) + 10)"},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		got := program.Statements[0].String()
		if got != tt.expected {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestTableLiteral(t *testing.T) {
	program := parseProgram(t, "[[name, size]; [a, 1], [b, 2]]")
	stmt := program.Statements[0].(*ast.Pipeline)
	table, ok := stmt.Stages[0].(*ast.TableLiteral)
	if !ok {
		t.Fatalf("expected *ast.TableLiteral, got %T", stmt.Stages[0])
	}
	if len(table.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(table.Columns))
	}
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(table.Rows))
	}
}

func TestStringInterpolation(t *testing.T) {
	program := parseProgram(t, `$"a (1 + 2) b"`)
	stmt := program.Statements[0].(*ast.Pipeline)
	interp, ok := stmt.Stages[0].(*ast.StringInterpolation)
	if !ok {
		t.Fatalf("expected *ast.StringInterpolation, got %T", stmt.Stages[0])
	}
	if len(interp.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(interp.Parts))
	}
	if lit, ok := interp.Parts[0].(*ast.StringLiteral); !ok || lit.Value != "a " {
		t.Errorf("part 0: expected literal %q, got %v", "a ", interp.Parts[0])
	}
}

func TestEnvShorthand(t *testing.T) {
	program := parseProgram(t, "FOO=BAR echo 1")
	stmt, ok := program.Statements[0].(*ast.EnvStatement)
	if !ok {
		t.Fatalf("expected *ast.EnvStatement, got %T", program.Statements[0])
	}
	if stmt.Name != "FOO" {
		t.Errorf("expected env name FOO, got %q", stmt.Name)
	}
	if stmt.Stmt == nil {
		t.Fatalf("expected inner statement")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3 + ", "incomplete"},
		{"def foo", "incomplete"},
		{"let = 5", "let requires a variable name"},
		{"use foo.3", "invalid use path"},
	}
	for _, tt := range tests {
		parseFail(t, tt.input, tt.want)
	}
}
