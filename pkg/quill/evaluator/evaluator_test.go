package evaluator

import (
	"strings"
	"testing"

	"github.com/quillsh/quill/pkg/quill/lexer"
	"github.com/quillsh/quill/pkg/quill/parser"
)

// Helper to parse and evaluate Quill code
func testEval(input string) Object {
	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return &Error{Err: errs[0]}
	}
	frame := NewChildFrame(NewRootFrame())
	return Eval(program, frame)
}

// runTest evaluates input and compares the rendered result
func runTest(t *testing.T, input, expected string) {
	t.Helper()
	result := testEval(input)
	if errObj, ok := result.(*Error); ok {
		t.Fatalf("unexpected error for %q: %s", input, errObj.Err.Message)
	}
	got := renderValue(result)
	if got != expected {
		t.Errorf("expected %q, got %q for input %q", expected, got, input)
	}
}

// failTest evaluates input and checks the error message contains want
func failTest(t *testing.T, input, want string) {
	t.Helper()
	result := testEval(input)
	errObj, ok := result.(*Error)
	if !ok {
		t.Fatalf("expected error containing %q, got %q for input %q", want, renderValue(result), input)
	}
	if !strings.Contains(errObj.Err.Message, want) {
		t.Errorf("expected error containing %q, got %q for input %q", want, errObj.Err.Message, input)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"3 + 4", "7"},
		{"3 + 4 + 9", "16"},
		{"10 - 3", "7"},
		{"4 * 5", "20"},
		{"10 / 2", "5"},
		{"10 / 4", "2.5"},
		{"10 % 3", "1"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"-5 + 10", "5"},
		{"10.1 + 0.8", "10.9"},
		{"1.5 * 2", "3"},
	}
	for _, tt := range tests {
		runTest(t, tt.input, tt.expected)
	}
}

func TestArithmeticErrors(t *testing.T) {
	failTest(t, "3 + ", "incomplete")
	failTest(t, `"a" - 1`, "mismatched for operation")
	failTest(t, "1 / 0", "division by zero")
}

func TestOrderingRequiresNumbers(t *testing.T) {
	failTest(t, `'a' < 'b'`, "type mismatch")
	failTest(t, `'a' < 1`, "type mismatch")
	failTest(t, `"x" >= "y"`, "type mismatch")
	runTest(t, `1 < 2.5`, "true")
}

func TestStringConcat(t *testing.T) {
	runTest(t, `"foo" + "bar"`, "foobar")
}

func TestIfStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"if $true { 10 } else { 20 } ", "10"},
		{"if $false { 10 } else { 20 } ", "20"},
		{"if $true { 10 } ", "10"},
		{"if $false { 10 } ", ""},
		{"if 2 < 3 { 3 } ", "3"},
		{"if 2 > 3 { 3 } ", ""},
		{"if 2 < 3 { 5 } else { 4 } ", "5"},
		{"if 2 > 3 { 5 } else { 4 } ", "4"},
		{"if 2 > 3 { 5 } else if 6 < 7 { 4 } ", "4"},
		{"if 2 < 3 { 5 } else if 6 < 7 { 4 } else { 8 } ", "5"},
		{"if 2 > 3 { 5 } else if 6 > 7 { 4 } else { 8 } ", "8"},
		{"if 2 > 3 { 5 } else if 6 < 7 { 4 } else { 8 } ", "4"},
	}
	for _, tt := range tests {
		runTest(t, tt.input, tt.expected)
	}
}

func TestIfConditionMustBeBoolean(t *testing.T) {
	failTest(t, "if 3 { 10 }", "type mismatch")
}

func TestScopeDoesNotLeak(t *testing.T) {
	failTest(t, "if $false { let $x = 10 } else { let $x = 20 }; $x", "Variable not found")
	failTest(t, "def foo [] { $x }; def bar [] { let $x = 10; foo }; bar", "Variable not found")
	runTest(t, "def foo [$x] { $x }; def bar [] { let $x = 10; foo 20}; bar", "20")
	runTest(t, "def foo [$x] { $x }; def bar [] { let $x = 10; (foo 20) + $x}; bar", "30")
}

func TestClosures(t *testing.T) {
	runTest(t, "let $x = 10; def foo [] { $x }; foo", "10")
}

func TestPredeclaration(t *testing.T) {
	runTest(t, "def bob [] { sam }; def sam [] { 3 }; bob", "3")
}

func TestDefParameters(t *testing.T) {
	runTest(t, "def bob [x] { $x + 3 }; bob 4", "7")
	runTest(t, "def foo [...x] { $x.0 + $x.1 }; foo 10 80", "90")
}

func TestArityChecking(t *testing.T) {
	failTest(t, "def foo [x y] { $x }; foo 1", "positional arguments")
	failTest(t, "def foo [x] { $x }; foo 1 2", "positional arguments")
}

func TestDuplicateDefinition(t *testing.T) {
	failTest(t, `def foo [] { "foo" }; def foo [] { "bar" }`, "defined more than once")
}

func TestEnvShorthand(t *testing.T) {
	runTest(t, "FOO=BAR if $false { 3 } else { 4 }", "4")
	runTest(t, "FOO=BAR $nu.env.FOO", "BAR")
}

func TestSubcommands(t *testing.T) {
	runTest(t, "def foo [] {}; def \"foo bar\" [] {3}; foo bar", "3")
}

func TestAliases(t *testing.T) {
	runTest(t, "def foo [$x] { $x + 10 }; alias f = foo; f 100", "110")
	runTest(t, "def foo [$x $y] { $x + $y + 10 }; alias f = foo 33; f 100", "143")
}

func TestEachOverCollections(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[3] | each { $it + 10 }", "[13]"},
		{"[3] | each { |y| $y + 10 }", "[13]"},
		{"[1,2,3] | each { $it + 10 }", "[11, 12, 13]"},
		{"[1,2,3] | each { |y| $y + 10 }", "[11, 12, 13]"},
		{"1..4 | each { |y| $y + 10 }", "[11, 12, 13, 14]"},
		{"4..1 | each { |y| $y + 100 }", "[104, 103, 102, 101]"},
		{"4 | each { $it + 10 }", "14"},
	}
	for _, tt := range tests {
		runTest(t, tt.input, tt.expected)
	}
}

func TestLetMaterializesStreams(t *testing.T) {
	runTest(t,
		"let x = (1..100 | each { |y| $y + 100 }); $x | length; $x | length",
		"100")
}

func TestBuildString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"build-string 'nu' 'shell'", "nushell"},
		{"'nu' | each {build-string $it 'shell'}", "nushell"},
		{"build-string 'nu' 'shell' | each {build-string $it ' rocks'}", "nushell rocks"},
		{"['sam','rick','pete'] | each { build-string $it ' is studying'}",
			"[sam is studying, rick is studying, pete is studying]"},
		{"['sam','rick','pete'] | each { |x| build-string $x ' is studying'}",
			"[sam is studying, rick is studying, pete is studying]"},
	}
	for _, tt := range tests {
		runTest(t, tt.input, tt.expected)
	}
}

func TestCellPaths(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"([[lang, gems]; [nu, 100]]).lang", "[nu]"},
		{"([[lang, gems]; [nu, 100]]).lang.0", "nu"},
		{"let x = [[lang, gems]; [nu, 100]]; $x.lang", "[nu]"},
		{"let x = [[lang, gems]; [nu, 100]]; $x.lang.0", "nu"},
		{"[10, 20, 30].1", "20"},
	}
	for _, tt := range tests {
		runTest(t, tt.input, tt.expected)
	}
}

func TestCellPathErrors(t *testing.T) {
	failTest(t, "([[lang, gems]; [nu, 100]]).version", "column not found")
	failTest(t, "[10, 20, 30].5", "index out of range")
}

func TestRowIteration(t *testing.T) {
	runTest(t,
		"[[name, size]; [tj, 100], [rl, 200]] | each { $it.size * 8 }",
		"[800, 1600]")
}

func TestRecordIteration(t *testing.T) {
	runTest(t,
		"([[name, level]; [aa, 100], [bb, 200]] | each { $it | each { |x| if $x.column == \"level\" { $x.value + 100 } else { $x.value } } }).level",
		"[200, 300]")
}

func TestRowConditions(t *testing.T) {
	runTest(t,
		"([[name, size]; [a, 1], [b, 2], [c, 3]] | where size < 3).name",
		"[a, b]")
	runTest(t,
		"[[name, size]; [a, 1], [b, 2], [c, 3]] | where $it.size > 2 | length",
		"1")
}

func TestNumberedEach(t *testing.T) {
	runTest(t,
		`([1, 2, 3] | each -n { $"($it.index) is ($it.item)" }).1`,
		"1 is 2")
}

func TestModuleImports(t *testing.T) {
	runTest(t,
		`module foo { export def a [] { 1 }; def b [] { 2 } }; use foo; foo.a`,
		"1")
	runTest(t,
		`module foo { export def a [] { 1 }; def b [] { 2 } }; use foo.a; a`,
		"1")
	runTest(t,
		`module foo { export def a [] { 1 }; export def b [] { 2 } }; use foo.*; b`,
		"2")
	failTest(t,
		`module foo { export def a [] { 1 }; export def b [] { 2 } }; use foo.c`,
		"not find import")
	runTest(t,
		`module foo { export def a [] { 1 }; def b [] { 2 }; export def c [] { 3 } }; use foo.[a, c]; c`,
		"3")
	runTest(t,
		`module foo { def b [] { 2 }; export def a [] { b }  }; use foo; foo.a`,
		"2")
}

func TestModuleBodyRunsInProgramOrder(t *testing.T) {
	runTest(t,
		`let y = 3; module m { let z = $y; export def a [] { $z } }; use m.a; a`,
		"3")
}

func TestHideDef(t *testing.T) {
	failTest(t, `def foo [] { "foo" }; hide foo; foo`, "not found")
	failTest(t,
		`def foo [] { "foo" }; hide foo; def foo [] { "bar" }; foo`,
		"defined more than once")
}

func TestHideInScope(t *testing.T) {
	failTest(t, `def foo [] { "foo" }; do { hide foo; foo }`, "not found")
	runTest(t, `def foo [] { "foo" }; do { def foo [] { "bar" }; hide foo; foo }`, "foo")
	failTest(t,
		`def foo [] { "foo" }; do { hide foo; def foo [] { "bar" }; hide foo; foo }`,
		"not found")
	failTest(t,
		`def foo [] { "foo" }; do { def foo [] { "bar" }; hide foo; hide foo; foo }`,
		"not found")
}

func TestHideTwiceNotAllowed(t *testing.T) {
	failTest(t, `def foo [] { "foo" }; hide foo; hide foo`, "unknown command")
}

func TestHideSelectorTwiceNotAllowed(t *testing.T) {
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam.foo; hide spam.[foo]; hide spam.[foo]`,
		"unknown command")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam; hide spam.*; hide spam.*`,
		"unknown command")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; hide spam.[foo]`,
		"unknown command")
}

func TestHideImports(t *testing.T) {
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam; hide spam.foo; foo`,
		"not found")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam; hide spam.*; foo`,
		"not found")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam; hide spam.[foo]; foo`,
		"not found")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam.foo; hide foo; foo`,
		"not found")
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam.*; hide foo; foo`,
		"not found")
}

func TestUseAfterHide(t *testing.T) {
	runTest(t,
		`module spam { export def foo [] { "foo" } }; use spam.foo; hide foo; use spam.foo; foo`,
		"foo")
}

func TestHiddenQualifiedImportStaysHidden(t *testing.T) {
	failTest(t,
		`module spam { export def foo [] { "foo" } }; use spam; hide spam.foo; spam.foo`,
		"not found")
}

func TestFromJSON(t *testing.T) {
	runTest(t, `('{"name": "Fred"}' | from json).name`, "Fred")
	runTest(t, `('{"name": "Fred"}
                 {"name": "Sally"}' | from json -o).name.1`, "Sally")
	runTest(t, `('[1, 2, 3]' | from json).2`, "3")
	runTest(t, `('{"a": 1.5}' | from json).a`, "1.5")
	failTest(t, `'{oops' | from json`, "invalid json")
}

func TestFromYAML(t *testing.T) {
	runTest(t, `('name: Fred
age: 30' | from yaml).name`, "Fred")
	runTest(t, `('- 1
- 2
- 3' | from yaml).1`, "2")
	failTest(t, `': : :' | from yaml`, "invalid yaml")
}

func TestToJSON(t *testing.T) {
	runTest(t, `[[name, size]; [a, 1]] | to json`, `[{"name":"a","size":1}]`)
	runTest(t, `'{"b": 1, "a": 2}' | from json | to json`, `{"b":1,"a":2}`)
}

func TestWrap(t *testing.T) {
	runTest(t, `([1, 2, 3] | wrap foo).foo.1`, "2")
}

func TestGet(t *testing.T) {
	runTest(t, `[[name, grade]; [Alice, A], [Betty, B]] | get grade.1`, "B")
	runTest(t, `let x = "name"; [["name", "score"]; [a, b], [c, d]] | get $x | get 1`, "c")
}

func TestSelect(t *testing.T) {
	runTest(t, `([[name, age]; [a, 1], [b, 2]]) | select name | get 1 | get name`, "b")
	failTest(t, `[[name]; [a]] | select size`, "column not found")
}

func TestSplitRow(t *testing.T) {
	runTest(t, `"hello world" | split row " " | get 1`, "world")
}

func TestSplitColumn(t *testing.T) {
	runTest(t, `"hello world" | split column " " | get Column1 | get 0`, "hello")
}

func TestForLoops(t *testing.T) {
	runTest(t, `(for x in [1, 2, 3] { $x + 10 }).1`, "12")
	runTest(t, `(for $x in 1..3 { $x * 2 }).2`, "6")
}

func TestForOverScalar(t *testing.T) {
	runTest(t, `for x in 5 { $x + 1 }`, "6")
}

func TestMembershipInList(t *testing.T) {
	runTest(t, `42 in [41 42 43]`, "true")
	runTest(t, `44 in [41 42 43]`, "false")
	failTest(t, `'hello' in [41 42 43]`, "mismatched for operation")
}

func TestMembershipInString(t *testing.T) {
	runTest(t, `'z' in 'abc'`, "false")
	runTest(t, `'b' in 'abc'`, "true")
	runTest(t, `'d' not-in 'abc'`, "true")
	failTest(t, `42 in 'abc'`, "mismatched for operation")
}

func TestMembershipInRange(t *testing.T) {
	runTest(t, `1 in -4..9.42`, "true")
	runTest(t, `1 in 9.42..-4`, "true")
	runTest(t, `3 in 0..<3`, "false")
	runTest(t, `1.4 not-in 2..9.42`, "true")
	failTest(t, `'a' in 1..3`, "mismatched for operation")
}

func TestMembershipInRecord(t *testing.T) {
	runTest(t, `"a" in ('{ "a": 13, "b": 14 }' | from json)`, "true")
	runTest(t, `"c" in ('{ "a": 13, "b": 14 }' | from json)`, "false")
	failTest(t, `4 in ('{ "a": 13, "b": 14 }' | from json)`, "mismatch during operation")
}

func TestMembershipInStream(t *testing.T) {
	runTest(t, `
    'Hello' in ("Hello
    World" | lines)`, "true")
}

func TestStringInterpolation(t *testing.T) {
	runTest(t, `let x = 3; $"x is ($x)"`, "x is 3")
	runTest(t, `$"two plus two is (2 + 2)"`, "two plus two is 4")
}

func TestRangeIndexing(t *testing.T) {
	runTest(t, `(1..5).2`, "3")
}

func TestLines(t *testing.T) {
	runTest(t, `"a
b
c" | lines | length`, "3")
}

func TestEcho(t *testing.T) {
	runTest(t, `echo 3`, "3")
	runTest(t, `echo 1 2 3 | length`, "3")
}

func TestUnknownCommand(t *testing.T) {
	failTest(t, `frobnicate 1 2`, "not found")
}

func TestUnknownVariable(t *testing.T) {
	failTest(t, `$zork`, "Variable not found")
}

func TestUnknownModule(t *testing.T) {
	failTest(t, `use nonexistent`, "not find import")
}
