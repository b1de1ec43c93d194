package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/quillsh/quill/pkg/quill/errors"
	"github.com/quillsh/quill/pkg/quill/lexer"
	"github.com/quillsh/quill/pkg/quill/parser"
	"github.com/quillsh/quill/pkg/quill/quill"
	"github.com/quillsh/quill/pkg/quill/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag     = flag.String("e", "", "Evaluate code string")
	evalLongFlag = flag.String("eval", "", "Evaluate code string")
	checkFlag    = flag.Bool("check", false, "Check syntax without executing")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("quill version %s\n", Version)
		os.Exit(0)
	}

	// Get eval code (prefer -e over --eval if both set)
	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		executeSource("<eval>", evalCode)
	case *checkFlag:
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --check requires at least one file")
			os.Exit(2)
		}
		os.Exit(checkFiles(files))
	case len(flag.Args()) > 0:
		filename := flag.Args()[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
			os.Exit(1)
		}
		executeSource(filename, string(content))
	default:
		repl.Start(os.Stdin, os.Stdout, Version)
	}
}

func printHelp() {
	fmt.Printf(`quill - Quill shell language interpreter version %s

Usage:
  quill [options] [file]
  quill -e "code"
  quill --check <file>...

Display Options:
  -h, --help            Show this help message
  -V, --version         Show version information

Evaluation Options:
  -e, --eval <code>     Evaluate code string
  --check               Check syntax without executing (can specify multiple files)

Examples:
  quill                     Start interactive REPL
  quill script.qll          Execute a Quill script
  quill -e "3 + 4"          Evaluate inline code (outputs: 7)
  quill --check script.qll  Check syntax without executing
`, Version)
}

// executeSource runs a program and prints the value of its last
// statement. Any error goes to stderr with source context and exits
// non-zero.
func executeSource(filename, source string) {
	result, err := quill.Run(source)
	if err != nil {
		printError(filename, source, err)
		os.Exit(1)
	}
	if result != "" {
		fmt.Println(result)
	}
}

// checkFiles checks the syntax of one or more files without executing them
func checkFiles(files []string) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
			return 2 // File error
		}

		p := parser.New(lexer.New(string(content)))
		_ = p.ParseProgram()

		for _, parseErr := range p.Errors() {
			printError(filename, string(content), parseErr)
			hasErrors = true
		}
	}

	if hasErrors {
		return 1 // Syntax errors
	}
	return 0 // Success
}

// printError prints an error with source context
func printError(filename, source string, err *errors.ShellError) {
	if err.IsParseError() {
		fmt.Fprint(os.Stderr, "Parse error")
	} else {
		fmt.Fprint(os.Stderr, "Error")
	}
	if err.Line > 0 {
		fmt.Fprintf(os.Stderr, " in %s: line %d, column %d\n", filename, err.Line, err.Column)
	} else {
		fmt.Fprintf(os.Stderr, " in %s\n", filename)
	}
	fmt.Fprintf(os.Stderr, "  %s\n", err.Message)

	for _, hint := range err.Hints {
		fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
	}

	if err.Line > 0 {
		printSourceContext(strings.Split(source, "\n"), err.Line, err.Column)
	}
}

// printSourceContext prints the source line and error pointer
func printSourceContext(lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]
	trimmedLine := strings.TrimLeft(sourceLine, " \t")
	trimCount := len(sourceLine) - len(trimmedLine)

	fmt.Fprintf(os.Stderr, "    %s\n", trimmedLine)

	if colNum > 0 {
		adjustedCol := colNum - 1 - trimCount
		if adjustedCol < 0 {
			adjustedCol = 0
		}
		pointer := strings.Repeat(" ", adjustedCol) + "^"
		fmt.Fprintf(os.Stderr, "    %s\n", pointer)
	}
}
