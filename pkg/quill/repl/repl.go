// Package repl implements the interactive shell with line editing,
// history, and tab completion.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/quillsh/quill/pkg/quill/errors"
	"github.com/quillsh/quill/pkg/quill/quill"
)

const PROMPT = "> "
const CONTINUATION_PROMPT = ". "

const QUILL_LOGO = `
█▀█ █░█ █ █░░ █░░
▀▀█ █▄█ █ █▄▄ █▄▄ `

// Quill keywords and builtins for tab completion
var completionWords = []string{
	// Keywords
	"let", "def", "alias", "module", "export", "use", "hide",
	"if", "else", "for", "in", "not-in",
	// Builtins
	"echo", "print", "do", "each", "where", "get", "select", "wrap", "length",
	"lines", "split row", "split column",
	"from json", "from yaml", "to json", "build-string",
	// Common values
	"$true", "$false", "$it", "$nu",
}

// Start starts the REPL with line editing, history, and tab completion
func Start(in io.Reader, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	// Set up tab completion
	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	// Load command history from file
	historyFile := filepath.Join(os.TempDir(), ".quill_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	session := quill.NewSession()

	fmt.Fprintf(out, "%s", QUILL_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			// Ctrl+D or Ctrl+C
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		// Check for exit command
		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		// Skip empty lines when no input buffered
		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		// Add to input buffer
		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		// Check if input is complete (no unclosed braces/brackets)
		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		// Input is complete - add to history, evaluate, print
		if trimmed != "" {
			line.AppendHistory(fullInput)
		}

		result, evalErr := session.Eval(fullInput)
		if evalErr != nil {
			printError(out, evalErr)
			inputBuffer.Reset()
			continue
		}

		rendered := quill.Render(result)
		if rendered != "" {
			io.WriteString(out, rendered)
			io.WriteString(out, "\n")
		}

		inputBuffer.Reset()
	}
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace (including tabs from pasting)
	if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
		return nil
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	lastWord := words[len(words)-1]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, word)
		}
	}
	sort.Strings(matches)
	return matches
}

// needsMoreInput checks if the input has unclosed braces, brackets, or
// parentheses
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	braceCount := 0
	bracketCount := 0
	parenCount := 0
	inString := false
	quoteChar := byte(0)
	escapeNext := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' && inString && quoteChar == '"' {
			escapeNext = true
			continue
		}

		// Track string state to ignore braces inside strings
		if inString {
			if ch == quoteChar {
				inString = false
			}
			continue
		}
		if ch == '"' || ch == '\'' {
			inString = true
			quoteChar = ch
			continue
		}
		if ch == '#' {
			// Comment runs to end of line
			for i < len(input) && input[i] != '\n' {
				i++
			}
			continue
		}

		switch ch {
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '[':
			bracketCount++
		case ']':
			bracketCount--
		case '(':
			parenCount++
		case ')':
			parenCount--
		}
	}

	// An unterminated string also needs more input
	return braceCount > 0 || bracketCount > 0 || parenCount > 0 || inString
}

// printError prints a parse or runtime error with structured formatting
func printError(out io.Writer, err *errors.ShellError) {
	if err.IsParseError() {
		io.WriteString(out, "Parse error")
	} else {
		io.WriteString(out, "Error")
	}
	if err.Line > 0 {
		fmt.Fprintf(out, ": line %d, column %d\n  %s\n", err.Line, err.Column, err.Message)
	} else {
		io.WriteString(out, "\n  "+err.Message+"\n")
	}
	for _, hint := range err.Hints {
		io.WriteString(out, "  hint: "+hint+"\n")
	}
}
