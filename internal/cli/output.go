package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/trylock/viewer-sub002/internal/compiler"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0   // Successful execution
	ExitFailure      = 1   // The query or a view is invalid, or enumeration failed
	ExitCommandError = 2   // Command error (bad flags, unreadable config, database not found, etc.)
	ExitInterrupted  = 130 // Stopped by SIGINT or SIGTERM
)

// Error codes reported in JSON responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration could not be loaded
	ErrCodeNotFound    = "E005" // Path or view not found
	ErrCodeCompile     = "E010" // Query has compile errors
	ErrCodeRuntime     = "E011" // Enumeration failed
	ErrCodeViewInvalid = "E020" // A view does not load or compile
	ErrCodeViewCycle   = "E021" // Views reference each other
	ErrCodeStore       = "E030" // Attribute database error
	ErrCodeFixture     = "E031" // Entity fixture could not be read
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
	Quiet   bool   // Already reported to the user; main prints nothing
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// NewInterrupted reports that a command stopped because its context was
// cancelled. Interruption is not a failure of the command, so the error is
// quiet.
func NewInterrupted(message string, err error) *ExitError {
	return &ExitError{Code: ExitInterrupted, Message: message, Err: err, Quiet: true}
}

// IsQuiet reports whether err needs no further message.
func IsQuiet(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Quiet
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	Color     bool // colorize text diagnostics
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E010", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", f.paint(color.FgRed, "Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diagnostics prints positioned errors in text form: the message followed by
// the offending line of text and a marker under the column. JSON output
// carries diagnostics in the response instead, so nothing is printed.
func (f *OutputFormatter) Diagnostics(kind, text string, errs []compiler.Error) {
	if f.Format == "json" {
		return
	}
	w := f.GetErrWriter()
	lines := strings.Split(text, "\n")
	for _, e := range errs {
		fmt.Fprintf(w, "%s %s %s\n",
			f.paint(color.FgRed, kind+":"),
			f.paint(color.FgCyan, fmt.Sprintf("%d:%d:", e.Line, e.Column)),
			e.Message)
		if e.Line < 1 || e.Line > len(lines) {
			continue
		}
		line := lines[e.Line-1]
		fmt.Fprintf(w, "    %s\n", line)
		col := min(max(e.Column, 1), len([]rune(line))+1)
		fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", col-1), f.paint(color.FgGreen, "^"))
	}
}

// Check prints a success line in text mode.
func (f *OutputFormatter) Check(message string) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.paint(color.FgGreen, "✓"), message)
}

// Warn prints a warning line to the diagnostic writer in text mode.
func (f *OutputFormatter) Warn(format string, args ...any) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), "%s %s\n", f.paint(color.FgYellow, "warning:"), fmt.Sprintf(format, args...))
}

// Notice prints an informational line to the error writer in text mode.
func (f *OutputFormatter) Notice(format string, args ...any) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) paint(attr color.Attribute, s string) string {
	c := color.New(attr, color.Bold)
	if f.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
