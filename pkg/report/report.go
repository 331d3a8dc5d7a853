// Package report renders polling results for the terminal, either as
// colored human-readable text or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/netwait/netwait/pkg/wait"
)

// FailedMessage is printed when the retry budget runs out with
// conditions still unsatisfied.
const FailedMessage = "one or more conditions were not satisfied"

// Printer writes a wait.Result to the terminal.
type Printer struct {
	out     io.Writer
	noColor bool
	quiet   bool

	dimColor     func(a ...any) string
	successColor func(a ...any) string
	errorColor   func(a ...any) string
}

// NewPrinter creates a printer writing to stdout.
func NewPrinter(noColor, quiet bool) *Printer {
	return NewPrinterWithWriter(os.Stdout, noColor, quiet)
}

// NewPrinterWithWriter creates a printer writing to w.
func NewPrinterWithWriter(w io.Writer, noColor, quiet bool) *Printer {
	p := &Printer{out: w, noColor: noColor, quiet: quiet}
	p.setupColors()
	return p
}

// setupColors initializes color functions based on the noColor setting.
func (p *Printer) setupColors() {
	if p.noColor {
		p.dimColor = color.New().SprintFunc()
		p.successColor = color.New().SprintFunc()
		p.errorColor = color.New().SprintFunc()
	} else {
		p.dimColor = color.New(color.FgHiBlack).SprintFunc()
		p.successColor = color.New(color.FgGreen).SprintFunc()
		p.errorColor = color.New(color.FgRed).SprintFunc()
	}
}

// Print renders the result: each command's output lines, then a status
// line, then the failed conditions when the session was not satisfied.
func (p *Printer) Print(commands []string, result *wait.Result) {
	if !p.quiet {
		for i, lines := range result.StdoutLines {
			if i < len(commands) {
				_, _ = fmt.Fprintln(p.out, p.dimColor("$ "+commands[i]))
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(p.out, line)
			}
		}
	}

	if result.Satisfied {
		_, _ = fmt.Fprintln(p.out, p.successColor(
			fmt.Sprintf("satisfied after %d attempt(s)", result.Attempts)))
		return
	}

	_, _ = fmt.Fprintln(p.out, p.errorColor(FailedMessage))
	for _, condition := range result.FailedConditions {
		_, _ = fmt.Fprintln(p.out, p.errorColor("  - "+condition))
	}
}

// jsonResult is the machine-readable result document: stdout,
// stdout_lines and failed_conditions.
type jsonResult struct {
	Satisfied        bool       `json:"satisfied"`
	Attempts         int        `json:"attempts"`
	Stdout           []string   `json:"stdout"`
	StdoutLines      [][]string `json:"stdout_lines"`
	FailedConditions []string   `json:"failed_conditions,omitempty"`
	Msg              string     `json:"msg,omitempty"`
}

// PrintJSON renders the result as a single JSON document.
func (p *Printer) PrintJSON(result *wait.Result) error {
	out := jsonResult{
		Satisfied:        result.Satisfied,
		Attempts:         result.Attempts,
		Stdout:           make([]string, 0, len(result.Stdout)),
		StdoutLines:      result.StdoutLines,
		FailedConditions: result.FailedConditions,
	}
	for _, r := range result.Stdout {
		out.Stdout = append(out.Stdout, r.String())
	}
	if !result.Satisfied {
		out.Msg = FailedMessage
	}

	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
