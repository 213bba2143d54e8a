package healthcheck

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Summary counts results by status
type Summary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// Summarize counts results by status
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusWarning:
			s.Warnings++
		case StatusFail:
			s.Failed++
		}
	}
	return s
}

// ExitCode is 1 when any check failed
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// WriteText prints one coloured line per result followed by the summary
func WriteText(w io.Writer, results []Result) error {
	for _, r := range results {
		var line string
		switch r.Status {
		case StatusPass:
			line = color.GreenString("✓ %s: %s", r.Check, r.Message)
		case StatusWarning:
			line = color.YellowString("⚠ %s: %s", r.Check, r.Message)
		default:
			line = color.RedString("✗ %s: %s", r.Check, r.Message)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	s := Summarize(results)
	total := len(results)
	bold := color.New(color.Bold)
	if _, err := bold.Fprintf(w, "\nPassed: %d/%d  Warnings: %d/%d  Failed: %d/%d\n",
		s.Passed, total, s.Warnings, total, s.Failed, total); err != nil {
		return err
	}

	var verdict string
	switch {
	case s.Failed > 0:
		verdict = color.RedString("Critical issues detected. Fix before production.")
	case s.Warnings > 0:
		verdict = color.YellowString("Some warnings detected. Review before production.")
	default:
		verdict = color.GreenString("All systems are healthy!")
	}
	_, err := fmt.Fprintln(w, verdict)
	return err
}

// WriteJSON prints the results as a JSON array
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
