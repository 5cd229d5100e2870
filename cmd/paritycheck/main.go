// Paritycheck queries a filter with a list of canonical inputs and prints
// the answers, so that independent runtimes can be compared against the
// same dataset.
//
// Usage:
//
//	paritycheck -bf datasets/v20250101.1/common_tiny.bf -inputs canonical_inputs.txt [-expect other.json]
//
// The output is a JSON array [{"s": input, "c": common}, ...] on stdout.
// With -expect, the answers are compared position by position with another
// implementation's output; any difference is reported on stderr and the
// exit status is 1.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tamirms/commonpass/bloom"
	"github.com/tamirms/commonpass/internal/normalize"
)

var errMismatch = errors.New("answers differ")

type answer struct {
	S string `json:"s"`
	C bool   `json:"c"`
}

type mismatch struct {
	Index int    `json:"index"`
	S     string `json:"s"`
	Got   *bool  `json:"got"`
	Want  *bool  `json:"want"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintf(os.Stderr, "paritycheck: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("paritycheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bfPath := fs.String("bf", "", "filter file (.bf)")
	inputsPath := fs.String("inputs", "", "newline-separated inputs")
	expectPath := fs.String("expect", "", "another implementation's output to compare with")
	mode := fs.String("normalization", "nfc_trim", "query normalization: nfc_trim or preserve_unicode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bfPath == "" || *inputsPath == "" {
		fs.Usage()
		return errors.New("-bf and -inputs are required")
	}
	m, err := normalize.ParseMode(*mode)
	if err != nil {
		return err
	}

	inputs, err := readInputs(*inputsPath)
	if err != nil {
		return err
	}

	filter, err := bloom.Open(*bfPath)
	if err != nil {
		return err
	}
	defer filter.Close()

	answers := make([]answer, len(inputs))
	for i, s := range inputs {
		c, err := filter.Contains(normalize.Apply(m, s))
		if err != nil {
			return err
		}
		answers[i] = answer{S: s, C: c}
	}

	out, err := marshal(answers)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}

	if *expectPath == "" {
		return nil
	}
	data, err := os.ReadFile(*expectPath)
	if err != nil {
		return fmt.Errorf("read expectations: %w", err)
	}
	var expect []answer
	if err := json.Unmarshal(data, &expect); err != nil {
		return fmt.Errorf("parse expectations: %w", err)
	}

	diffs := compare(answers, expect)
	if len(diffs) > 0 {
		b, _ := marshal(diffs)
		fmt.Fprintf(stderr, "MISMATCH: %s", b)
		return errMismatch
	}
	fmt.Fprintf(stderr, "OK: matched %d inputs\n", len(answers))
	return nil
}

// readInputs reads the input file as Python's text.strip().splitlines()
// does, so both sides of a parity run see the same inputs. Lines themselves
// are not trimmed.
func readInputs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return splitLines(normalize.Trim(string(data))), nil
}

// splitLines splits s on "\r\n" and on each rune Python's str.splitlines
// treats as a line boundary. A final boundary does not start a new line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if i < start {
			continue // the "\n" of a "\r\n" pair
		}
		if !isLineBreak(r) {
			continue
		}
		lines = append(lines, s[start:i])
		start = i + len(string(r))
		if r == '\r' && strings.HasPrefix(s[start:], "\n") {
			start++
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func compare(got, want []answer) []mismatch {
	var diffs []mismatch
	for i := range max(len(got), len(want)) {
		var d mismatch
		d.Index = i
		if i < len(got) {
			d.S = got[i].S
			d.Got = &got[i].C
		}
		if i < len(want) {
			if d.S == "" {
				d.S = want[i].S
			}
			d.Want = &want[i].C
		}
		if d.Got == nil || d.Want == nil || *d.Got != *d.Want {
			diffs = append(diffs, d)
		}
	}
	return diffs
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
