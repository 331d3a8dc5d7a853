// Package conditional compiles caller-supplied wait condition text
// into executable predicates over a response batch.
//
// The grammar is a single comparison per condition:
//
//	result[<index>][.<path>] <operator> <value>
//
// <index> selects a response by its position in the command batch.
// The optional <path> is a gjson path applied when the response is
// JSON. Operators: eq/==, neq/ne/!=, gt/>, ge/>=, lt/<, le/<=,
// contains, matches (regular expression). Values may be quoted to
// include spaces.
package conditional

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-andiamo/splitter"
	"github.com/tidwall/gjson"

	"github.com/netwait/netwait/pkg/wait"
)

// CompileError reports condition text that could not be compiled.
type CompileError struct {
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid condition %q: %s", e.Text, e.Reason)
}

type operator int

const (
	opEq operator = iota
	opNeq
	opGt
	opGe
	opLt
	opLe
	opContains
	opMatches
)

var operators = map[string]operator{
	"eq": opEq, "==": opEq,
	"neq": opNeq, "ne": opNeq, "!=": opNeq,
	"gt": opGt, ">": opGt,
	"ge": opGe, ">=": opGe,
	"lt": opLt, "<": opLt,
	"le": opLe, "<=": opLe,
	"contains": opContains,
	"matches":  opMatches,
}

var keyPattern = regexp.MustCompile(`^result\[(\d+)\](?:\.(.+))?$`)

// Conditional is a compiled wait condition. It implements wait.Predicate.
type Conditional struct {
	raw     string
	index   int
	path    string
	op      operator
	value   string
	pattern *regexp.Regexp
}

// Compile parses condition text into a Conditional. Malformed keys,
// unknown operators, non-numeric values on ordering operators and bad
// regular expressions are reported as a *CompileError.
func Compile(text string) (*Conditional, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, &CompileError{Text: text, Reason: err.Error()}
	}
	if len(tokens) < 3 {
		return nil, &CompileError{Text: text, Reason: "expected <key> <operator> <value>"}
	}

	key := keyPattern.FindStringSubmatch(tokens[0])
	if key == nil {
		return nil, &CompileError{Text: text, Reason: fmt.Sprintf("bad key %q", tokens[0])}
	}
	index, err := strconv.Atoi(key[1])
	if err != nil {
		return nil, &CompileError{Text: text, Reason: fmt.Sprintf("bad index %q", key[1])}
	}

	op, ok := operators[tokens[1]]
	if !ok {
		return nil, &CompileError{Text: text, Reason: fmt.Sprintf("unknown operator %q", tokens[1])}
	}

	c := &Conditional{
		raw:   text,
		index: index,
		path:  key[2],
		op:    op,
		value: strings.Join(tokens[2:], " "),
	}

	switch op {
	case opGt, opGe, opLt, opLe:
		if _, err := strconv.ParseFloat(c.value, 64); err != nil {
			return nil, &CompileError{
				Text:   text,
				Reason: fmt.Sprintf("operator %q needs a numeric value, got %q", tokens[1], c.value),
			}
		}
	case opMatches:
		c.pattern, err = regexp.Compile(c.value)
		if err != nil {
			return nil, &CompileError{Text: text, Reason: err.Error()}
		}
	case opEq, opNeq, opContains:
	}

	return c, nil
}

// tokenize splits condition text on spaces, honoring quotes so that
// values may contain spaces.
func tokenize(text string) ([]string, error) {
	s, err := splitter.NewSplitter(' ', splitter.SingleQuotes, splitter.DoubleQuotes)
	if err != nil {
		return nil, err
	}
	tokens, err := s.Split(text, splitter.Trim("'\""), splitter.IgnoreEmpties)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Evaluate tests the condition against a response batch. An index past
// the end of the batch or a missing JSON path evaluates to false: the
// device may simply not have produced that output yet.
func (c *Conditional) Evaluate(batch []wait.Response) bool {
	if c.index < 0 || c.index >= len(batch) {
		return false
	}
	got := batch[c.index].String()
	if c.path != "" {
		v := gjson.Get(got, c.path)
		if !v.Exists() {
			return false
		}
		got = v.String()
	}

	switch c.op {
	case opEq:
		return compareEq(got, c.value)
	case opNeq:
		return !compareEq(got, c.value)
	case opGt, opGe, opLt, opLe:
		return compareOrder(c.op, got, c.value)
	case opContains:
		return strings.Contains(got, c.value)
	case opMatches:
		return c.pattern.MatchString(got)
	}
	return false
}

// String returns the original condition text.
func (c *Conditional) String() string {
	return c.raw
}

// compareEq compares numerically when both sides parse as numbers,
// textually otherwise.
func compareEq(got, want string) bool {
	g, errG := strconv.ParseFloat(got, 64)
	w, errW := strconv.ParseFloat(want, 64)
	if errG == nil && errW == nil {
		return g == w
	}
	return got == want
}

// compareOrder evaluates an ordering operator. The wanted value is
// numeric by construction; a non-numeric response is simply not yet
// comparable and evaluates to false.
func compareOrder(op operator, got, want string) bool {
	g, err := strconv.ParseFloat(strings.TrimSpace(got), 64)
	if err != nil {
		return false
	}
	w, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return false
	}
	switch op {
	case opGt:
		return g > w
	case opGe:
		return g >= w
	case opLt:
		return g < w
	case opLe:
		return g <= w
	case opEq, opNeq, opContains, opMatches:
	}
	return false
}
