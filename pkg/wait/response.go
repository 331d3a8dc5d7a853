package wait

import "strings"

// Response is the output of a single command within a batch. It holds
// either the raw text returned by the device or an already-split
// sequence of lines; both forms are evaluated and displayed the same way.
type Response struct {
	// Raw is the unsplit text output. Ignored when Items is set.
	Raw string
	// Items is a pre-split line sequence. When non-nil it takes
	// precedence over Raw.
	Items []string
}

// Text wraps a raw text blob as a Response.
func Text(s string) Response {
	return Response{Raw: s}
}

// Structured wraps an already-split line sequence as a Response.
func Structured(items []string) Response {
	return Response{Items: items}
}

// Lines returns the response as a sequence of lines, splitting Raw on
// newlines when no pre-split form is present.
func (r Response) Lines() []string {
	if r.Items != nil {
		return r.Items
	}
	return strings.Split(r.Raw, "\n")
}

// String returns the response as a single text blob.
func (r Response) String() string {
	if r.Items != nil {
		return strings.Join(r.Items, "\n")
	}
	return r.Raw
}

// ToLines converts a response batch to one line sequence per response,
// preserving batch order.
func ToLines(batch []Response) [][]string {
	lines := make([][]string, 0, len(batch))
	for _, r := range batch {
		lines = append(lines, r.Lines())
	}
	return lines
}
