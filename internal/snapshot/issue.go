package snapshot

import (
	"strconv"
	"strings"
)

// Issue is one schema violation. Path is dotted, with array indexes and map
// keys as segments, e.g. "tasks.proj1.2.priority". The empty path is the
// document root.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Issues is an ordered list of violations.
type Issues []Issue

// String joins every issue as "path: message", separated by ", ".
func (is Issues) String() string {
	parts := make([]string, len(is))
	for i, issue := range is {
		parts[i] = issue.String()
	}
	return strings.Join(parts, ", ")
}

// Has reports whether an issue was recorded for path.
func (is Issues) Has(path string) bool {
	for _, issue := range is {
		if issue.Path == path {
			return true
		}
	}
	return false
}

// ValidationError carries every violation found in one document.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	return e.Issues.String()
}

type path []string

func (p path) field(name string) path {
	return append(p[:len(p):len(p)], name)
}

func (p path) index(i int) path {
	return p.field(strconv.Itoa(i))
}

func (p path) String() string {
	return strings.Join(p, ".")
}
