package snapshot

import (
	"fmt"
	"sort"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindObject
	kindArray
	kindRecord
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	case kindRecord:
		return "object"
	default:
		return "unknown"
	}
}

// node describes the expected shape of one JSON value.
type node struct {
	kind     kind
	nullable bool
	props    []prop
	elem     *node
}

// prop is one named member of an object node. When the member is absent,
// def (if set) supplies its value; otherwise the member is reported as
// missing unless optional.
type prop struct {
	name     string
	node     *node
	optional bool
	def      func() any
}

func str() *node     { return &node{kind: kindString} }
func boolean() *node { return &node{kind: kindBool} }

func object(props ...prop) *node { return &node{kind: kindObject, props: props} }
func arrayOf(elem *node) *node   { return &node{kind: kindArray, elem: elem} }
func recordOf(elem *node) *node  { return &node{kind: kindRecord, elem: elem} }

func (n *node) orNull() *node {
	c := *n
	c.nullable = true
	return &c
}

func required(name string, n *node) prop { return prop{name: name, node: n} }
func optional(name string, n *node) prop { return prop{name: name, node: n, optional: true} }

func defaulted(name string, n *node, value any) prop {
	return prop{name: name, node: n, def: func() any { return value }}
}

func emptyList(name string, n *node) prop {
	return prop{name: name, node: n, def: func() any { return []any{} }}
}

var (
	subtaskSchema = object(
		required("id", str()),
		required("title", str()),
		required("completed", boolean()),
	)

	taskSchema = object(
		required("id", str()),
		required("title", str()),
		defaulted("description", str(), ""),
		defaulted("notes", str(), ""),
		required("completed", boolean()),
		required("created_at", str()),
		optional("completed_at", str().orNull()),
		emptyList("subtasks", arrayOf(subtaskSchema)),
		defaulted("project_id", str(), ""),
		defaulted("priority", str(), string(DefaultPriority)),
	)

	projectSchema = object(
		required("id", str()),
		required("name", str()),
		required("created_at", str()),
	)

	noteSchema = object(
		required("id", str()),
		defaulted("title", str(), DefaultNoteTitle),
		defaulted("content", str(), ""),
		required("created_at", str()),
		required("updated_at", str()),
	)

	snapshotSchema = object(
		required("timestamp", str()),
		required("projects", arrayOf(projectSchema)),
		required("tasks", recordOf(arrayOf(taskSchema))),
		required("notes", arrayOf(noteSchema)),
	)
)

// normalize checks v against n and returns its canonical form: unknown
// object members dropped and defaults filled in. Every violation is appended
// to issues. On a type mismatch the zero value of the expected kind is
// returned with ok=false, so array positions stay aligned with the input.
func (n *node) normalize(v any, at path, issues *Issues) (out any, ok bool) {
	if v == nil {
		if n.nullable {
			return nil, true
		}
		issues.add(at, expected(n.kind, v))
		return n.zero(), false
	}

	switch n.kind {
	case kindString:
		if s, isString := v.(string); isString {
			return s, true
		}
	case kindBool:
		if b, isBool := v.(bool); isBool {
			return b, true
		}
	case kindObject:
		if m, isMap := v.(map[string]any); isMap {
			return n.normalizeObject(m, at, issues), true
		}
	case kindArray:
		if list, isList := v.([]any); isList {
			res := make([]any, len(list))
			for i, item := range list {
				res[i], _ = n.elem.normalize(item, at.index(i), issues)
			}
			return res, true
		}
	case kindRecord:
		if m, isMap := v.(map[string]any); isMap {
			res := make(map[string]any, len(m))
			for _, key := range sortedKeys(m) {
				res[key], _ = n.elem.normalize(m[key], at.field(key), issues)
			}
			return res, true
		}
	}

	issues.add(at, expected(n.kind, v))
	return n.zero(), false
}

func (n *node) normalizeObject(m map[string]any, at path, issues *Issues) map[string]any {
	res := make(map[string]any, len(n.props))
	for _, p := range n.props {
		raw, present := m[p.name]
		if !present {
			switch {
			case p.def != nil:
				res[p.name] = p.def()
			case !p.optional:
				issues.add(at.field(p.name), "Required")
			}
			continue
		}

		if value, ok := p.node.normalize(raw, at.field(p.name), issues); ok {
			res[p.name] = value
		}
	}
	return res
}

func (n *node) zero() any {
	switch n.kind {
	case kindString:
		return ""
	case kindBool:
		return false
	case kindArray:
		return []any{}
	default:
		return map[string]any{}
	}
}

func (is *Issues) add(at path, msg string) {
	*is = append(*is, Issue{Path: at.String(), Message: msg})
}

func expected(k kind, v any) string {
	return fmt.Sprintf("Expected %s, received %s", k, typeName(v))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		if _, isNumber := v.(interface{ Float64() (float64, error) }); isNumber {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
