package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Result is the outcome of validating one document: either a Snapshot with
// every default applied, or a non-empty list of issues.
type Result struct {
	Snapshot *Snapshot
	Issues   Issues
}

// OK reports whether the document satisfied the schema.
func (r Result) OK() bool {
	return len(r.Issues) == 0 && r.Snapshot != nil
}

// Err returns nil for a valid document and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Issues: r.Issues}
}

// Decode parses raw JSON and validates it. Malformed JSON is reported as a
// single issue at the document root.
func Decode(raw []byte) Result {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{Issues: Issues{{Message: "Invalid JSON: " + err.Error()}}}
	}
	return Validate(doc)
}

// Validate checks an untyped JSON value (as produced by encoding/json into
// an any) against the snapshot schema. Shape violations (missing members,
// wrong types) and value violations (priority enum, duplicate ids) are all
// collected before returning.
func Validate(doc any) Result {
	var issues Issues
	canonical, _ := snapshotSchema.normalize(doc, nil, &issues)

	raw, err := json.Marshal(canonical)
	if err != nil {
		return Result{Issues: append(issues, Issue{Message: fmt.Sprintf("cannot encode document: %v", err)})}
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Result{Issues: append(issues, Issue{Message: fmt.Sprintf("cannot decode document: %v", err)})}
	}

	issues = append(issues, ruleIssues(&s, issues)...)

	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return Result{Snapshot: &s}
}

var rules = validator.New(validator.WithRequiredStructEnabled())

// Value rules, applied with the validator to fields the shape walk accepted.
const (
	priorityRule = "oneof=high medium low none"
	uniqueIDRule = "unique=ID"
)

// ruleWalk applies the value rules to the typed snapshot. Positions the
// shape walk flagged hold zero-filled placeholders and are not checked.
type ruleWalk struct {
	shape  Issues
	issues Issues
}

func ruleIssues(s *Snapshot, shape Issues) Issues {
	w := &ruleWalk{shape: shape}
	var root path

	uniqueIDs(w, root.field("projects"), s.Projects)

	tasks := root.field("tasks")
	keys := make([]string, 0, len(s.Tasks))
	for k := range s.Tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		at := tasks.field(key)
		if w.shaded(at) {
			continue
		}
		list := s.Tasks[key]
		uniqueIDs(w, at, list)
		for i, task := range list {
			taskAt := at.index(i)
			if !w.shaded(taskAt.field("priority")) {
				w.check(taskAt.field("priority"), string(task.Priority), priorityRule)
			}
			uniqueIDs(w, taskAt.field("subtasks"), task.Subtasks)
		}
	}

	uniqueIDs(w, root.field("notes"), s.Notes)
	return w.issues
}

// uniqueIDs checks id uniqueness among the elements whose id survived the
// shape walk. Placeholders with an empty id never count as duplicates.
func uniqueIDs[T any](w *ruleWalk, at path, list []T) {
	if w.shaded(at) {
		return
	}
	clean := make([]T, 0, len(list))
	for i, item := range list {
		if !w.shaded(at.index(i).field("id")) {
			clean = append(clean, item)
		}
	}
	w.check(at, clean, uniqueIDRule)
}

func (w *ruleWalk) check(at path, value any, rule string) {
	err := rules.Var(value, rule)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		w.issues.add(at, err.Error())
		return
	}
	w.issues.add(at, ruleMessage(fieldErrs[0].Tag(), value))
}

// shaded reports whether the shape walk flagged at or one of its ancestors.
func (w *ruleWalk) shaded(at path) bool {
	p := at.String()
	for _, issue := range w.shape {
		if issue.Path == "" || issue.Path == p || strings.HasPrefix(p, issue.Path+".") {
			return true
		}
	}
	return false
}

func ruleMessage(tag string, value any) string {
	switch tag {
	case "oneof":
		quoted := make([]string, len(Priorities))
		for i, p := range Priorities {
			quoted[i] = "'" + string(p) + "'"
		}
		return fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(quoted, " | "), value)
	case "unique":
		return "Duplicate id"
	default:
		return fmt.Sprintf("Failed %q rule", tag)
	}
}
