package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalUpload = `{
	"timestamp": "2024-01-01T00:00:00Z",
	"projects": [{"id": "p1", "name": "Home", "created_at": "2024-01-01T00:00:00Z"}],
	"tasks": {"p1": [{"id": "t1", "title": "Buy milk", "completed": false, "created_at": "2024-01-01T00:00:00Z"}]},
	"notes": []
}`

func ptr(s string) *string { return &s }

func TestDecode_AppliesDefaults(t *testing.T) {
	res := Decode([]byte(minimalUpload))
	require.True(t, res.OK(), res.Issues.String())
	require.NoError(t, res.Err())

	want := &Snapshot{
		Timestamp: "2024-01-01T00:00:00Z",
		Projects:  []Project{{ID: "p1", Name: "Home", CreatedAt: "2024-01-01T00:00:00Z"}},
		Tasks: map[string][]Task{
			"p1": {{
				ID:          "t1",
				Title:       "Buy milk",
				Description: "",
				Notes:       "",
				Completed:   false,
				CreatedAt:   "2024-01-01T00:00:00Z",
				Subtasks:    []Subtask{},
				ProjectID:   "",
				Priority:    PriorityNone,
			}},
		},
		Notes: []Note{},
	}

	if diff := cmp.Diff(want, res.Snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_EncodedFormCarriesDefaults(t *testing.T) {
	res := Decode([]byte(minimalUpload))
	require.True(t, res.OK())

	raw, err := Encode(res.Snapshot)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	task := doc["tasks"].(map[string]any)["p1"].([]any)[0].(map[string]any)
	assert.Equal(t, "", task["description"])
	assert.Equal(t, "", task["notes"])
	assert.Equal(t, []any{}, task["subtasks"])
	assert.Equal(t, "none", task["priority"])
	assert.Equal(t, "", task["project_id"])
	assert.Contains(t, task, "completed_at")
	assert.Nil(t, task["completed_at"])
}

func TestDecode_NoteDefaults(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"tasks":{},"notes":[
		{"id":"n1","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}
	]}`

	res := Decode([]byte(doc))
	require.True(t, res.OK(), res.Issues.String())
	require.Len(t, res.Snapshot.Notes, 1)
	assert.Equal(t, DefaultNoteTitle, res.Snapshot.Notes[0].Title)
	assert.Equal(t, "", res.Snapshot.Notes[0].Content)
}

func TestDecode_RejectsUnknownPriority(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"notes":[],"tasks":{"proj1":[
		{"id":"a","title":"a","completed":false,"created_at":"c"},
		{"id":"b","title":"b","completed":false,"created_at":"c","priority":"high"},
		{"id":"c","title":"c","completed":false,"created_at":"c","priority":"urgent"}
	]}}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())
	require.Nil(t, res.Snapshot)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "tasks.proj1.2.priority", res.Issues[0].Path)
	assert.Equal(t, "Invalid enum value. Expected 'high' | 'medium' | 'low' | 'none', received 'urgent'", res.Issues[0].Message)
}

func TestDecode_PriorityWrongTypeReportedOnce(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"notes":[],"tasks":{"p":[
		{"id":"a","title":"a","completed":false,"created_at":"c","priority":3}
	]}}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())
	assert.Equal(t, Issues{{Path: "tasks.p.0.priority", Message: "Expected string, received number"}}, res.Issues)
}

func TestDecode_CollectsEveryIssue(t *testing.T) {
	doc := `{
		"projects": [{"id": "p1", "name": 5, "created_at": "c"}, "oops"],
		"tasks": {
			"p1": [
				{"id": "t1", "completed": "yes", "created_at": "c",
				 "subtasks": [{"id": "s1", "title": "s", "completed": true}, {"id": "s2", "title": "s"}]},
				{"id": "t2", "title": "ok", "completed": true, "created_at": "c", "priority": "later"}
			],
			"p2": "not a list"
		},
		"notes": [{"id": "n1", "created_at": "c"}]
	}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())

	want := Issues{
		{Path: "timestamp", Message: "Required"},
		{Path: "projects.0.name", Message: "Expected string, received number"},
		{Path: "projects.1", Message: "Expected object, received string"},
		{Path: "tasks.p1.0.title", Message: "Required"},
		{Path: "tasks.p1.0.completed", Message: "Expected boolean, received string"},
		{Path: "tasks.p1.0.subtasks.1.completed", Message: "Required"},
		{Path: "tasks.p2", Message: "Expected array, received string"},
		{Path: "notes.0.updated_at", Message: "Required"},
		{Path: "tasks.p1.1.priority", Message: "Invalid enum value. Expected 'high' | 'medium' | 'low' | 'none', received 'later'"},
	}
	assert.Equal(t, want, res.Issues)

	var verr *ValidationError
	require.ErrorAs(t, res.Err(), &verr)
	assert.Len(t, verr.Issues, len(want))
}

func TestDecode_CompletedAt(t *testing.T) {
	tmpl := func(v string) string {
		return `{"timestamp":"x","projects":[],"notes":[],"tasks":{"p":[
			{"id":"a","title":"a","completed":true,"created_at":"c"` + v + `}]}}`
	}

	res := Decode([]byte(tmpl(`,"completed_at":"2024-01-02T10:00:00"`)))
	require.True(t, res.OK(), res.Issues.String())
	assert.Equal(t, ptr("2024-01-02T10:00:00"), res.Snapshot.Tasks["p"][0].CompletedAt)

	res = Decode([]byte(tmpl(`,"completed_at":null`)))
	require.True(t, res.OK(), res.Issues.String())
	assert.Nil(t, res.Snapshot.Tasks["p"][0].CompletedAt)

	res = Decode([]byte(tmpl(``)))
	require.True(t, res.OK(), res.Issues.String())
	assert.Nil(t, res.Snapshot.Tasks["p"][0].CompletedAt)

	res = Decode([]byte(tmpl(`,"completed_at":17`)))
	require.False(t, res.OK())
	assert.Equal(t, "tasks.p.0.completed_at: Expected string, received number", res.Issues.String())
}

func TestDecode_NullForRequiredField(t *testing.T) {
	res := Decode([]byte(`{"timestamp":null,"projects":[],"tasks":{},"notes":[]}`))
	require.False(t, res.OK())
	assert.Equal(t, "timestamp: Expected string, received null", res.Issues.String())
}

func TestDecode_RootMustBeObject(t *testing.T) {
	res := Decode([]byte(`[1,2,3]`))
	require.False(t, res.OK())
	assert.Equal(t, Issues{{Path: "", Message: "Expected object, received array"}}, res.Issues)
	assert.Equal(t, "Expected object, received array", res.Err().Error())
}

func TestDecode_MalformedJSON(t *testing.T) {
	res := Decode([]byte(`{"timestamp":`))
	require.False(t, res.OK())
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "", res.Issues[0].Path)
	assert.Contains(t, res.Issues[0].Message, "Invalid JSON")
}

func TestDecode_DropsUnknownMembers(t *testing.T) {
	doc := `{"timestamp":"x","version":2,"projects":[{"id":"p","name":"n","created_at":"c","color":"red"}],"tasks":{},"notes":[]}`

	res := Decode([]byte(doc))
	require.True(t, res.OK(), res.Issues.String())

	raw, err := Encode(res.Snapshot)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "version")
	assert.NotContains(t, string(raw), "color")
}

func TestDecode_DuplicateIDs(t *testing.T) {
	doc := `{"timestamp":"x",
		"projects":[{"id":"p","name":"a","created_at":"c"},{"id":"p","name":"b","created_at":"c"}],
		"tasks":{"p":[
			{"id":"t","title":"a","completed":false,"created_at":"c",
			 "subtasks":[{"id":"s","title":"a","completed":false},{"id":"s","title":"b","completed":true}]},
			{"id":"u","title":"b","completed":false,"created_at":"c"}
		],"q":[
			{"id":"t","title":"a","completed":false,"created_at":"c"},
			{"id":"t","title":"b","completed":false,"created_at":"c"}
		]},
		"notes":[]}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())

	assert.True(t, res.Issues.Has("projects"), res.Issues.String())
	assert.True(t, res.Issues.Has("tasks.q"), res.Issues.String())
	assert.False(t, res.Issues.Has("tasks.p"), res.Issues.String())
	assert.True(t, res.Issues.Has("tasks.p.0.subtasks"), res.Issues.String())
	for _, issue := range res.Issues {
		assert.Equal(t, "Duplicate id", issue.Message)
	}
}

func TestDecode_OrphanTaskListAccepted(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"notes":[],"tasks":{"inbox":[
		{"id":"t","title":"a","completed":false,"created_at":"c"}]}}`

	res := Decode([]byte(doc))
	require.True(t, res.OK(), res.Issues.String())
	assert.Equal(t, 1, res.Snapshot.TaskCount())
}

func TestValidate_RoundTrip(t *testing.T) {
	snapshots := []*Snapshot{
		{
			Timestamp: "2024-05-01T12:00:00.123456",
			Projects:  []Project{},
			Tasks:     map[string][]Task{},
			Notes:     []Note{},
		},
		{
			Timestamp: "2024-05-01T12:00:00Z",
			Projects: []Project{
				{ID: "p1", Name: "Work", CreatedAt: "2024-01-01T00:00:00Z"},
				{ID: "p2", Name: "Home", CreatedAt: "2024-01-02T00:00:00Z"},
			},
			Tasks: map[string][]Task{
				"p1": {
					{
						ID: "t1", Title: "Ship", Description: "release 1.0", Notes: "- changelog",
						Completed: true, CreatedAt: "2024-01-01T00:00:00Z", CompletedAt: ptr("2024-01-03T00:00:00Z"),
						Subtasks:  []Subtask{{ID: "s1", Title: "tag", Completed: true}, {ID: "s2", Title: "notes", Completed: false}},
						ProjectID: "p1", Priority: PriorityHigh,
					},
					{
						ID: "t2", Title: "Plan", CreatedAt: "2024-01-01T00:00:00Z",
						Subtasks: []Subtask{}, Priority: PriorityLow,
					},
				},
				"": {
					{ID: "t3", Title: "Unassigned", CreatedAt: "c", Subtasks: []Subtask{}, Priority: PriorityMedium},
				},
			},
			Notes: []Note{
				{ID: "n1", Title: "Scratch", Content: "# hi", CreatedAt: "a", UpdatedAt: "b"},
			},
		},
	}

	for _, s := range snapshots {
		raw, err := Encode(s)
		require.NoError(t, err)

		res := Decode(raw)
		require.True(t, res.OK(), res.Issues.String())
		if diff := cmp.Diff(s, res.Snapshot); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestValidate_AcceptsDecodedValue(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(minimalUpload), &doc))

	res := Validate(doc)
	require.True(t, res.OK())
	assert.Equal(t, "Buy milk", res.Snapshot.Tasks["p1"][0].Title)
}

func TestIssues_String(t *testing.T) {
	is := Issues{
		{Path: "tasks.p1.0.title", Message: "Required"},
		{Path: "", Message: "Expected object, received array"},
	}
	assert.Equal(t, "tasks.p1.0.title: Required, Expected object, received array", is.String())
	assert.Equal(t, "", Issues(nil).String())
}

func TestDecode_DuplicateReportedAlongsideSiblingIssue(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"notes":[],"tasks":{"p1":[
		{"id":"t1","title":"a","completed":false,"created_at":"c"},
		{"id":"t1","title":"b","completed":false,"created_at":"c"},
		{"id":"t2","completed":false,"created_at":"c"}
	]}}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())

	want := Issues{
		{Path: "tasks.p1.2.title", Message: "Required"},
		{Path: "tasks.p1", Message: "Duplicate id"},
	}
	assert.Empty(t, cmp.Diff(want, res.Issues))
}

func TestDecode_PlaceholderIDsAreNotDuplicates(t *testing.T) {
	doc := `{"timestamp":"x","tasks":{},
		"projects":[{"name":"a","created_at":"c"},{"name":"b","created_at":"c"}],
		"notes":["x", 1]}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())

	want := Issues{
		{Path: "projects.0.id", Message: "Required"},
		{Path: "projects.1.id", Message: "Required"},
		{Path: "notes.0", Message: "Expected object, received string"},
		{Path: "notes.1", Message: "Expected object, received number"},
	}
	assert.Empty(t, cmp.Diff(want, res.Issues))
}

func TestDecode_RulePathsKeepMapKeys(t *testing.T) {
	doc := `{"timestamp":"x","projects":[],"notes":[],"tasks":{
		"a]b":[{"id":"t","title":"a","completed":false,"created_at":"c","priority":"urgent"}],
		"[x]":[
			{"id":"t","title":"a","completed":false,"created_at":"c"},
			{"id":"t","title":"b","completed":false,"created_at":"c"}
		]}}`

	res := Decode([]byte(doc))
	require.False(t, res.OK())

	assert.True(t, res.Issues.Has("tasks.[x]"), res.Issues.String())
	assert.True(t, res.Issues.Has("tasks.a]b.0.priority"), res.Issues.String())
	assert.Len(t, res.Issues, 2)
}
