package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brown-cs19/autograder/internal/models"
)

const gradescopeMetadata = `{
  "id": 123456,
  "created_at": "2021-02-28T18:22:05.123456-08:00",
  "assignment": {
    "title": "Homework One",
    "due_date": "2021-03-01T23:59:00.000000-08:00",
    "late_due_date": null
  },
  "users": [
    {"name": "Ada Lovelace", "sid": "B001", "email": "ada@example.edu"}
  ]
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submission_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGradescopeMetadata(t *testing.T) {
	meta, err := Load(writeFile(t, gradescopeMetadata))
	require.NoError(t, err)

	require.Equal(t, "Homework One", meta.Assignment.Title)
	require.Nil(t, meta.Assignment.LateDueDate)

	want := time.Date(2021, 3, 2, 7, 59, 0, 0, time.UTC)
	require.True(t, meta.Assignment.DueAt().Equal(want), "due at %v", meta.Assignment.DueAt())
	require.True(t, meta.Assignment.EffectiveDeadline().Equal(want))
}

func TestLoadLateDueDate(t *testing.T) {
	meta, err := Decode([]byte(`{"assignment":{"title":"T","due_date":"2021-03-01T00:00:00Z","late_due_date":"2021-03-04T00:00:00Z"}}`))
	require.NoError(t, err)

	late, ok := meta.Assignment.LateDueAt()
	require.True(t, ok)
	require.True(t, late.Equal(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)))
	require.True(t, meta.Assignment.EffectiveDeadline().Equal(late))
}

func TestLoadMissingFileIsIOError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadInvalidJSONIsParseError(t *testing.T) {
	_, err := Load(writeFile(t, `{"assignment": {`))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDecodeSchemaErrors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		fields []string
	}{
		{name: "not an object", input: `[1, 2]`, fields: []string{""}},
		{name: "missing assignment", input: `{}`, fields: []string{"assignment"}},
		{name: "assignment not object", input: `{"assignment": "hw1"}`, fields: []string{"assignment"}},
		{
			name:   "missing title and due date",
			input:  `{"assignment": {}}`,
			fields: []string{"assignment.title", "assignment.due_date"},
		},
		{
			name:   "title not a string",
			input:  `{"assignment": {"title": 7, "due_date": "2021-03-01T00:00:00Z"}}`,
			fields: []string{"assignment.title"},
		},
		{
			name:   "unparseable due date",
			input:  `{"assignment": {"title": "T", "due_date": "next tuesday"}}`,
			fields: []string{"assignment.due_date"},
		},
		{
			name:   "unparseable late due date",
			input:  `{"assignment": {"title": "T", "due_date": "2021-03-01T00:00:00Z", "late_due_date": "soon"}}`,
			fields: []string{"assignment.late_due_date"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.Len(t, schemaErr.Fields.Errors, len(tc.fields))
			for i, field := range tc.fields {
				require.Equal(t, field, schemaErr.Fields.Errors[i].Field)
			}
		})
	}
}

func TestDecodeSchemaErrorMatchesSentinel(t *testing.T) {
	_, err := Decode([]byte(`{"assignment": {"title": "T", "due_date": "bad"}}`))
	require.ErrorIs(t, err, models.ErrInvalidTimestamp)

	_, err = Decode([]byte(`{"assignment": {"due_date": "2021-03-01"}}`))
	require.ErrorIs(t, err, models.ErrFieldRequired)
}

func TestLateBeforeDueIsNotRejected(t *testing.T) {
	meta, err := Decode([]byte(`{"assignment":{"title":"T","due_date":"2021-03-05T00:00:00Z","late_due_date":"2021-03-01T00:00:00Z"}}`))
	require.NoError(t, err)
	require.True(t, meta.Assignment.LateBeforeDue())
}

func TestDecodeSubmission(t *testing.T) {
	sub, err := DecodeSubmission([]byte(gradescopeMetadata))
	require.NoError(t, err)
	require.Equal(t, "123456", sub.ID)
	require.Equal(t, "2021-02-28T18:22:05.123456-08:00", sub.CreatedAt)
	require.Equal(t, []models.User{{Name: "Ada Lovelace", SID: "B001", Email: "ada@example.edu"}}, sub.Users)
}

func TestDecodeSubmissionRequiresIdentity(t *testing.T) {
	_, err := DecodeSubmission([]byte(`{"assignment": {"title": "T", "due_date": "2021-03-01"}}`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "id", schemaErr.Fields.Errors[0].Field)

	_, err = DecodeSubmission([]byte(`{"id": "abc", "users": [{"name": "No Email"}]}`))
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "users[0].email", schemaErr.Fields.Errors[0].Field)
}
