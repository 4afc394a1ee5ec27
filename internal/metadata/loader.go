// Package metadata reads and validates assignment metadata files.
package metadata

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/models"
)

// Read returns the raw contents of a metadata file.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return data, nil
}

// Load reads, parses and validates the metadata file at path.
func Load(path string) (*models.Metadata, error) {
	data, err := Read(path)
	if err != nil {
		return nil, err
	}
	meta, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	logger := logging.Component("metadata")
	logger.Debug().
		Str("path", path).
		Str("title", meta.Assignment.Title).
		Time("due", meta.Assignment.DueAt()).
		Msg("loaded metadata")
	if meta.Assignment.LateBeforeDue() {
		late, _ := meta.Assignment.LateDueAt()
		logger.Warn().
			Str("path", path).
			Time("due", meta.Assignment.DueAt()).
			Time("late_due", late).
			Msg("late due date precedes due date")
	}
	return meta, nil
}

// Decode parses and validates metadata from raw bytes.
func Decode(data []byte) (*models.Metadata, error) {
	return decode("", data)
}

func decode(path string, data []byte) (*models.Metadata, error) {
	top, err := parseRoot(path, data)
	if err != nil {
		return nil, err
	}

	validation := &models.ValidationErrors{}
	obj, ok := objectField(validation, top, "assignment")
	if !ok {
		return nil, schemaError(path, validation)
	}

	title, _ := stringField(validation, obj, "assignment", "title", true)
	due, _ := stringField(validation, obj, "assignment", "due_date", true)
	late, hasLate := stringField(validation, obj, "assignment", "late_due_date", false)
	if validation.Len() > 0 {
		return nil, schemaError(path, validation)
	}

	var lateDue *string
	if hasLate {
		lateDue = &late
	}
	assignment, err := models.NewAssignment(title, due, lateDue)
	if err != nil {
		validation.Add("assignment", err)
		return nil, schemaError(path, validation)
	}

	return &models.Metadata{Assignment: assignment}, nil
}

// DecodeSubmission extracts the submission identity fields (id,
// created_at, users) from raw metadata.
func DecodeSubmission(data []byte) (models.Submission, error) {
	top, err := parseRoot("", data)
	if err != nil {
		return models.Submission{}, err
	}

	validation := &models.ValidationErrors{}
	var sub models.Submission

	switch raw, ok := top["id"]; {
	case !ok || isNull(raw):
		validation.Add("id", models.ErrFieldRequired)
	default:
		id, err := idText(raw)
		if err != nil {
			validation.Add("id", err)
		}
		sub.ID = id
	}

	sub.CreatedAt, _ = stringField(validation, top, "", "created_at", false)

	if raw, ok := top["users"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &sub.Users); err != nil {
			validation.Add("users", models.ErrInvalidUsers)
		}
	}

	if validation.Len() == 0 {
		validation.Add("", sub.Validate())
	}
	if err := schemaError("", validation); err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

func parseRoot(path string, data []byte) (map[string]json.RawMessage, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		validation := &models.ValidationErrors{}
		validation.AddMessage("", "metadata must be a JSON object")
		return nil, schemaError(path, validation)
	}
	return top, nil
}

func objectField(validation *models.ValidationErrors, parent map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := parent[key]
	if !ok || isNull(raw) {
		validation.Add(key, models.ErrFieldRequired)
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		validation.Add(key, models.ErrNotObject)
		return nil, false
	}
	return obj, true
}

// stringField reads a string member. A missing or null member is an error
// only when required; the boolean reports whether a string was found.
func stringField(validation *models.ValidationErrors, obj map[string]json.RawMessage, prefix, key string, required bool) (string, bool) {
	field := key
	if prefix != "" {
		field = prefix + "." + key
	}

	raw, ok := obj[key]
	if !ok || isNull(raw) {
		if required {
			validation.Add(field, models.ErrFieldRequired)
		}
		return "", false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		validation.Add(field, models.ErrNotString)
		return "", false
	}
	return value, true
}

func idText(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var number json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&number); err == nil {
		return number.String(), nil
	}
	return "", models.ErrInvalidID
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
