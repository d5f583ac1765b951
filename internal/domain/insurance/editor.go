package insurance

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Entry is one row of the field set editor. ID is assigned when the row is
// created and never changes, so errors survive removal of earlier rows.
type Entry struct {
	ID string
	FieldDefinition
}

// LabelPlaceholder is the hint shown in an empty label input.
func (e Entry) LabelPlaceholder() string {
	if d := DeriveLabel(e.Key); d != "" {
		return d
	}
	return "Auto-generated"
}

// KnownType reports whether the entry's value type is one the editor offers.
func (e Entry) KnownType() bool {
	_, ok := ParseValueType(string(e.ValueType))
	return ok
}

// EntryErrors holds the validation messages for one entry.
type EntryErrors struct {
	Key  string
	Type string
}

// Editor edits an ordered set of field definitions. Rows are only appended
// at the end or removed by index.
type Editor struct {
	entries []Entry
	errors  map[string]EntryErrors
}

// NewEditor starts an editor from an existing field list. A field without a
// value type is treated as a string field.
func NewEditor(fields []FieldDefinition) *Editor {
	e := &Editor{errors: make(map[string]EntryErrors)}
	for _, f := range fields {
		if f.ValueType == "" {
			f.ValueType = ValueTypeString
		}
		e.entries = append(e.entries, Entry{ID: uuid.NewString(), FieldDefinition: f})
	}
	return e
}

// AddField appends a blank string field and returns it.
func (e *Editor) AddField() Entry {
	entry := Entry{
		ID: uuid.NewString(),
		FieldDefinition: FieldDefinition{
			ValueType: ValueTypeString,
		},
	}
	e.entries = append(e.entries, entry)
	return entry
}

// RemoveField deletes the entry at index. Later entries shift down and keep
// their errors.
func (e *Editor) RemoveField(index int) error {
	if index < 0 || index >= len(e.entries) {
		return fmt.Errorf("field index %d out of range", index)
	}
	delete(e.errors, e.entries[index].ID)
	e.entries = append(e.entries[:index:index], e.entries[index+1:]...)
	return nil
}

// Entries returns the current rows in order.
func (e *Editor) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Fields returns the field definitions in order.
func (e *Editor) Fields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(e.entries))
	for _, en := range e.entries {
		out = append(out, en.FieldDefinition)
	}
	return out
}

func (e *Editor) IsEmpty() bool { return len(e.entries) == 0 }

func (e *Editor) Count() int { return len(e.entries) }

// CountLabel renders the "N fields defined" summary.
func (e *Editor) CountLabel() string {
	if len(e.entries) == 1 {
		return "1 field defined"
	}
	return strconv.Itoa(len(e.entries)) + " fields defined"
}

// Validate checks every entry's key and value type and records errors by
// entry id. It reports whether all entries are valid. Duplicate keys are
// accepted. A type outside ValueTypes is kept for display but cannot be saved.
func (e *Editor) Validate() bool {
	e.errors = make(map[string]EntryErrors)
	for _, en := range e.entries {
		var errs EntryErrors
		switch {
		case en.Key == "":
			errs.Key = "Key is required"
		case !ValidKey(en.Key):
			errs.Key = "Key must be camelCase"
		}
		if !en.KnownType() {
			errs.Type = "Choose a supported type"
		}
		if errs != (EntryErrors{}) {
			e.errors[en.ID] = errs
		}
	}
	return len(e.errors) == 0
}

// ErrorFor returns the errors recorded for an entry id.
func (e *Editor) ErrorFor(id string) EntryErrors {
	return e.errors[id]
}

// Errors returns a copy of all recorded errors keyed by entry id.
func (e *Editor) Errors() map[string]EntryErrors {
	out := make(map[string]EntryErrors, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// EditorFromForm rebuilds an editor from posted fields[i].* values. Indices
// need not be contiguous; rows are ordered by index. A row without an id is
// given a fresh one.
func EditorFromForm(form url.Values) *Editor {
	rows := make(map[int]*Entry)
	for name, vals := range form {
		idx, attr, ok := parseFieldName(name)
		if !ok || len(vals) == 0 {
			continue
		}
		row, exists := rows[idx]
		if !exists {
			row = &Entry{FieldDefinition: FieldDefinition{ValueType: ValueTypeString}}
			rows[idx] = row
		}
		v := vals[len(vals)-1]
		switch attr {
		case "id":
			row.ID = v
		case "key":
			row.Key = strings.TrimSpace(v)
		case "label":
			row.Label = strings.TrimSpace(v)
		case "valueType":
			if v != "" {
				row.ValueType = ValueType(v)
			}
		case "required":
			row.Required = v == "true" || v == "on" || v == "1"
		}
	}

	indices := make([]int, 0, len(rows))
	for i := range rows {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	e := &Editor{errors: make(map[string]EntryErrors)}
	for _, i := range indices {
		row := rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		e.entries = append(e.entries, *row)
	}
	return e
}

// parseFieldName splits "fields[3].key" into 3 and "key".
func parseFieldName(name string) (int, string, bool) {
	rest, ok := strings.CutPrefix(name, "fields[")
	if !ok {
		return 0, "", false
	}
	idxStr, attr, ok := strings.Cut(rest, "].")
	if !ok {
		return 0, "", false
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, "", false
	}
	return idx, attr, true
}
