package insurance

import (
	"regexp"
	"time"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// ValueType is the declared data type of a dynamic field.
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeNumber ValueType = "number"
	ValueTypeDate   ValueType = "date"
)

// ValueTypes lists the selectable value types in display order.
var ValueTypes = []ValueType{ValueTypeString, ValueTypeNumber, ValueTypeDate}

// ParseValueType reports whether s names a known value type. Unknown types
// are still carried on a FieldDefinition untouched; they render as text.
func ParseValueType(s string) (ValueType, bool) {
	switch ValueType(s) {
	case ValueTypeString, ValueTypeNumber, ValueTypeDate:
		return ValueType(s), true
	}
	return ValueTypeString, false
}

var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// ValidKey reports whether key is a camelCase field identifier.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// FieldDefinition describes one company-specific card field.
type FieldDefinition struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	ValueType ValueType `json:"valueType"`
	Required  bool      `json:"required"`
}

// DisplayLabel returns the label, deriving one from the key when empty.
func (f FieldDefinition) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return DeriveLabel(f.Key)
}

// Company is an insurance company as returned by the API.
type Company struct {
	apiclient.Identity
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Logo        string            `json:"logo,omitempty"`
	IsActive    bool              `json:"isActive"`
	Fields      []FieldDefinition `json:"fields"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

// StatusLabel is the badge text shown in lists.
func (c *Company) StatusLabel() string {
	if c.IsActive {
		return "Active"
	}
	return "Inactive"
}

// ListFilter narrows the company list screen.
type ListFilter struct {
	Search string
	Active *bool
}
