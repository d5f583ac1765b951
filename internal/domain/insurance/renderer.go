package insurance

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is the typed payload of a filled-in field. It is one of Text,
// Number or Date.
type Value interface {
	valueType() ValueType
	raw() any
}

// Text is a string field value.
type Text string

// Number is a numeric field value.
type Number float64

// Date is an ISO YYYY-MM-DD field value.
type Date string

func (Text) valueType() ValueType   { return ValueTypeString }
func (Number) valueType() ValueType { return ValueTypeNumber }
func (Date) valueType() ValueType   { return ValueTypeDate }

func (v Text) raw() any   { return string(v) }
func (v Number) raw() any { return float64(v) }
func (v Date) raw() any   { return string(v) }

// FieldValue is one filled-in field, as stored on an insurance card.
type FieldValue struct {
	Key   string
	Value Value
}

func (fv FieldValue) MarshalJSON() ([]byte, error) {
	var v any
	if fv.Value != nil {
		v = fv.Value.raw()
	}
	return json.Marshal(struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}{fv.Key, v})
}

// String formats the value for display.
func (fv FieldValue) String() string {
	switch v := fv.Value.(type) {
	case Number:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case Text:
		return string(v)
	case Date:
		return string(v)
	}
	return ""
}

const dateLayout = "2006-01-02"

// Control is everything a template needs to draw one dynamic input.
type Control struct {
	Name        string
	Slot        string
	Kind        InputKind
	Label       string
	Placeholder string
	Required    bool
	Disabled    bool
	Value       string
	Error       string
}

// Render builds the input control for field at slot. The caller fills in
// Value and Error from its own form state.
func Render(field FieldDefinition, slot string, disabled bool) Control {
	label := field.DisplayLabel()
	return Control{
		Name:        "values[" + slot + "]",
		Slot:        slot,
		Kind:        InputKindFor(field.ValueType),
		Label:       label,
		Placeholder: "Enter " + strings.ToLower(label),
		Required:    field.Required,
		Disabled:    disabled,
	}
}

// Rule validates and coerces raw input for one field.
type Rule struct {
	Key      string
	Label    string
	Type     ValueType
	Required bool
}

// RuleFor derives the validation rule for a field definition.
func RuleFor(field FieldDefinition) Rule {
	return Rule{
		Key:      field.Key,
		Label:    field.DisplayLabel(),
		Type:     field.ValueType,
		Required: field.Required,
	}
}

// Check validates raw against the rule. It returns the typed value, or a
// user-facing message when the input is rejected. An empty optional input
// yields neither.
func (r Rule) Check(raw string) (Value, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if r.Required {
			return nil, fmt.Sprintf("%s is required", r.Label)
		}
		return nil, ""
	}

	switch InputKindFor(r.Type) {
	case InputNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Sprintf("%s must be a number", r.Label)
		}
		if n < 0 {
			return nil, fmt.Sprintf("%s must be positive", r.Label)
		}
		return Number(n), ""
	case InputDate:
		if _, err := time.Parse(dateLayout, raw); err != nil {
			return nil, fmt.Sprintf("%s must be a valid date", r.Label)
		}
		return Date(raw), ""
	default:
		return Text(raw), ""
	}
}

// ParseValue converts a stored card value back into a typed Value using the
// field's declared type. JSON numbers arrive as float64.
func ParseValue(vt ValueType, v any) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if vt == ValueTypeNumber {
			return Number(x)
		}
		return Text(strconv.FormatFloat(x, 'f', -1, 64))
	case string:
		switch vt {
		case ValueTypeNumber:
			if n, err := strconv.ParseFloat(x, 64); err == nil {
				return Number(n)
			}
		case ValueTypeDate:
			if len(x) >= len(dateLayout) {
				if _, err := time.Parse(dateLayout, x[:len(dateLayout)]); err == nil {
					return Date(x[:len(dateLayout)])
				}
			}
		}
		return Text(x)
	case bool:
		return Text(strconv.FormatBool(x))
	}
	return Text(fmt.Sprint(v))
}
