package insurance

import (
	"net/url"
	"strconv"
)

// ValueForm is the fill-in form for a company's dynamic fields. Each field
// gets a slot id derived from its position and key; input and errors are
// tracked per slot.
type ValueForm struct {
	fields []FieldDefinition
	slots  []string
	raw    map[string]string
	errors map[string]string
}

// NewValueForm builds an empty fill-in form for the given schema.
func NewValueForm(fields []FieldDefinition) *ValueForm {
	v := &ValueForm{
		fields: fields,
		slots:  make([]string, len(fields)),
		raw:    make(map[string]string),
		errors: make(map[string]string),
	}
	for i, f := range fields {
		v.slots[i] = strconv.Itoa(i) + "-" + f.Key
	}
	return v
}

// Slots returns the slot ids in schema order.
func (v *ValueForm) Slots() []string {
	out := make([]string, len(v.slots))
	copy(out, v.slots)
	return out
}

// Set stores raw input for a slot.
func (v *ValueForm) Set(slot, raw string) {
	v.raw[slot] = raw
}

// Bind reads values[<slot>] inputs from a posted form.
func (v *ValueForm) Bind(form url.Values) {
	for _, slot := range v.slots {
		if vals, ok := form["values["+slot+"]"]; ok && len(vals) > 0 {
			v.raw[slot] = vals[0]
		}
	}
}

// Prefill loads stored values, matching each to the first slot with the
// same key.
func (v *ValueForm) Prefill(values []FieldValue) {
	used := make(map[int]bool)
	for _, fv := range values {
		for i, f := range v.fields {
			if used[i] || f.Key != fv.Key {
				continue
			}
			used[i] = true
			v.raw[v.slots[i]] = fv.String()
			break
		}
	}
}

// Validate checks every slot and returns the typed values of all non-empty
// inputs. Errors are recorded per slot.
func (v *ValueForm) Validate() ([]FieldValue, bool) {
	v.errors = make(map[string]string)
	var out []FieldValue
	for i, f := range v.fields {
		slot := v.slots[i]
		val, msg := RuleFor(f).Check(v.raw[slot])
		if msg != "" {
			v.errors[slot] = msg
			continue
		}
		if val != nil {
			out = append(out, FieldValue{Key: f.Key, Value: val})
		}
	}
	return out, len(v.errors) == 0
}

// ErrorFor returns the message recorded for slot, if any.
func (v *ValueForm) ErrorFor(slot string) string {
	return v.errors[slot]
}

// Errors returns a copy of the recorded errors keyed by slot.
func (v *ValueForm) Errors() map[string]string {
	out := make(map[string]string, len(v.errors))
	for k, msg := range v.errors {
		out[k] = msg
	}
	return out
}

// Controls renders every field with its current input and error.
func (v *ValueForm) Controls(disabled bool) []Control {
	out := make([]Control, len(v.fields))
	for i, f := range v.fields {
		c := Render(f, v.slots[i], disabled)
		c.Value = v.raw[v.slots[i]]
		c.Error = v.errors[v.slots[i]]
		out[i] = c
	}
	return out
}
