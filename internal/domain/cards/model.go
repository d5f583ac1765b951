package cards

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/healthcare/admin-dashboard/internal/domain/insurance"
	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// Holder is the user a card belongs to.
type Holder struct {
	apiclient.Identity
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Holder) UnmarshalJSON(data []byte) error {
	type plain Holder
	var p plain
	id, err := decodeRef(data, &p)
	if err != nil {
		return err
	}
	*h = Holder(p)
	if id != "" {
		h.RawID = id
	}
	return nil
}

// Issuer is the insurance company that issued a card, with the field
// schema the card values were captured against.
type Issuer struct {
	apiclient.Identity
	Name   string                      `json:"name"`
	Logo   string                      `json:"logo,omitempty"`
	Fields []insurance.FieldDefinition `json:"fields,omitempty"`
}

func (is *Issuer) UnmarshalJSON(data []byte) error {
	type plain Issuer
	var p plain
	id, err := decodeRef(data, &p)
	if err != nil {
		return err
	}
	*is = Issuer(p)
	if id != "" {
		is.RawID = id
	}
	return nil
}

// decodeRef decodes either a bare id string or a populated document into v.
func decodeRef(data []byte, v any) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		err := json.Unmarshal(data, &id)
		return id, err
	}
	return "", json.Unmarshal(data, v)
}

// RawValue is a stored card value before it is typed against the schema.
type RawValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Card is a user's insurance card.
type Card struct {
	apiclient.Identity
	User             *Holder    `json:"user,omitempty"`
	InsuranceCompany *Issuer    `json:"insuranceCompany,omitempty"`
	Values           []RawValue `json:"values"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

func (c *Card) HolderName() string {
	if c.User != nil && c.User.Name != "" {
		return c.User.Name
	}
	return "Unknown"
}

func (c *Card) CompanyName() string {
	if c.InsuranceCompany != nil && c.InsuranceCompany.Name != "" {
		return c.InsuranceCompany.Name
	}
	return "Unknown"
}

// Row is one labelled card value ready for display.
type Row struct {
	Key      string
	Label    string
	Type     insurance.ValueType
	Value    insurance.FieldValue
	Missing  bool
	Required bool
	Unknown  bool
}

func (r Row) Text() string {
	if r.Missing {
		return "-"
	}
	return r.Value.String()
}

// Rows types every stored value against the issuer's field schema, in
// schema order. Required schema fields without a value are reported as
// missing; values for keys the schema no longer declares follow at the end.
func (c *Card) Rows() []Row {
	var fields []insurance.FieldDefinition
	if c.InsuranceCompany != nil {
		fields = c.InsuranceCompany.Fields
	}

	byKey := make(map[string]any, len(c.Values))
	for _, v := range c.Values {
		byKey[v.Key] = v.Value
	}

	rows := make([]Row, 0, len(fields)+len(c.Values))
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Key] = true
		raw, ok := byKey[f.Key]
		vt := f.ValueType
		if _, known := insurance.ParseValueType(string(vt)); !known {
			vt = insurance.ValueTypeString
		}
		row := Row{Key: f.Key, Label: f.DisplayLabel(), Type: vt, Required: f.Required}
		if !ok || raw == nil {
			if !f.Required {
				continue
			}
			row.Missing = true
		} else {
			row.Value = insurance.FieldValue{Key: f.Key, Value: insurance.ParseValue(vt, raw)}
		}
		rows = append(rows, row)
	}

	for _, v := range c.Values {
		if declared[v.Key] {
			continue
		}
		rows = append(rows, Row{
			Key:     v.Key,
			Label:   insurance.DeriveLabel(v.Key),
			Type:    insurance.ValueTypeString,
			Value:   insurance.FieldValue{Key: v.Key, Value: insurance.ParseValue(insurance.ValueTypeString, v.Value)},
			Unknown: true,
		})
	}
	return rows
}

// Complete reports whether every required schema field has a value.
func (c *Card) Complete() bool {
	for _, r := range c.Rows() {
		if r.Missing {
			return false
		}
	}
	return true
}
