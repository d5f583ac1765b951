package insurance

import (
	"strings"
	"unicode"
)

// DeriveLabel turns a camelCase key into a display label: a space is
// inserted before every uppercase letter, the first character is upper-cased
// and the result is trimmed. "policyNumber" becomes "Policy Number".
func DeriveLabel(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := []rune(b.String())
	if len(out) > 0 {
		out[0] = unicode.ToUpper(out[0])
	}
	return strings.TrimSpace(string(out))
}

// InputKind is the HTML input type used for a value type.
type InputKind string

const (
	InputText   InputKind = "text"
	InputNumber InputKind = "number"
	InputDate   InputKind = "date"
)

// InputKindFor maps a value type to its input kind. Anything unrecognised
// falls back to text.
func InputKindFor(vt ValueType) InputKind {
	switch vt {
	case ValueTypeNumber:
		return InputNumber
	case ValueTypeDate:
		return InputDate
	default:
		return InputText
	}
}
