package insurance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

// Payload is a validated company submission in the shape the API expects.
type Payload struct {
	Name        string
	Description string
	IsActive    bool
	Fields      []FieldDefinition
	Logo        *StagedLogo
}

// Encode converts validated form state into a submission payload.
func Encode(f *RecordForm) Payload {
	return Payload{
		Name:        f.Name,
		Description: f.Description,
		IsActive:    f.IsActive,
		Fields:      f.Editor.Fields(),
		Logo:        f.staged,
	}
}

// Parts returns the text form parts in submission order. fields is present
// only when at least one field is defined.
func (p Payload) Parts() ([][2]string, error) {
	parts := [][2]string{
		{"name", p.Name},
		{"description", p.Description},
		{"isActive", strconv.FormatBool(p.IsActive)},
	}
	if len(p.Fields) > 0 {
		b, err := json.Marshal(p.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode fields: %w", err)
		}
		parts = append(parts, [2]string{"fields", string(b)})
	}
	return parts, nil
}

// Multipart writes the payload as a multipart/form-data body. The logo is
// sent under "image" only when one was staged.
func (p Payload) Multipart() (*bytes.Buffer, string, error) {
	parts, err := p.Parts()
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, kv := range parts {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", kv[0], err)
		}
	}

	if p.Logo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(p.Logo.Filename)))
		h.Set("Content-Type", p.Logo.ContentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := pw.Write(p.Logo.Data); err != nil {
			return nil, "", fmt.Errorf("write image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	if s == "" {
		return "logo"
	}
	return quoteEscaper.Replace(s)
}
