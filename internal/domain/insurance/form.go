package insurance

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// MaxLogoSize is the largest logo accepted for upload.
const MaxLogoSize = 2 << 20

var (
	ErrLogoTooLarge   = errors.New("Image size must be less than 2MB")
	ErrInvalidLogoURL = errors.New("invalid staged logo")
)

// StagedLogo is a logo file selected in the current form session but not
// yet submitted.
type StagedLogo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataURL renders the logo as an inline data: URL for previews.
func (l *StagedLogo) DataURL() string {
	return "data:" + l.ContentType + ";base64," + base64.StdEncoding.EncodeToString(l.Data)
}

// RecordForm is the create/edit state of one insurance company.
type RecordForm struct {
	Name         string
	Description  string
	IsActive     bool
	ExistingLogo string
	Editor       *Editor

	staged    *StagedLogo
	nameError string
}

// NewRecordForm creates a form for a new company, or for editing initial
// when it is non-nil.
func NewRecordForm(initial *Company) *RecordForm {
	f := &RecordForm{}
	f.Reset(initial)
	return f
}

// Reset overwrites the form from a company as loaded from the server. A nil
// company resets to the blank create state.
func (f *RecordForm) Reset(initial *Company) {
	f.staged = nil
	f.nameError = ""
	if initial == nil {
		f.Name, f.Description, f.ExistingLogo = "", "", ""
		f.IsActive = true
		f.Editor = NewEditor(nil)
		return
	}
	f.Name = initial.Name
	f.Description = initial.Description
	f.IsActive = initial.IsActive
	f.ExistingLogo = initial.Logo
	f.Editor = NewEditor(initial.Fields)
}

// StageLogo reads an uploaded file into the form. Files over MaxLogoSize
// are rejected before being read.
func (f *RecordForm) StageLogo(fh *multipart.FileHeader) error {
	if fh.Size > MaxLogoSize {
		return ErrLogoTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open logo: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxLogoSize+1))
	if err != nil {
		return fmt.Errorf("read logo: %w", err)
	}
	return f.stage(fh.Filename, fh.Header.Get("Content-Type"), data)
}

// Upload is a logo file as it arrived in a form post. TooLarge is set when
// the file exceeded MaxLogoSize and Data was not kept.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	TooLarge    bool
}

// StageUpload stages a logo read from a streamed form post.
func (f *RecordForm) StageUpload(u *Upload) error {
	if u.TooLarge {
		return ErrLogoTooLarge
	}
	return f.stage(u.Filename, u.ContentType, u.Data)
}

// RestoreStagedLogo re-stages a logo carried between requests as a data:
// URL in a hidden input.
func (f *RecordForm) RestoreStagedLogo(filename, dataURL string) error {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return ErrInvalidLogoURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ErrInvalidLogoURL
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return ErrInvalidLogoURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidLogoURL
	}
	return f.stage(filename, contentType, data)
}

func (f *RecordForm) stage(filename, contentType string, data []byte) error {
	if len(data) > MaxLogoSize {
		return ErrLogoTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	f.staged = &StagedLogo{Filename: filename, ContentType: contentType, Data: data}
	return nil
}

// RemoveLogo drops the staged file and clears the preview. A logo already
// stored on the server is left as is.
func (f *RecordForm) RemoveLogo() {
	f.staged = nil
	f.ExistingLogo = ""
}

// Staged returns the logo staged in this session, if any.
func (f *RecordForm) Staged() *StagedLogo { return f.staged }

// LogoPreview is the image shown next to the upload control.
func (f *RecordForm) LogoPreview() string {
	if f.staged != nil {
		return f.staged.DataURL()
	}
	return f.ExistingLogo
}

func (f *RecordForm) NameError() string { return f.nameError }

// Validate checks the company name and every field entry.
func (f *RecordForm) Validate() bool {
	f.Name = strings.TrimSpace(f.Name)
	f.nameError = ""
	if f.Name == "" {
		f.nameError = "Company name is required"
	}
	fieldsOK := f.Editor.Validate()
	return f.nameError == "" && fieldsOK
}

// Submit validates the form and, when valid, encodes it for the API. The
// form itself never talks to the network.
func (f *RecordForm) Submit() (*Payload, bool) {
	if !f.Validate() {
		return nil, false
	}
	p := Encode(f)
	return &p, true
}

// FormFromValues rebuilds a record form from posted values. File uploads are
// handled by the caller through StageLogo.
func FormFromValues(values url.Values) *RecordForm {
	f := &RecordForm{
		Name:         values.Get("name"),
		Description:  values.Get("description"),
		IsActive:     checkbox(values["isActive"]),
		ExistingLogo: values.Get("existingLogo"),
		Editor:       EditorFromForm(values),
	}
	if staged := values.Get("stagedLogo"); staged != "" {
		// a corrupt hidden value just drops the staged logo
		_ = f.RestoreStagedLogo(values.Get("stagedLogoName"), staged)
	}
	return f
}

func checkbox(vals []string) bool {
	if len(vals) == 0 {
		return false
	}
	switch vals[len(vals)-1] {
	case "true", "on", "1":
		return true
	}
	return false
}
