package portalsdk

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormData is an ordered multipart form: text fields first, then files.
type FormData struct {
	fields []formField
	files  []FormFile
}

type formField struct {
	name  string
	value string
}

// FormFile is one file part.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string // defaults to application/octet-stream
	Content     io.Reader
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Add appends a text field. Repeated names are kept, in order.
func (f *FormData) Add(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part.
func (f *FormData) AddFile(field, filename, contentType string, content io.Reader) *FormData {
	f.files = append(f.files, FormFile{
		Field:       field,
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	return f
}

// Value returns the first value of the named text field.
func (f *FormData) Value(name string) string {
	for _, fld := range f.fields {
		if fld.name == name {
			return fld.value
		}
	}
	return ""
}

// Files returns the file parts in insertion order.
func (f *FormData) Files() []FormFile {
	return f.files
}

// Encode renders the form as a multipart body. It consumes the file readers.
func (f *FormData) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if err := mw.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("field %q: %w", fld.name, err)
		}
	}

	for _, file := range f.files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Filename)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %q: %w", file.Field, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return nil, "", fmt.Errorf("file %q: %w", file.Field, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
