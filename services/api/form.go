package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Form is a multipart/form-data body, used for file uploads.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct {
	field, filename string
	r               io.Reader
}

func NewForm() *Form { return &Form{} }

// Set adds a field, skipping empty values.
func (f *Form) Set(name, value string) *Form {
	if value != "" {
		f.fields = append(f.fields, formField{name, value})
	}
	return f
}

// AddFile adds a file part read from r.
func (f *Form) AddFile(field, filename string, r io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, r: r})
	return f
}

// AddPath adds the file at path. The file is read when the request is sent.
func (f *Form) AddPath(field, path string) *Form {
	return f.AddFile(field, filepath.Base(path), &lazyFile{path: path})
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", err
		}
		_, err = io.Copy(part, file.r)
		if c, ok := file.r.(io.Closer); ok {
			_ = c.Close()
		}
		if err != nil {
			return nil, "", errors.Wrapf(err, "reading %s", file.filename)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type lazyFile struct {
	path string
	f    *os.File
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	return l.f.Read(p)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
