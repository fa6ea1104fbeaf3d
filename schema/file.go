package schema

import (
	"bytes"
	"fmt"
	"io"
)

// FileValue is the decoded form of a multipart file part: metadata plus
// deferred access to the content.
type FileValue struct {
	Name        string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// NewFileValue builds a FileValue whose content is produced by open on
// demand.
func NewFileValue(name, contentType string, size int64, open func() (io.ReadCloser, error)) *FileValue {
	return &FileValue{Name: name, ContentType: contentType, Size: size, open: open}
}

// FileFromBytes builds an in-memory FileValue, used by clients and tests.
func FileFromBytes(name, contentType string, data []byte) *FileValue {
	return &FileValue{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a reader for the file contents. Each call returns a fresh
// reader when the value was built from bytes; header-backed values reopen
// the underlying part.
func (f *FileValue) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}
