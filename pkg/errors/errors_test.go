package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := IO("failed to create directory", io.ErrShortWrite)
	assert.Equal(t, "io error: failed to create directory: short write", err.Error())

	err = UnrecognizedFormat("not an image")
	assert.Equal(t, "unrecognized_format error: not an image", err.Error())
}

func TestIsAndUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	wrapped := fmt.Errorf("save page: %w", IO("copy failed", cause))

	assert.True(t, Is(wrapped, ErrorTypeIO))
	assert.False(t, Is(wrapped, ErrorTypeEntryAllocation))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Equal(t, ErrorTypeIO, TypeOf(wrapped))
}

func TestIsWithPlainError(t *testing.T) {
	plain := stderrors.New("boom")

	assert.False(t, Is(plain, ErrorTypeIO))
	assert.Equal(t, ErrorType(""), TypeOf(plain))
	assert.False(t, Is(nil, ErrorTypeIO))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want ErrorType
	}{
		{"unrecognized", UnrecognizedFormat("x"), ErrorTypeUnrecognizedFormat},
		{"allocation", EntryAllocation("x", nil), ErrorTypeEntryAllocation},
		{"io", IO("x", nil), ErrorTypeIO},
		{"output channel", MissingOutputChannel("x", nil), ErrorTypeMissingOutputChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.True(t, Is(tt.err, tt.want))
		})
	}
}
