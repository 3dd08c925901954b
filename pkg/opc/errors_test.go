package opc

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "with rule",
			err:     invalidFormat("create part name", "word/x.xml", "M1.4", "part name must start with a forward slash"),
			wantMsg: "opc: create part name 'word/x.xml': part name must start with a forward slash [M1.4]",
		},
		{
			name:    "without part",
			err:     illegalArgument("save", "", "output cannot be nil"),
			wantMsg: "opc: save: output cannot be nil",
		},
		{
			name:    "wrapped cause",
			err:     wrapError(ErrInvalidFormat, "open", "a.docx", io.ErrUnexpectedEOF),
			wantMsg: "opc: open 'a.docx': unexpected EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestPackageErrorKinds(t *testing.T) {
	err := invalidOperation("add part", "/a.xml", "M1.12", "exists")
	assert.True(t, IsInvalidOperation(err))
	assert.False(t, IsInvalidFormat(err))
	assert.False(t, IsIllegalArgument(err))
	assert.False(t, errors.Is(err, ErrPackageClosed))
	assert.Equal(t, "M1.12", RuleOf(err))
	assert.Equal(t, "", RuleOf(io.EOF))

	var pe *PackageError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "/a.xml", pe.Part)
}

func TestWrapErrorKeepsKind(t *testing.T) {
	inner := invalidFormat("parse", "/a.xml", "M1.6", "bad")
	wrapped := wrapError(ErrInvalidOperation, "save", "/a.xml", inner)
	assert.Same(t, inner, wrapped)
	assert.Nil(t, wrapError(ErrInvalidFormat, "open", "", nil))

	cause := wrapError(ErrInvalidFormat, "open", "", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, cause, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, cause, ErrInvalidFormat)
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())

	first := invalidFormat("validate", "/a.xml", "", "first")
	m.Add(first)
	m.Add(nil)
	assert.Same(t, first, m.Err())

	m.Add(illegalArgument("validate", "/b.xml", "second"))
	assert.Equal(t, 2, m.Len())
	err := m.Err()
	assert.Contains(t, err.Error(), "2 errors occurred:")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, ErrIllegalArgument)
	assert.Len(t, m.Errors(), 2)
}
