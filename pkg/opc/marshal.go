package opc

import (
	"bytes"
	"io"
)

// Marshaller writes the content of a part into the archive entry w. It is
// chosen by the part's content type when a package is saved.
type Marshaller interface {
	Marshal(part *Part, w io.Writer) error
}

// MarshallerFunc adapts a function to a Marshaller
type MarshallerFunc func(part *Part, w io.Writer) error

func (f MarshallerFunc) Marshal(part *Part, w io.Writer) error {
	return f(part, w)
}

// rawMarshaller copies the stored bytes unchanged
var rawMarshaller = MarshallerFunc(func(part *Part, w io.Writer) error {
	rc, err := part.InputStream()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
})

// AddMarshaller registers m for parts of the given content type
func (p *Package) AddMarshaller(contentType string, m Marshaller) {
	p.marshallers[contentType] = m
}

// RemoveMarshaller restores the default marshaller for contentType
func (p *Package) RemoveMarshaller(contentType string) {
	delete(p.marshallers, contentType)
}

func (p *Package) marshallerFor(contentType string) Marshaller {
	if m, ok := p.marshallers[contentType]; ok {
		return m
	}
	return rawMarshaller
}

// Unmarshaller reads the content of a part. It is chosen by the part's
// content type and runs for every part when a package is opened, and again
// whenever new content is written to a part. An error rejects the content.
type Unmarshaller interface {
	Unmarshal(part *Part, r io.Reader) error
}

// UnmarshallerFunc adapts a function to an Unmarshaller
type UnmarshallerFunc func(part *Part, r io.Reader) error

func (f UnmarshallerFunc) Unmarshal(part *Part, r io.Reader) error {
	return f(part, r)
}

// AddUnmarshaller registers u for parts of the given content type
func (p *Package) AddUnmarshaller(contentType string, u Unmarshaller) {
	p.unmarshallers[contentType] = u
}

// RemoveUnmarshaller stops reading parts of contentType; their content is
// then only stored.
func (p *Package) RemoveUnmarshaller(contentType string) {
	delete(p.unmarshallers, contentType)
}

// unmarshal runs the unmarshaller registered for part, if any, over data.
func (p *Package) unmarshal(part *Part, data []byte) error {
	u, ok := p.unmarshallers[part.contentType]
	if !ok {
		return nil
	}
	return u.Unmarshal(part, bytes.NewReader(data))
}
