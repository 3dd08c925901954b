package opc

import (
	"bytes"
	"io"
	"strings"
	"time"

	wire "github.com/benjaminschreck/go-opc/pkg/opc/xml"
)

// CoreProperties is the Dublin Core metadata of a package. Zero times are
// left out when serialized.
type CoreProperties struct {
	Category       string
	ContentStatus  string
	ContentType    string
	Created        time.Time
	Creator        string
	Description    string
	Identifier     string
	Keywords       string
	Language       string
	LastModifiedBy string
	LastPrinted    time.Time
	Modified       time.Time
	Revision       string
	Subject        string
	Title          string
	Version        string
}

// w3cdtfLayouts are the profiles of ISO 8601 allowed by W3CDTF, longest first.
var w3cdtfLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseW3CDTF(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range w3cdtfLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidFormat("parse core properties", value, "", "date is not W3CDTF")
}

func formatW3CDTF(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// ParseCoreProperties reads a core properties part
func ParseCoreProperties(r io.Reader) (*CoreProperties, error) {
	const op = "parse core properties"
	var doc wire.CoreProperties
	if err := wire.Decode(r, &doc); err != nil {
		return nil, wrapError(ErrInvalidFormat, op, "", err)
	}

	created, err := parseW3CDTF(doc.Created)
	if err != nil {
		return nil, err
	}
	modified, err := parseW3CDTF(doc.Modified)
	if err != nil {
		return nil, err
	}
	printed, err := parseW3CDTF(doc.LastPrinted)
	if err != nil {
		return nil, err
	}

	return &CoreProperties{
		Category:       doc.Category,
		ContentStatus:  doc.ContentStatus,
		ContentType:    doc.ContentType,
		Created:        created,
		Creator:        doc.Creator,
		Description:    doc.Description,
		Identifier:     doc.Identifier,
		Keywords:       doc.Keywords,
		Language:       doc.Language,
		LastModifiedBy: doc.LastModifiedBy,
		LastPrinted:    printed,
		Modified:       modified,
		Revision:       doc.Revision,
		Subject:        doc.Subject,
		Title:          doc.Title,
		Version:        doc.Version,
	}, nil
}

// Marshal serializes the properties as a core properties part
func (c *CoreProperties) Marshal() ([]byte, error) {
	return wire.Marshal(wire.CoreProperties{
		Category:       c.Category,
		ContentStatus:  c.ContentStatus,
		ContentType:    c.ContentType,
		Created:        formatW3CDTF(c.Created),
		Creator:        c.Creator,
		Description:    c.Description,
		Identifier:     c.Identifier,
		Keywords:       c.Keywords,
		Language:       c.Language,
		LastModifiedBy: c.LastModifiedBy,
		LastPrinted:    formatW3CDTF(c.LastPrinted),
		Modified:       formatW3CDTF(c.Modified),
		Revision:       c.Revision,
		Subject:        c.Subject,
		Title:          c.Title,
		Version:        c.Version,
	})
}

// equal reports whether c and o hold the same values. Times compare as
// instants.
func (c *CoreProperties) equal(o *CoreProperties) bool {
	a, b := *c, *o
	if !a.Created.Equal(b.Created) || !a.Modified.Equal(b.Modified) || !a.LastPrinted.Equal(b.LastPrinted) {
		return false
	}
	a.Created, a.Modified, a.LastPrinted = time.Time{}, time.Time{}, time.Time{}
	b.Created, b.Modified, b.LastPrinted = time.Time{}, time.Time{}, time.Time{}
	return a == b
}

// corePropertiesUnmarshaller loads the first core properties part of a
// package. Later ones are left as plain parts (M4.1).
type corePropertiesUnmarshaller struct{}

func (corePropertiesUnmarshaller) Unmarshal(part *Part, r io.Reader) error {
	pkg := part.pkg
	if !pkg.propsName.IsZero() && !part.name.Equal(pkg.propsName) && pkg.parts.Contains(pkg.propsName) {
		pkg.logger.Warn("more than one core properties part, ignoring %s [M4.1]", part.name.name)
		return nil
	}
	props, err := ParseCoreProperties(r)
	if err != nil {
		return err
	}
	pkg.props = props
	pkg.propsBase = *props
	pkg.propsName = part.name
	return nil
}

// corePropertiesMarshaller writes the package's in-memory properties in
// place of the stored bytes of the core properties part.
type corePropertiesMarshaller struct{}

func (corePropertiesMarshaller) Marshal(part *Part, w io.Writer) error {
	pkg := part.pkg
	if pkg.props == nil || !part.name.Equal(pkg.propsName) {
		return rawMarshaller.Marshal(part, w)
	}
	data, err := pkg.props.Marshal()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
