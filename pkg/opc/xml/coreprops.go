package xml

import (
	"encoding/xml"
)

// CoreProperties holds the raw values of docProps/core.xml. Dates are kept
// in their W3CDTF text form; parsing them is left to the caller.
type CoreProperties struct {
	Category       string
	ContentStatus  string
	ContentType    string
	Created        string
	Creator        string
	Description    string
	Identifier     string
	Keywords       string
	Language       string
	LastModifiedBy string
	LastPrinted    string
	Modified       string
	Revision       string
	Subject        string
	Title          string
	Version        string
}

// coreDecode matches elements by namespace URI, so any prefix is accepted.
type coreDecode struct {
	Category       string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties category"`
	ContentStatus  string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties contentStatus"`
	ContentType    string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties contentType"`
	Created        string `xml:"http://purl.org/dc/terms/ created"`
	Creator        string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Description    string `xml:"http://purl.org/dc/elements/1.1/ description"`
	Identifier     string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Keywords       string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties keywords"`
	Language       string `xml:"http://purl.org/dc/elements/1.1/ language"`
	LastModifiedBy string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties lastModifiedBy"`
	LastPrinted    string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties lastPrinted"`
	Modified       string `xml:"http://purl.org/dc/terms/ modified"`
	Revision       string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties revision"`
	Subject        string `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Title          string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Version        string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties version"`
}

// coreEncode writes the conventional cp/dc/dcterms prefixes.
type coreEncode struct {
	XMLName        xml.Name     `xml:"cp:coreProperties"`
	XmlnsCP        string       `xml:"xmlns:cp,attr"`
	XmlnsDC        string       `xml:"xmlns:dc,attr"`
	XmlnsDCTerms   string       `xml:"xmlns:dcterms,attr"`
	XmlnsDCMIType  string       `xml:"xmlns:dcmitype,attr"`
	XmlnsXSI       string       `xml:"xmlns:xsi,attr"`
	Category       string       `xml:"cp:category,omitempty"`
	ContentStatus  string       `xml:"cp:contentStatus,omitempty"`
	ContentType    string       `xml:"cp:contentType,omitempty"`
	Created        *w3cdtfValue `xml:"dcterms:created,omitempty"`
	Creator        string       `xml:"dc:creator,omitempty"`
	Description    string       `xml:"dc:description,omitempty"`
	Identifier     string       `xml:"dc:identifier,omitempty"`
	Keywords       string       `xml:"cp:keywords,omitempty"`
	Language       string       `xml:"dc:language,omitempty"`
	LastModifiedBy string       `xml:"cp:lastModifiedBy,omitempty"`
	LastPrinted    string       `xml:"cp:lastPrinted,omitempty"`
	Modified       *w3cdtfValue `xml:"dcterms:modified,omitempty"`
	Revision       string       `xml:"cp:revision,omitempty"`
	Subject        string       `xml:"dc:subject,omitempty"`
	Title          string       `xml:"dc:title,omitempty"`
	Version        string       `xml:"cp:version,omitempty"`
}

type w3cdtfValue struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

func newW3CDTF(value string) *w3cdtfValue {
	if value == "" {
		return nil
	}
	return &w3cdtfValue{Type: "dcterms:W3CDTF", Value: value}
}

// MarshalXML implements custom XML marshaling for CoreProperties
func (c CoreProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.Encode(coreEncode{
		XmlnsCP:        NamespaceCoreProperties,
		XmlnsDC:        NamespaceDC,
		XmlnsDCTerms:   NamespaceDCTerms,
		XmlnsDCMIType:  NamespaceDCMIType,
		XmlnsXSI:       NamespaceXSI,
		Category:       c.Category,
		ContentStatus:  c.ContentStatus,
		ContentType:    c.ContentType,
		Created:        newW3CDTF(c.Created),
		Creator:        c.Creator,
		Description:    c.Description,
		Identifier:     c.Identifier,
		Keywords:       c.Keywords,
		Language:       c.Language,
		LastModifiedBy: c.LastModifiedBy,
		LastPrinted:    c.LastPrinted,
		Modified:       newW3CDTF(c.Modified),
		Revision:       c.Revision,
		Subject:        c.Subject,
		Title:          c.Title,
		Version:        c.Version,
	})
}

// UnmarshalXML implements custom XML unmarshaling for CoreProperties
func (c *CoreProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if start.Name.Space != "" && start.Name.Space != NamespaceCoreProperties {
		return xml.UnmarshalError("unexpected core properties namespace " + start.Name.Space)
	}
	var aux coreDecode
	if err := d.DecodeElement(&aux, &start); err != nil {
		return err
	}
	*c = CoreProperties(aux)
	return nil
}
