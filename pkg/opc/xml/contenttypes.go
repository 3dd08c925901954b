package xml

import (
	"encoding/xml"
)

// Types is the root element of [Content_Types].xml
type Types struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default maps a file extension to a content type
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override maps one part name to a content type
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// NewTypes returns an empty manifest with the content-types namespace set.
func NewTypes() *Types {
	return &Types{Namespace: NamespaceContentTypes}
}
