package xml

import (
	"encoding/xml"
)

// Relationship is one <Relationship> element of a .rels manifest
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships of one source
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// NewRelationships returns an empty manifest with the relationships namespace set.
func NewRelationships() *Relationships {
	return &Relationships{Namespace: NamespaceRelationships}
}
