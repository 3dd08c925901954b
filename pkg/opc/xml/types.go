package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Header is written in front of every manifest.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Namespaces used by the package manifests.
const (
	NamespaceContentTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
	NamespaceRelationships  = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceCoreProperties = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	NamespaceDC             = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms        = "http://purl.org/dc/terms/"
	NamespaceDCMIType       = "http://purl.org/dc/dcmitype/"
	NamespaceXSI            = "http://www.w3.org/2001/XMLSchema-instance"
)

// Marshal encodes v behind the standalone XML header.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Decode reads a single XML document from r into v.
func Decode(r io.Reader, v interface{}) error {
	dec := xml.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}
