// Package xml provides the XML wire structures of the Open Packaging Conventions.
//
// An OPC package carries three kinds of XML manifests next to its content parts:
//
//   - [Content_Types].xml: Default and Override entries mapping parts to content types
//   - _rels/*.rels: the relationship manifest of one part (or of the package root)
//   - docProps/core.xml: the core properties part (Dublin Core metadata)
//
// # Structure Organization
//
//   - types.go: namespaces, the XML header and the Marshal/Decode helpers
//   - contenttypes.go: Types, Default and Override
//   - relationships.go: Relationships and Relationship
//   - coreprops.go: CoreProperties with prefixed marshalling
//
// # Usage
//
// This package is used internally by the opc package when reading and writing
// packages. The structures are plain data: validation of part names, ids and
// content types happens in the opc package.
//
//	rels := &xml.Relationships{
//	    Namespace: xml.NamespaceRelationships,
//	    Relationship: []xml.Relationship{
//	        {ID: "rId1", Type: "http://example.com/rel", Target: "word/document.xml"},
//	    },
//	}
//	data, err := xml.Marshal(rels)
package xml
