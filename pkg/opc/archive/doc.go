// Package archive provides the ZIP container underneath an OPC package.
//
// A package is read through a Reader, which enumerates the archive entries and
// opens them on demand, and written through a Writer, which accepts named
// entries in order and finalizes the archive on Close. The zip implementation
// uses github.com/klauspost/compress for both directions.
//
// Part names and zip item names differ only by the leading slash:
//
//	ZipItemName("/word/document.xml") // "word/document.xml"
//	PartName("word/document.xml")     // "/word/document.xml"
package archive
