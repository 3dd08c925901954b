// Package opc reads, edits and writes Open Packaging Conventions packages,
// the ZIP container used by DOCX, XLSX, PPTX and friends.
//
// A package is a set of parts. Each part has a name such as
// /word/document.xml, a content type and a payload. Parts, and the package
// itself, relate to other parts or to external URIs through relationships
// stored in .rels manifests. The content type of every part is declared in
// [Content_Types].xml.
//
// # Quick Start
//
// Open an existing package, change a part and save it back:
//
//	pkg, err := opc.Open("report.docx", opc.AccessReadWrite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	part := pkg.GetPart(opc.MustPartName("/word/document.xml"))
//	if err := part.SetBytes(updated); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Close writes a temporary file next to report.docx and swaps it in
//	if err := pkg.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// Build a package from scratch:
//
//	pkg, err := opc.CreateStream(&buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	name := opc.MustPartName("/content/data.xml")
//	if _, err := pkg.CreatePartWithContent(name, "application/xml", data); err != nil {
//	    log.Fatal(err)
//	}
//	pkg.AddRelationship(name, opc.TargetModeInternal, opc.RelTypeOfficeDocument)
//	pkg.Close()
//
// # Part Names
//
// Part names are validated when they are built (NewPartName). Comparison
// ignores case, and ordering compares digit runs by value so that
// /slide2.xml sorts before /slide10.xml. Non-ASCII characters are
// percent-encoded as UTF-8.
//
// # Relationships
//
// Internal targets are stored relative to the source part and resolved
// on demand (Relationship.TargetURI, Relationship.TargetPartName).
// Relationship parts are regenerated from the relationship graphs on
// save; writing to them directly is not supported.
//
// # Access Modes
//
//   - AccessRead: inspection only, Close discards everything
//   - AccessWrite: creation only, parts cannot be read back
//   - AccessReadWrite: both
//
// # Errors
//
// Every error returned by the package is a *PackageError whose kind is one
// of ErrInvalidFormat, ErrInvalidOperation, ErrIllegalArgument or
// ErrPackageClosed:
//
//	if errors.Is(err, opc.ErrInvalidFormat) {
//	    fmt.Println("broken package, rule", opc.RuleOf(err))
//	}
//
// # Configuration
//
// Defaults come from GetGlobalConfig, which reads OPC_* environment
// variables (OPC_LOG_LEVEL, OPC_CREATOR, OPC_COMPRESSION_LEVEL,
// OPC_MAX_PART_SIZE, OPC_STRICT_RELATIONSHIPS). Use WithConfig to override
// them per package.
package opc
