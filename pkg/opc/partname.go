package opc

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	relationshipsSegment   = "_rels"
	relationshipsExtension = "rels"
	contentTypesItemName   = "[Content_Types].xml"
)

var (
	// RootPartName identifies the package itself as a relationship source.
	RootPartName = PartName{name: "/"}

	// PackageRelationshipsPartName is the relationship manifest of the package root.
	PackageRelationshipsPartName = PartName{name: "/_rels/.rels", rels: true}

	// CorePropertiesPartName is the conventional location of the core properties part.
	CorePropertiesPartName = MustPartName("/docProps/core.xml")
)

// PartName is a validated part name. Comparison ignores ASCII case.
// The zero value is invalid.
type PartName struct {
	name string
	rels bool
}

// NewPartName validates candidate against the OPC naming rules M1.1 to M1.10.
// Non-ASCII bytes are percent-encoded first, so the returned name is always ASCII.
func NewPartName(candidate string) (PartName, error) {
	name := encodeNonASCII(candidate)
	if err := validatePartName(name); err != nil {
		return PartName{}, err
	}
	return newPartName(name), nil
}

// MustPartName is like NewPartName but panics on an invalid name.
func MustPartName(candidate string) PartName {
	pn, err := NewPartName(candidate)
	if err != nil {
		panic(err)
	}
	return pn
}

func newPartName(name string) PartName {
	return PartName{name: name, rels: isRelationshipPartName(name)}
}

func isRelationshipPartName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "/"+relationshipsSegment+"/") &&
		strings.HasSuffix(lower, "."+relationshipsExtension)
}

// Name returns the part name as written in the package.
func (n PartName) Name() string {
	return n.name
}

func (n PartName) String() string {
	return n.name
}

// IsZero reports whether n is the zero PartName.
func (n PartName) IsZero() bool {
	return n.name == ""
}

// IsRoot reports whether n identifies the package root.
func (n PartName) IsRoot() bool {
	return n.name == "/"
}

// IsRelationshipPart reports whether n names a _rels/*.rels manifest.
func (n PartName) IsRelationshipPart() bool {
	return n.rels
}

// Extension returns the extension of the last segment without the dot.
func (n PartName) Extension() string {
	base := path.Base(n.name)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i+1:]
	}
	return ""
}

// Equal compares two part names ignoring ASCII case.
func (n PartName) Equal(other PartName) bool {
	return n.key() == other.key()
}

// Compare orders part names ignoring case, comparing runs of digits by their
// numeric value so that /slide2.xml sorts before /slide10.xml.
func (n PartName) Compare(other PartName) int {
	return compareNatural(n.key(), other.key())
}

func (n PartName) key() string {
	return strings.ToLower(n.name)
}

// RelationshipPartName returns the name of the manifest holding the
// relationships whose source is n.
func (n PartName) RelationshipPartName() (PartName, error) {
	if n.rels {
		return PartName{}, invalidOperation("derive relationship part", n.name, "M1.25",
			"a relationship part cannot have relationships")
	}
	if n.IsZero() {
		return PartName{}, illegalArgument("derive relationship part", "", "part name is empty")
	}
	if n.IsRoot() {
		return PackageRelationshipsPartName, nil
	}
	dir, file := path.Split(n.name)
	return newPartName(dir + relationshipsSegment + "/" + file + "." + relationshipsExtension), nil
}

// SourcePartName is the inverse of RelationshipPartName. The package
// manifest maps to RootPartName.
func (n PartName) SourcePartName() (PartName, error) {
	if !n.rels {
		return PartName{}, illegalArgument("derive source part", n.name, "not a relationship part")
	}
	if n.Equal(PackageRelationshipsPartName) {
		return RootPartName, nil
	}
	dir, file := path.Split(n.name)
	parent := strings.TrimSuffix(dir, relationshipsSegment+"/")
	if len(parent) == len(dir) {
		return PartName{}, invalidFormat("derive source part", n.name, "", "relationship part is not inside a %s folder", relationshipsSegment)
	}
	file = file[:len(file)-len(relationshipsExtension)-1]
	return NewPartName(parent + file)
}

// ResolvePartURI resolves target relative to the source part name. Targets
// starting with a slash are returned unchanged.
func ResolvePartURI(source PartName, target string) (string, error) {
	if strings.HasPrefix(target, "/") {
		return target, nil
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", invalidFormat("resolve target", target, "", "invalid target URI: %v", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return target, nil
	}
	base := source.name
	if base == "" {
		base = "/"
	}
	return (&url.URL{Path: base}).ResolveReference(ref).String(), nil
}

// RelativizePartURI returns the path of target relative to the folder of
// source. For the package root the leading slash is simply dropped.
func RelativizePartURI(source, target PartName) string {
	if source.IsRoot() || source.IsZero() {
		rel := strings.TrimPrefix(target.name, "/")
		if first, _, _ := strings.Cut(rel, "/"); strings.Contains(first, ":") {
			return "./" + rel
		}
		return rel
	}
	from := strings.Split(strings.TrimPrefix(path.Dir(source.name), "/"), "/")
	if len(from) == 1 && from[0] == "" {
		from = nil
	}
	to := strings.Split(strings.TrimPrefix(target.name, "/"), "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(from); i++ {
		b.WriteString("../")
	}
	rest := strings.Join(to[common:], "/")
	if b.Len() == 0 && strings.Contains(to[common], ":") {
		// keep the first segment from reading as a scheme
		b.WriteString("./")
	}
	b.WriteString(rest)
	return b.String()
}

func validatePartName(name string) error {
	const op = "create part name"
	switch {
	case name == "":
		return invalidFormat(op, name, "M1.1", "part name cannot be empty")
	case name == "/":
		return invalidFormat(op, name, "M1.1", "part name cannot be the package root")
	case isAbsoluteURI(name):
		return invalidFormat(op, name, "", "absolute URIs are not part names")
	case !strings.HasPrefix(name, "/"):
		return invalidFormat(op, name, "M1.4", "part name must start with a forward slash")
	case strings.HasSuffix(name, "/"):
		return invalidFormat(op, name, "M1.5", "part name cannot end with a forward slash")
	}

	for _, seg := range strings.Split(name[1:], "/") {
		if seg == "" {
			return invalidFormat(op, name, "M1.3", "part name cannot have empty segments")
		}
		if strings.HasSuffix(seg, ".") {
			return invalidFormat(op, name, "M1.9", "segment %q ends with a dot", seg)
		}
		if err := checkSegmentChars(name, seg); err != nil {
			return err
		}
	}
	return nil
}

func checkSegmentChars(name, seg string) error {
	const op = "create part name"
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c != '%' {
			if !isPChar(c) {
				return invalidFormat(op, name, "M1.6", "segment %q holds a character other than pchar: %q", seg, c)
			}
			continue
		}
		if i+2 >= len(seg) || !isHex(seg[i+1]) || !isHex(seg[i+2]) {
			return invalidFormat(op, name, "M1.6", "segment %q holds an invalid percent-encoding", seg)
		}
		decoded := unhex(seg[i+1])<<4 | unhex(seg[i+2])
		if decoded == '/' || decoded == '\\' {
			return invalidFormat(op, name, "M1.7", "segment %q holds a percent-encoded slash", seg)
		}
		if isUnreserved(decoded) {
			return invalidFormat(op, name, "M1.8", "segment %q holds a percent-encoded unreserved character", seg)
		}
		i += 2
	}
	return nil
}

// isAbsoluteURI detects a scheme or an authority component.
func isAbsoluteURI(name string) bool {
	if strings.HasPrefix(name, "//") {
		return true
	}
	colon := strings.IndexByte(name, ':')
	if colon <= 0 {
		return false
	}
	if slash := strings.IndexByte(name, '/'); slash >= 0 && slash < colon {
		return false
	}
	for i := 0; i < colon; i++ {
		c := name[i]
		switch {
		case isAlpha(c):
		case i > 0 && (isDigit(c) || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func encodeNonASCII(s string) string {
	needs := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			needs = true
			break
		}
	}
	if !needs {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x80 {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isUnreserved(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-' || c == '.' || c == '_' || c == '~'
}

// isPChar reports whether c may appear literally in a segment.
func isPChar(c byte) bool {
	if isUnreserved(c) {
		return true
	}
	switch c {
	case ':', '@', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// compareNatural compares a and b byte by byte, except that runs of digits
// are compared by numeric value.
func compareNatural(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return strings.Compare(a, b)
}
