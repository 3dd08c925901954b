package opc

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/benjaminschreck/go-opc/pkg/opc/archive"
)

// Access is the mode a package was opened with
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ParseAccess converts "read", "write" or "read-write" to an Access
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(s) {
	case "read", "r":
		return AccessRead, nil
	case "write", "w":
		return AccessWrite, nil
	case "read-write", "readwrite", "rw":
		return AccessReadWrite, nil
	}
	return AccessRead, illegalArgument("parse access", "", "unknown access mode %q", s)
}

// packageState is the mutable lifecycle state every mutation goes through.
type packageState struct {
	dirty  bool
	closed bool
}

func (s *packageState) touch() {
	s.dirty = true
}

// Package is an OPC package: a set of parts, the relationships between
// them and the content types describing them. A Package is not safe for
// concurrent mutation; only Close and Revert serialize against each other.
type Package struct {
	mu sync.RWMutex

	access  Access
	path    string
	output  io.Writer
	archive archive.Reader

	parts        *PartCollection
	contentTypes *ContentTypeRegistry
	rels         relationshipSlot
	props        *CoreProperties
	propsName    PartName

	// propsBase holds the properties as last loaded or flushed
	propsBase     CoreProperties
	marshallers   map[string]Marshaller
	unmarshallers map[string]Unmarshaller
	state         packageState

	config  *Config
	logger  *Logger
	metrics *Metrics
}

func newPackage(access Access, opts []Option) *Package {
	p := &Package{
		access:        access,
		marshallers:   make(map[string]Marshaller),
		unmarshallers: make(map[string]Unmarshaller),
	}
	p.marshallers[ContentTypeCoreProperties] = corePropertiesMarshaller{}
	p.unmarshallers[ContentTypeCoreProperties] = corePropertiesUnmarshaller{}
	for _, opt := range opts {
		opt(p)
	}
	if p.config == nil {
		p.config = GetGlobalConfig()
	}
	if p.logger == nil {
		p.logger = GetLogger()
	}
	return p
}

func (p *Package) archiveOptions() []archive.Option {
	return []archive.Option{
		archive.WithMaxEntrySize(p.config.MaxPartSize),
		archive.WithCompressionLevel(p.config.CompressionLevel),
	}
}

func (p *Package) relationshipParser() relationshipParser {
	return relationshipParser{
		logger:  p.logger,
		metrics: p.metrics,
		strict:  p.config.StrictRelationships,
	}
}

// Open opens the package stored at path.
func Open(path string, access Access, opts ...Option) (*Package, error) {
	const op = "open"
	if path == "" {
		return nil, illegalArgument(op, "", "path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, op, path, err)
	}
	if info.IsDir() {
		return nil, invalidFormat(op, path, "", "path is a directory")
	}

	p := newPackage(access, opts)
	p.path = path
	p.logger = p.logger.WithField("package", path)

	zr, err := archive.OpenFile(path, p.archiveOptions()...)
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, op, path, err)
	}
	p.archive = zr
	if err := p.load(); err != nil {
		zr.Close()
		return nil, err
	}
	return p, nil
}

// OpenReader opens a package from an in-memory or random-access source.
func OpenReader(r io.ReaderAt, size int64, access Access, opts ...Option) (*Package, error) {
	p := newPackage(access, opts)
	zr, err := archive.NewReader(r, size, p.archiveOptions()...)
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, "open", "", err)
	}
	p.archive = zr
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenStream reads the whole stream and opens it read-write. Changes are
// only kept when the package is explicitly saved.
func OpenStream(r io.Reader, opts ...Option) (*Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, "open", "", err)
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)), AccessReadWrite, opts...)
}

// Create starts a new package that Close writes to path. The file must
// not exist yet.
func Create(path string, opts ...Option) (*Package, error) {
	const op = "create"
	if path == "" {
		return nil, illegalArgument(op, "", "path cannot be empty")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, invalidOperation(op, path, "", "file already exists, use Open")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, wrapError(ErrInvalidOperation, op, path, err)
	}
	p := newPackage(AccessReadWrite, opts)
	p.path = path
	p.logger = p.logger.WithField("package", path)
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateStream starts a new package that Close writes to w.
func CreateStream(w io.Writer, opts ...Option) (*Package, error) {
	if w == nil {
		return nil, illegalArgument("create", "", "output cannot be nil")
	}
	p := newPackage(AccessReadWrite, opts)
	p.output = w
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenOrCreate opens path read-write when it exists and creates it otherwise.
func OpenOrCreate(path string, opts ...Option) (*Package, error) {
	if _, err := os.Stat(path); err == nil {
		return Open(path, AccessReadWrite, opts...)
	}
	return Create(path, opts...)
}

func (p *Package) init() error {
	p.parts = NewPartCollection()
	p.contentTypes = newSeededContentTypeRegistry()
	p.rels.set(NewRelationshipGraph(RootPartName))
	p.props = &CoreProperties{
		Creator: p.config.Creator,
		Created: time.Now().UTC().Truncate(time.Second),
	}
	if err := p.ensureCoreProperties(); err != nil {
		return err
	}
	p.state.touch()
	return nil
}

type archiveCandidate struct {
	entry archive.Entry
	name  PartName
}

// load builds the part collection from the archive: relationship parts
// first, then every other entry. Every part needs a content type.
func (p *Package) load() error {
	const op = "open"
	entries := p.archive.Entries()
	if len(entries) == 0 {
		return invalidFormat(op, p.path, "M1.13", "archive is empty")
	}

	ctEntry := p.archive.Entry(contentTypesItemName)
	if ctEntry == nil {
		if p.archive.Entry("mimetype") != nil && p.archive.Entry("content.xml") != nil {
			return invalidFormat(op, p.path, "M1.13", "archive is an OpenDocument file, not an OPC package")
		}
		return invalidFormat(op, p.path, "M1.13", "%s is missing", contentTypesItemName)
	}
	rc, err := ctEntry.Open()
	if err != nil {
		return wrapError(ErrInvalidFormat, op, contentTypesItemName, err)
	}
	reg, err := ParseContentTypes(rc)
	rc.Close()
	if err != nil {
		return err
	}

	var relsParts, others []archiveCandidate
	for _, e := range entries {
		item := e.Name()
		if e.IsDir() || strings.HasPrefix(item, "[trash]") || strings.EqualFold(item, contentTypesItemName) {
			continue
		}
		name, err := NewPartName(archive.PartName(item))
		if err != nil {
			p.logger.Warn("ignoring archive entry %s: %v", item, err)
			continue
		}
		c := archiveCandidate{entry: e, name: name}
		if name.IsRelationshipPart() {
			relsParts = append(relsParts, c)
		} else {
			others = append(others, c)
		}
	}

	parts := NewPartCollection()
	for _, c := range append(relsParts, others...) {
		ct, ok := reg.ContentType(c.name)
		if !ok {
			return invalidFormat(op, c.name.name, "M1.14", "part has no content type")
		}
		if err := parts.Put(newArchivePart(p, c.name, ct, c.entry)); err != nil {
			pe := newPackageError(ErrInvalidFormat, op, c.name.name, RuleOf(err), "part name conflicts with another entry")
			pe.Cause = err
			return pe
		}
	}
	p.parts = parts
	p.contentTypes = reg

	// M4.1 is checked when the package manifest is parsed
	if _, err := p.relationships(); err != nil {
		return err
	}
	if err := p.unmarshalParts(); err != nil {
		return err
	}
	p.metrics.opened()
	p.logger.Debug("opened package with %d parts", parts.Len())
	return nil
}

// unmarshalParts hands every part with a registered unmarshaller to it.
func (p *Package) unmarshalParts() error {
	for _, part := range p.parts.Sorted() {
		u, ok := p.unmarshallers[part.contentType]
		if !ok {
			continue
		}
		rc, err := part.InputStream()
		if err != nil {
			return err
		}
		err = u.Unmarshal(part, rc)
		rc.Close()
		if err != nil {
			return wrapError(ErrInvalidFormat, "open", part.name.name, err)
		}
	}
	return nil
}

func (p *Package) loadRelationships(source PartName) (*RelationshipGraph, error) {
	relsName, err := source.RelationshipPartName()
	if err != nil {
		return nil, err
	}
	relsPart := p.parts.Get(relsName)
	if relsPart == nil {
		return NewRelationshipGraph(source), nil
	}
	rc, err := relsPart.InputStream()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return p.relationshipParser().parse(source, rc)
}

func (p *Package) relationships() (*RelationshipGraph, error) {
	return p.rels.get(func() (*RelationshipGraph, error) {
		return p.loadRelationships(RootPartName)
	})
}

func (p *Package) checkOpen(op string) error {
	if p.state.closed {
		return &PackageError{Kind: ErrPackageClosed, Op: op, Part: p.path, Message: "package is closed"}
	}
	return nil
}

func (p *Package) throwIfReadOnly(op string) error {
	if p.access == AccessRead {
		return invalidOperation(op, p.path, "", "package is open read-only")
	}
	return nil
}

func (p *Package) throwIfWriteOnly(op string) error {
	if p.access == AccessWrite {
		return invalidOperation(op, p.path, "", "package is open write-only")
	}
	return nil
}

func (p *Package) readable(op string) error {
	if err := p.checkOpen(op); err != nil {
		return err
	}
	return p.throwIfWriteOnly(op)
}

func (p *Package) writable(op string) error {
	if err := p.checkOpen(op); err != nil {
		return err
	}
	return p.throwIfReadOnly(op)
}

// Access returns the access mode
func (p *Package) Access() Access {
	return p.access
}

// Path returns the backing file, empty for stream packages
func (p *Package) Path() string {
	return p.path
}

// IsDirty reports whether the package changed since it was opened
func (p *Package) IsDirty() bool {
	return p.changed()
}

func (p *Package) changed() bool {
	if p.state.dirty {
		return true
	}
	return !p.state.closed && p.props != nil && !p.props.equal(&p.propsBase)
}

// IsClosed reports whether Close or Revert was called
func (p *Package) IsClosed() bool {
	return p.state.closed
}

// GetPart returns the live part with the given name, or nil.
func (p *Package) GetPart(name PartName) *Part {
	if p.readable("get part") != nil || name.IsZero() {
		return nil
	}
	return p.parts.Get(name)
}

// ContainsPart reports whether a live part has the given name
func (p *Package) ContainsPart(name PartName) bool {
	return p.GetPart(name) != nil
}

// Parts returns every live part ordered by name, relationship parts included.
func (p *Package) Parts() ([]*Part, error) {
	if err := p.readable("get parts"); err != nil {
		return nil, err
	}
	return p.parts.Sorted(), nil
}

// PartsByContentType returns the parts with the given content type
func (p *Package) PartsByContentType(contentType string) ([]*Part, error) {
	parts, err := p.Parts()
	if err != nil {
		return nil, err
	}
	var out []*Part
	for _, part := range parts {
		if part.contentType == contentType {
			out = append(out, part)
		}
	}
	return out, nil
}

// PartsMatching returns the parts whose name matches a doublestar glob
// such as "/word/media/*.png" or "/**/*.xml".
func (p *Package) PartsMatching(pattern string) ([]*Part, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, illegalArgument("match parts", "", "invalid pattern %q", pattern)
	}
	parts, err := p.Parts()
	if err != nil {
		return nil, err
	}
	var out []*Part
	for _, part := range parts {
		if ok, _ := doublestar.Match(pattern, part.name.name); ok {
			out = append(out, part)
		}
	}
	return out, nil
}

// PartsByRelationshipType returns the parts targeted by package
// relationships of the given type.
func (p *Package) PartsByRelationshipType(relType string) ([]*Part, error) {
	const op = "get parts by relationship type"
	if relType == "" {
		return nil, illegalArgument(op, "", "relationship type cannot be empty")
	}
	if err := p.readable(op); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	var out []*Part
	for _, r := range g.ByType(relType).All() {
		if r.mode != TargetModeInternal {
			continue
		}
		part, err := p.partForRelationship(r)
		if err != nil {
			return nil, err
		}
		if part != nil {
			out = append(out, part)
		}
	}
	return out, nil
}

// PartForRelationship returns the part targeted by rel, or nil when absent
func (p *Package) PartForRelationship(rel *Relationship) (*Part, error) {
	if rel == nil {
		return nil, illegalArgument("get part for relationship", "", "relationship is nil")
	}
	if err := p.readable("get part for relationship"); err != nil {
		return nil, err
	}
	return p.partForRelationship(rel)
}

func (p *Package) partForRelationship(rel *Relationship) (*Part, error) {
	name, err := rel.TargetPartName()
	if err != nil {
		return nil, err
	}
	return p.parts.Get(name), nil
}

// CreatePart adds an empty writable part. The relationships of a part
// previously stored under the same name are picked up.
func (p *Package) CreatePart(name PartName, contentType string) (*Part, error) {
	return p.createPart(name, contentType, nil, true)
}

// CreatePartWithContent adds a writable part holding data.
func (p *Package) CreatePartWithContent(name PartName, contentType string, data []byte) (*Part, error) {
	return p.createPart(name, contentType, data, true)
}

func (p *Package) createPart(name PartName, contentType string, data []byte, loadRelationships bool) (*Part, error) {
	const op = "create part"
	if err := p.writable(op); err != nil {
		return nil, err
	}
	if name.IsZero() || name.IsRoot() {
		return nil, illegalArgument(op, name.name, "part name is required")
	}
	if err := validateContentType(op, name.name, contentType); err != nil {
		return nil, err
	}
	if p.parts.Contains(name) {
		return nil, invalidOperation(op, name.name, "M1.12", "a part with the name already exists")
	}
	if contentType == ContentTypeCoreProperties && p.props != nil && p.parts.Contains(p.propsName) {
		return nil, invalidOperation(op, name.name, "M4.1", "the package already has a core properties part")
	}

	part := newBufferPart(p, name, contentType, data)
	if err := p.parts.Put(part); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := p.unmarshal(part, data); err != nil {
			p.parts.Remove(name)
			return nil, err
		}
	}
	p.contentTypes.Add(name, contentType)
	if loadRelationships && !name.IsRelationshipPart() {
		if _, err := part.relationships(); err != nil {
			p.logger.Warn("ignoring stale relationships of %s: %v", name.name, err)
			part.rels.set(NewRelationshipGraph(name))
		}
	}
	if contentType == ContentTypeCoreProperties && len(data) == 0 {
		p.propsName = name
		if p.props == nil {
			p.props = &CoreProperties{}
		}
	}
	p.state.touch()
	return part, nil
}

// ReopenForWrite swaps part for a writable copy holding the same content
// and relationships, and returns the copy. Writable parts are returned as is.
func (p *Package) ReopenForWrite(part *Part) (*Part, error) {
	const op = "reopen part"
	if part == nil {
		return nil, illegalArgument(op, "", "part is nil")
	}
	if err := p.writable(op); err != nil {
		return nil, err
	}
	part = part.current()
	if part.pkg != p {
		return nil, illegalArgument(op, part.name.name, "part belongs to another package")
	}
	if part.deleted {
		return nil, invalidOperation(op, part.name.name, "", "part has been removed from the package")
	}
	if part.storage.writable() {
		return part, nil
	}

	data, err := part.Bytes()
	if err != nil {
		return nil, err
	}
	np := newBufferPart(p, part.name, part.contentType, data)
	np.rels = part.rels

	p.parts.replace(np)
	part.deleted = true
	part.replacement = np
	p.state.touch()
	return np, nil
}

// RemovePart removes the part with the given name. Removing a relationship
// part clears the relationships of its source. Absent parts are ignored.
func (p *Package) RemovePart(name PartName) error {
	const op = "remove part"
	if err := p.writable(op); err != nil {
		return err
	}
	if name.IsZero() {
		return illegalArgument(op, "", "part name is required")
	}
	p.removePart(name)
	return nil
}

func (p *Package) removePart(name PartName) {
	part := p.parts.Remove(name)
	if part == nil {
		return
	}
	part.deleted = true
	p.contentTypes.Remove(name, p.extensionInUse)

	if name.IsRelationshipPart() {
		if source, err := name.SourcePartName(); err == nil {
			if source.IsRoot() {
				p.rels.set(NewRelationshipGraph(RootPartName))
			} else if sp := p.parts.Get(source); sp != nil {
				sp.rels.set(NewRelationshipGraph(source))
			}
		}
	}
	p.state.touch()
}

// extensionInUse reports whether a live part still resolves its content
// type through the default of ext.
func (p *Package) extensionInUse(ext string) bool {
	for _, part := range p.parts.parts {
		if strings.EqualFold(part.name.Extension(), ext) && !p.contentTypes.HasOverride(part.name) {
			return true
		}
	}
	return false
}

// DeletePart removes the part and its relationship part.
func (p *Package) DeletePart(name PartName) error {
	const op = "delete part"
	if err := p.writable(op); err != nil {
		return err
	}
	if name.IsZero() || !p.parts.Contains(name) {
		return illegalArgument(op, name.name, "no such part")
	}
	p.removePart(name)
	if !name.IsRelationshipPart() {
		if relsName, err := name.RelationshipPartName(); err == nil {
			p.removePart(relsName)
		}
	}
	return nil
}

// RemovePartRecursive removes the part, its relationship part and every
// part reachable from it through internal relationships. Parts already
// gone are skipped.
func (p *Package) RemovePartRecursive(name PartName) error {
	const op = "remove part recursive"
	if err := p.writable(op); err != nil {
		return err
	}
	if name.IsZero() {
		return illegalArgument(op, "", "part name is required")
	}
	return p.removeRecursive(name, make(map[string]bool))
}

// DeletePartRecursive is RemovePartRecursive for a part that must exist.
func (p *Package) DeletePartRecursive(name PartName) error {
	const op = "delete part recursive"
	if err := p.writable(op); err != nil {
		return err
	}
	if name.IsZero() || !p.parts.Contains(name) {
		return illegalArgument(op, name.name, "no such part")
	}
	return p.removeRecursive(name, make(map[string]bool))
}

func (p *Package) removeRecursive(name PartName, visited map[string]bool) error {
	if visited[name.key()] {
		return nil
	}
	visited[name.key()] = true

	part := p.parts.Get(name)
	if part == nil {
		return nil
	}

	var targets []PartName
	if !name.IsRelationshipPart() {
		g, err := part.relationships()
		if err != nil {
			return err
		}
		for _, r := range g.All() {
			if r.mode != TargetModeInternal {
				continue
			}
			target, err := r.TargetPartName()
			if err != nil {
				p.logger.Warn("not following relationship %s of %s: %v", r.id, name.name, err)
				continue
			}
			targets = append(targets, target)
		}
	}

	p.removePart(name)
	if !name.IsRelationshipPart() {
		if relsName, err := name.RelationshipPartName(); err == nil {
			p.removePart(relsName)
		}
	}

	for _, target := range targets {
		if err := p.removeRecursive(target, visited); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceContentType retypes every part of oldType and reports whether any changed.
func (p *Package) ReplaceContentType(oldType, newType string) (bool, error) {
	const op = "replace content type"
	if err := p.writable(op); err != nil {
		return false, err
	}
	if err := validateContentType(op, "", newType); err != nil {
		return false, err
	}
	changed := false
	for _, part := range p.parts.parts {
		if part.contentType == oldType {
			part.contentType = newType
			changed = true
		}
	}
	if p.contentTypes.Replace(oldType, newType) > 0 {
		changed = true
	}
	if changed {
		p.state.touch()
	}
	return changed, nil
}

// UnusedPartIndex returns the smallest index >= 1 for which replacing the
// '#' of template yields a name no part uses, e.g. "/word/media/image#.png".
func (p *Package) UnusedPartIndex(template string) (int, error) {
	const op = "find unused part index"
	if !strings.Contains(template, "#") {
		return 0, illegalArgument(op, template, "template needs a '#' placeholder")
	}
	if err := p.readable(op); err != nil {
		return 0, err
	}
	for i := 1; ; i++ {
		name, err := NewPartName(strings.Replace(template, "#", strconv.Itoa(i), 1))
		if err != nil {
			return 0, err
		}
		if !p.parts.Contains(name) {
			return i, nil
		}
	}
}

// CoreProperties returns the core properties, creating empty ones when the
// package has none. On a writable package the result may be edited in place;
// the package is considered changed once a value differs from the loaded one.
func (p *Package) CoreProperties() (*CoreProperties, error) {
	if err := p.readable("get core properties"); err != nil {
		return nil, err
	}
	if p.props == nil {
		p.props = &CoreProperties{}
	}
	return p.props, nil
}

// ensureCoreProperties adds the core properties part and its package
// relationship when either is missing.
func (p *Package) ensureCoreProperties() error {
	const op = "add core properties"
	if p.props == nil {
		p.props = &CoreProperties{}
	}
	g, err := p.relationships()
	if err != nil {
		return err
	}

	if p.propsName.IsZero() || !p.parts.Contains(p.propsName) {
		name := CorePropertiesPartName
		if existing := p.parts.Get(name); existing != nil {
			return invalidOperation(op, name.name, "M4.1", "%s is taken by a part of type %s", name.name, existing.contentType)
		}
		part := newBufferPart(p, name, ContentTypeCoreProperties, nil)
		if err := p.parts.Put(part); err != nil {
			return err
		}
		part.rels.set(NewRelationshipGraph(name))
		p.contentTypes.Add(name, ContentTypeCoreProperties)
		p.propsName = name
		p.state.touch()
	}

	for _, r := range g.All() {
		if !isCorePropertiesType(r.relType) {
			continue
		}
		if target, err := r.TargetPartName(); err == nil && target.Equal(p.propsName) {
			return nil
		}
		// dangling relationship to a core properties part that is gone
		g.Remove(r.id)
	}
	if _, err := g.Add(RelativizePartURI(RootPartName, p.propsName), TargetModeInternal, RelTypeCoreProperties, ""); err != nil {
		return err
	}
	p.state.touch()
	return nil
}
