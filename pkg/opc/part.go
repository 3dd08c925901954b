package opc

import (
	"bytes"
	"errors"
	"io"

	"github.com/benjaminschreck/go-opc/pkg/opc/archive"
)

// partStorage is where the bytes of a part live. Archive-backed storage is
// read-only; the only way to make a part writable is Package.ReopenForWrite.
type partStorage interface {
	open() (io.ReadCloser, error)
	size() int64
	writable() bool
}

type archiveStorage struct {
	entry archive.Entry
}

func (s *archiveStorage) open() (io.ReadCloser, error) {
	return s.entry.Open()
}

func (s *archiveStorage) size() int64 {
	return s.entry.Size()
}

func (s *archiveStorage) writable() bool {
	return false
}

type bufferStorage struct {
	data []byte
}

func (s *bufferStorage) open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *bufferStorage) size() int64 {
	return int64(len(s.data))
}

func (s *bufferStorage) writable() bool {
	return true
}

type relationshipState int

const (
	relationshipsUnloaded relationshipState = iota
	relationshipsLoaded
)

// relationshipSlot holds a relationship graph that is parsed on first access.
type relationshipSlot struct {
	state relationshipState
	graph *RelationshipGraph
}

func (s *relationshipSlot) get(load func() (*RelationshipGraph, error)) (*RelationshipGraph, error) {
	if s.state == relationshipsLoaded {
		return s.graph, nil
	}
	g, err := load()
	if err != nil {
		return nil, err
	}
	s.set(g)
	return g, nil
}

func (s *relationshipSlot) set(g *RelationshipGraph) {
	s.graph = g
	s.state = relationshipsLoaded
}

// Part is one named, typed payload of a package.
type Part struct {
	pkg         *Package
	name        PartName
	contentType string
	storage     partStorage
	rels        relationshipSlot
	deleted     bool
	replacement *Part
}

func newArchivePart(pkg *Package, name PartName, contentType string, entry archive.Entry) *Part {
	return &Part{
		pkg:         pkg,
		name:        name,
		contentType: contentType,
		storage:     &archiveStorage{entry: entry},
	}
}

func newBufferPart(pkg *Package, name PartName, contentType string, data []byte) *Part {
	return &Part{
		pkg:         pkg,
		name:        name,
		contentType: contentType,
		storage:     &bufferStorage{data: data},
	}
}

// current follows copy-on-write replacements to the live part.
func (p *Part) current() *Part {
	for p.replacement != nil {
		p = p.replacement
	}
	return p
}

func (p *Part) Name() PartName {
	return p.name
}

func (p *Part) ContentType() string {
	return p.current().contentType
}

func (p *Part) Package() *Package {
	return p.pkg
}

func (p *Part) IsRelationshipPart() bool {
	return p.name.IsRelationshipPart()
}

// IsDeleted reports whether the part was removed from its package. A part
// replaced by copy-on-write is not reported as deleted.
func (p *Part) IsDeleted() bool {
	return p.current().deleted
}

// Size returns the content length in bytes
func (p *Part) Size() int64 {
	return p.current().storage.size()
}

// InputStream opens the current content of the part.
func (p *Part) InputStream() (io.ReadCloser, error) {
	cur := p.current()
	if err := cur.pkg.checkOpen("read part"); err != nil {
		return nil, err
	}
	rc, err := cur.storage.open()
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, "read part", cur.name.name, err)
	}
	return rc, nil
}

// Bytes reads the whole content of the part.
func (p *Part) Bytes() ([]byte, error) {
	rc, err := p.InputStream()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrapError(ErrInvalidFormat, "read part", p.name.name, err)
	}
	return data, nil
}

// OutputStream returns a writer whose content replaces the part on Close.
// An archive-backed part is first swapped for a writable copy; the swap is
// followed transparently by every method of p.
func (p *Part) OutputStream() (io.WriteCloser, error) {
	const op = "write part"
	cur := p.current()
	if err := cur.pkg.checkOpen(op); err != nil {
		return nil, err
	}
	if err := cur.pkg.throwIfReadOnly(op); err != nil {
		return nil, err
	}
	if cur.deleted {
		return nil, invalidOperation(op, cur.name.name, "", "part has been removed from the package")
	}
	if !cur.storage.writable() {
		np, err := cur.pkg.ReopenForWrite(cur)
		if err != nil {
			return nil, err
		}
		cur = np
	}
	return &partWriter{part: cur}, nil
}

// SetBytes replaces the content of the part.
func (p *Part) SetBytes(data []byte) error {
	w, err := p.OutputStream()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

type partWriter struct {
	part   *Part
	buf    bytes.Buffer
	closed bool
}

var errWriterClosed = errors.New("opc: part writer already closed")

func (w *partWriter) Write(b []byte) (int, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	return w.buf.Write(b)
}

func (w *partWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	data := w.buf.Bytes()
	if err := w.part.pkg.unmarshal(w.part, data); err != nil {
		return err
	}
	w.part.storage = &bufferStorage{data: data}
	w.part.pkg.state.touch()
	return nil
}

// relationships is the single accessor loading the graph on first use.
func (p *Part) relationships() (*RelationshipGraph, error) {
	cur := p.current()
	if cur.name.IsRelationshipPart() {
		return nil, invalidOperation("get relationships", cur.name.name, "M1.25", "a relationship part cannot have relationships")
	}
	return cur.rels.get(func() (*RelationshipGraph, error) {
		return cur.pkg.loadRelationships(cur.name)
	})
}

// Relationships returns a copy of the relationships whose source is the part.
func (p *Part) Relationships() (*RelationshipGraph, error) {
	if err := p.pkg.checkOpen("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.clone(), nil
}

// RelationshipsByType returns the relationships of the given type.
func (p *Part) RelationshipsByType(relType string) (*RelationshipGraph, error) {
	if err := p.pkg.checkOpen("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.ByType(relType), nil
}

// Relationship returns the relationship with the given id, or nil.
func (p *Part) Relationship(id string) (*Relationship, error) {
	if err := p.pkg.checkOpen("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.Get(id), nil
}

// HasRelationships reports whether the part is the source of any relationship.
func (p *Part) HasRelationships() bool {
	if p.name.IsRelationshipPart() {
		return false
	}
	g, err := p.relationships()
	return err == nil && g.Len() > 0
}

// AddRelationship relates the part to target with a generated id.
func (p *Part) AddRelationship(target PartName, mode TargetMode, relType string) (*Relationship, error) {
	return p.AddRelationshipWithID(target, mode, relType, "")
}

// AddRelationshipWithID relates the part to target using id.
func (p *Part) AddRelationshipWithID(target PartName, mode TargetMode, relType, id string) (*Relationship, error) {
	cur := p.current()
	return cur.pkg.addRelationship(cur.name, cur.relationships, target, mode, relType, id)
}

// AddExternalRelationship relates the part to a URI outside the package.
func (p *Part) AddExternalRelationship(target, relType string) (*Relationship, error) {
	return p.AddExternalRelationshipWithID(target, relType, "")
}

// AddExternalRelationshipWithID relates the part to a URI outside the package using id.
func (p *Part) AddExternalRelationshipWithID(target, relType, id string) (*Relationship, error) {
	cur := p.current()
	return cur.pkg.addExternalRelationship(cur.relationships, target, relType, id)
}

// RemoveRelationship deletes the relationship with the given id.
func (p *Part) RemoveRelationship(id string) error {
	cur := p.current()
	return cur.pkg.removeRelationship(cur.relationships, id)
}

// ClearRelationships deletes every relationship of the part.
func (p *Part) ClearRelationships() error {
	cur := p.current()
	return cur.pkg.clearRelationships(cur.relationships)
}

// RelatedPart returns the part targeted by rel, which must originate here.
func (p *Part) RelatedPart(rel *Relationship) (*Part, error) {
	if rel == nil {
		return nil, illegalArgument("get related part", p.name.name, "relationship is nil")
	}
	if !rel.source.Equal(p.name) {
		return nil, illegalArgument("get related part", p.name.name, "relationship %s does not originate from this part", rel.id)
	}
	return p.pkg.partForRelationship(rel)
}
