package opc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/benjaminschreck/go-opc/pkg/opc/archive"
)

type pendingPart struct {
	part *Part
	rels *RelationshipGraph
}

// Save writes the package to w. The order of the archive is: the package
// relationships, [Content_Types].xml, then every content part followed by
// its relationship part. Relationship parts are never copied as such; they
// are regenerated from the relationship graphs.
func (p *Package) Save(w io.Writer) error {
	const op = "save"
	if err := p.writable(op); err != nil {
		return err
	}
	if w == nil {
		return illegalArgument(op, "", "output cannot be nil")
	}
	start := time.Now()

	// 1. core properties
	if err := p.ensureCoreProperties(); err != nil {
		return err
	}

	rootRels, err := p.relationships()
	if err != nil {
		return err
	}

	var pending []pendingPart
	var written []PartName
	for _, part := range p.parts.Sorted() {
		if part.name.IsRelationshipPart() {
			continue
		}
		g, err := part.relationships()
		if err != nil {
			return err
		}
		pending = append(pending, pendingPart{part: part, rels: g})
		written = append(written, part.name)
	}

	manifest := p.contentTypes.manifest(written)
	for _, pp := range pending {
		if _, ok := manifest.ContentType(pp.part.name); !ok {
			return invalidFormat(op, pp.part.name.name, "M1.14", "part has no content type")
		}
		if pp.rels.Len() > 0 {
			relsName, _ := pp.part.name.RelationshipPartName()
			ensureRelationshipsType(manifest, relsName)
		}
	}
	if rootRels.Len() > 0 {
		ensureRelationshipsType(manifest, PackageRelationshipsPartName)
	}

	zw := archive.NewWriter(w, p.archiveOptions()...)

	// 2. package relationships
	if rootRels.Len() > 0 {
		if err := writeRelationships(zw, PackageRelationshipsPartName, rootRels); err != nil {
			return err
		}
	}

	// 3. content types
	data, err := manifest.Marshal()
	if err != nil {
		return wrapError(ErrInvalidFormat, op, contentTypesItemName, err)
	}
	if err := writeEntry(zw, contentTypesItemName, data); err != nil {
		return err
	}

	// 4. parts, each followed by its relationships
	for _, pp := range pending {
		if err := p.savePart(zw, pp); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return wrapError(ErrInvalidOperation, op, p.path, err)
	}
	p.metrics.saved(start, len(pending))
	p.logger.Debug("saved %d parts in %s", len(pending), time.Since(start))
	return nil
}

func ensureRelationshipsType(manifest *ContentTypeRegistry, name PartName) {
	if ct, ok := manifest.ContentType(name); !ok || ct != ContentTypeRelationships {
		manifest.Add(name, ContentTypeRelationships)
	}
}

func (p *Package) savePart(zw archive.Writer, pp pendingPart) error {
	item := archive.ZipItemName(pp.part.name.name)
	w, err := zw.Create(item)
	if err != nil {
		return wrapError(ErrInvalidOperation, "save part", pp.part.name.name, err)
	}
	if err := p.marshallerFor(pp.part.contentType).Marshal(pp.part, w); err != nil {
		return wrapError(ErrInvalidOperation, "save part", pp.part.name.name, err)
	}
	p.logger.Debug("saved part %s (%s)", pp.part.name.name, pp.part.contentType)

	if pp.rels.Len() == 0 {
		return nil
	}
	relsName, err := pp.part.name.RelationshipPartName()
	if err != nil {
		return err
	}
	return writeRelationships(zw, relsName, pp.rels)
}

func writeRelationships(zw archive.Writer, name PartName, g *RelationshipGraph) error {
	data, err := g.Marshal()
	if err != nil {
		return wrapError(ErrInvalidFormat, "save relationships", name.name, err)
	}
	return writeEntry(zw, archive.ZipItemName(name.name), data)
}

func writeEntry(zw archive.Writer, item string, data []byte) error {
	w, err := zw.Create(item)
	if err != nil {
		return wrapError(ErrInvalidOperation, "save", item, err)
	}
	if _, err := w.Write(data); err != nil {
		return wrapError(ErrInvalidOperation, "save", item, err)
	}
	return nil
}

// SaveFile writes the package to a new file at path. Saving over the file
// the package was opened from is refused; use Close for that.
func (p *Package) SaveFile(path string) (err error) {
	const op = "save"
	if err := p.writable(op); err != nil {
		return err
	}
	if path == "" {
		return illegalArgument(op, "", "path cannot be empty")
	}
	if p.archive != nil && p.path != "" && samePath(path, p.path) {
		return invalidOperation(op, path, "", "cannot save over the open package file, use Close")
	}

	f, err := os.Create(path)
	if err != nil {
		return wrapError(ErrInvalidOperation, op, path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrapError(ErrInvalidOperation, op, path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return p.Save(f)
}

func samePath(a, b string) bool {
	if ia, err := os.Stat(a); err == nil {
		if ib, err := os.Stat(b); err == nil {
			return os.SameFile(ia, ib)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Flush writes the in-memory core properties into the core properties
// part without saving the package.
func (p *Package) Flush() error {
	const op = "flush"
	if err := p.writable(op); err != nil {
		return err
	}
	if p.props == nil {
		return nil
	}
	if err := p.ensureCoreProperties(); err != nil {
		return err
	}
	part := p.parts.Get(p.propsName)
	if part == nil {
		return nil
	}
	data, err := p.props.Marshal()
	if err != nil {
		return wrapError(ErrInvalidFormat, op, p.propsName.name, err)
	}
	if !part.storage.writable() {
		if part, err = p.ReopenForWrite(part); err != nil {
			return err
		}
	}
	part.storage = &bufferStorage{data: data}
	p.propsBase = *p.props
	p.state.touch()
	return nil
}

// Close saves a writable package to its file or stream and releases it.
// A package opened from a file is written to a temporary file in the same
// folder which then replaces the original. Closing a read-only package only
// logs a warning and reverts it.
func (p *Package) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.closed {
		return nil
	}
	if p.access == AccessRead {
		p.logger.Warn("close called on a read-only package, nothing is saved; use Revert instead")
		p.revert()
		return nil
	}

	var err error
	switch {
	case p.path != "":
		if p.archive != nil && !p.changed() {
			p.logger.Debug("package unchanged, not rewriting %s", p.path)
		} else {
			err = p.saveReplacing()
		}
	case p.output != nil:
		err = p.Save(p.output)
	}
	p.revert()
	return err
}

// saveReplacing writes to a temporary file and renames it over the target.
// The temporary file is removed whatever happens.
func (p *Package) saveReplacing() (err error) {
	const op = "close"
	dir, base := filepath.Split(p.path)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(p.path); statErr == nil {
		mode = info.Mode().Perm()
	}

	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			p.logger.Warn("failed to remove temporary file %s: %v", tmp, rmErr)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return wrapError(ErrInvalidOperation, op, tmp, err)
	}
	if err := p.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return wrapError(ErrInvalidOperation, op, tmp, err)
	}
	if err := f.Close(); err != nil {
		return wrapError(ErrInvalidOperation, op, tmp, err)
	}

	// the archive still reads from the original file
	p.releaseArchive()
	if err := os.Rename(tmp, p.path); err != nil {
		return wrapError(ErrInvalidOperation, op, p.path, err)
	}
	return nil
}

// Revert releases the package without saving anything.
func (p *Package) Revert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revert()
}

func (p *Package) revert() {
	if p.state.closed {
		return
	}
	p.releaseArchive()
	p.state.closed = true
	p.state.dirty = false
	if p.contentTypes != nil {
		p.contentTypes.Clear()
	}
}

func (p *Package) releaseArchive() {
	if p.archive == nil {
		return
	}
	if err := p.archive.Close(); err != nil {
		p.logger.Warn("failed to close archive: %v", err)
	}
	p.archive = nil
}
