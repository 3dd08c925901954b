package opc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AddThumbnail stores the image at path as the package thumbnail under
// /docProps and links it from the package with a thumbnail relationship.
func (p *Package) AddThumbnail(path string) (*Part, error) {
	if path == "" {
		return nil, illegalArgument("add thumbnail", "", "path cannot be empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(ErrIllegalArgument, "add thumbnail", path, err)
	}
	defer f.Close()
	return p.AddThumbnailReader(filepath.Base(path), f)
}

// AddThumbnailReader is AddThumbnail for image data read from r. The
// content type comes from the extension of filename.
func (p *Package) AddThumbnailReader(filename string, r io.Reader) (*Part, error) {
	const op = "add thumbnail"
	if err := p.writable(op); err != nil {
		return nil, err
	}
	contentType, ok := ContentTypeFromExtension(filename)
	if !ok {
		return nil, illegalArgument(op, filename, "unsupported thumbnail format")
	}

	name, err := NewPartName("/docProps/" + filename)
	if err != nil {
		// names that are not valid segments fall back to thumbnail.<ext>
		ext := strings.ToLower(filepath.Ext(filename))
		name, err = NewPartName("/docProps/thumbnail" + ext)
		if err != nil {
			return nil, err
		}
	}
	if p.parts.Contains(name) {
		return nil, invalidOperation(op, name.name, "M1.12", "a part with the name already exists")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, wrapError(ErrIllegalArgument, op, filename, err)
	}
	part, err := p.CreatePartWithContent(name, contentType, buf.Bytes())
	if err != nil {
		return nil, err
	}
	if _, err := p.AddRelationship(name, TargetModeInternal, RelTypeThumbnail); err != nil {
		p.removePart(name)
		return nil, err
	}
	p.logger.Debug("added thumbnail %s (%s)", name.name, contentType)
	return part, nil
}
