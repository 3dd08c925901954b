package opc

import (
	"io"
	"mime"
	"path"
	"sort"
	"strings"

	wire "github.com/benjaminschreck/go-opc/pkg/opc/xml"
)

// Well-known content types
const (
	ContentTypeRelationships  = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeCoreProperties = "application/vnd.openxmlformats-package.core-properties+xml"
	ContentTypeXML            = "application/xml"
)

// extensionContentTypes covers the binary formats commonly embedded in packages
var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
	"pict": "image/pict",
}

// ContentTypeFromExtension infers an image content type from a file name.
func ContentTypeFromExtension(filename string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	ct, ok := extensionContentTypes[ext]
	return ct, ok
}

func validateContentType(op, part, contentType string) error {
	if contentType == "" {
		return illegalArgument(op, part, "content type cannot be empty")
	}
	if _, _, err := mime.ParseMediaType(contentType); err != nil || !strings.Contains(contentType, "/") {
		return illegalArgument(op, part, "invalid content type %q", contentType)
	}
	return nil
}

type contentTypeOverride struct {
	name        PartName
	contentType string
}

// ContentTypeRegistry resolves the content type of every part, either by
// an exact part name override or by a default keyed on the extension.
type ContentTypeRegistry struct {
	defaults  map[string]string
	overrides map[string]contentTypeOverride
}

// NewContentTypeRegistry returns an empty registry
func NewContentTypeRegistry() *ContentTypeRegistry {
	return &ContentTypeRegistry{
		defaults:  make(map[string]string),
		overrides: make(map[string]contentTypeOverride),
	}
}

// newSeededContentTypeRegistry registers the xml and rels defaults every package needs.
func newSeededContentTypeRegistry() *ContentTypeRegistry {
	r := NewContentTypeRegistry()
	r.defaults[relationshipsExtension] = ContentTypeRelationships
	r.defaults["xml"] = ContentTypeXML
	return r
}

// ParseContentTypes reads a [Content_Types].xml manifest
func ParseContentTypes(r io.Reader) (*ContentTypeRegistry, error) {
	const op = "parse content types"
	var doc wire.Types
	if err := wire.Decode(r, &doc); err != nil {
		return nil, wrapError(ErrInvalidFormat, op, contentTypesItemName, err)
	}

	reg := NewContentTypeRegistry()
	for _, d := range doc.Defaults {
		ext := strings.ToLower(strings.TrimPrefix(d.Extension, "."))
		if ext == "" || d.ContentType == "" {
			return nil, invalidFormat(op, contentTypesItemName, "", "default entry needs both Extension and ContentType")
		}
		reg.defaults[ext] = d.ContentType
	}
	for _, o := range doc.Overrides {
		name, err := NewPartName(o.PartName)
		if err != nil {
			return nil, wrapError(ErrInvalidFormat, op, contentTypesItemName, err)
		}
		if o.ContentType == "" {
			return nil, invalidFormat(op, o.PartName, "", "override entry needs a ContentType")
		}
		reg.overrides[name.key()] = contentTypeOverride{name: name, contentType: o.ContentType}
	}
	return reg, nil
}

// Add registers contentType for name. A default is used when the extension
// is new; an override when the extension is missing or already maps to a
// different type.
func (r *ContentTypeRegistry) Add(name PartName, contentType string) {
	ext := strings.ToLower(name.Extension())
	existing, hasDefault := r.defaults[ext]
	switch {
	case ext == "" || (hasDefault && existing != contentType):
		r.overrides[name.key()] = contentTypeOverride{name: name, contentType: contentType}
	case !hasDefault:
		r.defaults[ext] = contentType
		delete(r.overrides, name.key())
	default:
		delete(r.overrides, name.key())
	}
}

// AddDefault maps an extension to a content type
func (r *ContentTypeRegistry) AddDefault(extension, contentType string) {
	r.defaults[strings.ToLower(strings.TrimPrefix(extension, "."))] = contentType
}

// Remove drops the registration of name. An override is simply deleted; a
// default is deleted only when inUse reports no other part with that extension.
func (r *ContentTypeRegistry) Remove(name PartName, inUse func(ext string) bool) {
	if _, ok := r.overrides[name.key()]; ok {
		delete(r.overrides, name.key())
		return
	}
	ext := strings.ToLower(name.Extension())
	if _, ok := r.defaults[ext]; !ok {
		return
	}
	if inUse != nil && inUse(ext) {
		return
	}
	delete(r.defaults, ext)
}

// ContentType resolves the content type of name.
func (r *ContentTypeRegistry) ContentType(name PartName) (string, bool) {
	if o, ok := r.overrides[name.key()]; ok {
		return o.contentType, true
	}
	ct, ok := r.defaults[strings.ToLower(name.Extension())]
	return ct, ok
}

// HasOverride reports whether name is registered by exact name.
func (r *ContentTypeRegistry) HasOverride(name PartName) bool {
	_, ok := r.overrides[name.key()]
	return ok
}

// IsRegistered reports whether any entry maps to contentType
func (r *ContentTypeRegistry) IsRegistered(contentType string) bool {
	for _, ct := range r.defaults {
		if ct == contentType {
			return true
		}
	}
	for _, o := range r.overrides {
		if o.contentType == contentType {
			return true
		}
	}
	return false
}

// Replace rewrites every entry mapping to oldType and returns how many changed.
func (r *ContentTypeRegistry) Replace(oldType, newType string) int {
	n := 0
	for ext, ct := range r.defaults {
		if ct == oldType {
			r.defaults[ext] = newType
			n++
		}
	}
	for key, o := range r.overrides {
		if o.contentType == oldType {
			o.contentType = newType
			r.overrides[key] = o
			n++
		}
	}
	return n
}

// Clear removes every entry
func (r *ContentTypeRegistry) Clear() {
	r.defaults = make(map[string]string)
	r.overrides = make(map[string]contentTypeOverride)
}

// Defaults returns the default entries ordered by extension
func (r *ContentTypeRegistry) Defaults() []wire.Default {
	out := make([]wire.Default, 0, len(r.defaults))
	for ext, ct := range r.defaults {
		out = append(out, wire.Default{Extension: ext, ContentType: ct})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Extension < out[j].Extension
	})
	return out
}

// Overrides returns the override entries ordered by part name
func (r *ContentTypeRegistry) Overrides() []wire.Override {
	list := make([]contentTypeOverride, 0, len(r.overrides))
	for _, o := range r.overrides {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].name.Compare(list[j].name) < 0
	})
	out := make([]wire.Override, len(list))
	for i, o := range list {
		out[i] = wire.Override{PartName: o.name.name, ContentType: o.contentType}
	}
	return out
}

// manifest returns a copy keeping every default and only the overrides of
// names, so the written manifest never mentions a part that is not written.
func (r *ContentTypeRegistry) manifest(names []PartName) *ContentTypeRegistry {
	out := NewContentTypeRegistry()
	for ext, ct := range r.defaults {
		out.defaults[ext] = ct
	}
	for _, n := range names {
		if o, ok := r.overrides[n.key()]; ok {
			out.overrides[n.key()] = o
		}
	}
	return out
}

// Marshal serializes the registry as [Content_Types].xml
func (r *ContentTypeRegistry) Marshal() ([]byte, error) {
	doc := wire.NewTypes()
	doc.Defaults = r.Defaults()
	doc.Overrides = r.Overrides()
	return wire.Marshal(doc)
}
