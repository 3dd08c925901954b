package opc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeRegistryAdd(t *testing.T) {
	r := newSeededContentTypeRegistry()

	doc := MustPartName("/word/document.xml")
	r.Add(doc, testDocumentType)
	assert.True(t, r.HasOverride(doc), "xml default maps elsewhere, so an override is needed")

	img := MustPartName("/media/image1.png")
	r.Add(img, "image/png")
	assert.False(t, r.HasOverride(img))
	ct, ok := r.ContentType(MustPartName("/other/IMAGE2.PNG"))
	require.True(t, ok)
	assert.Equal(t, "image/png", ct, "defaults match extensions case-insensitively")

	noExt := MustPartName("/customXml/item")
	r.Add(noExt, "application/octet-stream")
	assert.True(t, r.HasOverride(noExt))

	plain := MustPartName("/data/plain.xml")
	r.Add(plain, ContentTypeXML)
	assert.False(t, r.HasOverride(plain))
}

func TestContentTypeRegistryAddDropsStaleOverride(t *testing.T) {
	r := newSeededContentTypeRegistry()
	name := MustPartName("/a.xml")
	r.Add(name, "text/xml")
	require.True(t, r.HasOverride(name))

	r.Add(name, ContentTypeXML)
	assert.False(t, r.HasOverride(name))
	ct, _ := r.ContentType(name)
	assert.Equal(t, ContentTypeXML, ct)
}

func TestContentTypeRegistryRemove(t *testing.T) {
	r := newSeededContentTypeRegistry()
	a := MustPartName("/a.png")
	b := MustPartName("/b.png")
	r.Add(a, "image/png")
	r.Add(b, "image/png")

	inUse := func(ext string) bool { return ext == "png" }
	r.Remove(a, inUse)
	_, ok := r.ContentType(b)
	assert.True(t, ok, "default survives while another part uses it")

	r.Remove(b, func(string) bool { return false })
	_, ok = r.ContentType(b)
	assert.False(t, ok)

	doc := MustPartName("/word/document.xml")
	r.Add(doc, testDocumentType)
	r.Remove(doc, nil)
	assert.False(t, r.HasOverride(doc))
	ct, ok := r.ContentType(doc)
	require.True(t, ok, "removing an override keeps the xml default")
	assert.Equal(t, ContentTypeXML, ct)
}

func TestContentTypeRegistryReplace(t *testing.T) {
	r := newSeededContentTypeRegistry()
	r.Add(MustPartName("/word/document.xml"), testDocumentType)
	r.Add(MustPartName("/word/glossary.xml"), testDocumentType)

	assert.Equal(t, 2, r.Replace(testDocumentType, "application/vnd.ms-word.document.macroEnabled.main+xml"))
	assert.False(t, r.IsRegistered(testDocumentType))
	assert.True(t, r.IsRegistered("application/vnd.ms-word.document.macroEnabled.main+xml"))
	assert.Equal(t, 0, r.Replace(testDocumentType, "text/plain"))
}

func TestContentTypeRegistryMarshalRoundTrip(t *testing.T) {
	r := newSeededContentTypeRegistry()
	r.Add(MustPartName("/word/document.xml"), testDocumentType)
	r.Add(MustPartName("/media/image1.png"), "image/png")

	data, err := r.Marshal()
	require.NoError(t, err)

	parsed, err := ParseContentTypes(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, r.Defaults(), parsed.Defaults())
	assert.Equal(t, r.Overrides(), parsed.Overrides())
}

func TestContentTypeRegistryManifest(t *testing.T) {
	r := newSeededContentTypeRegistry()
	kept := MustPartName("/word/document.xml")
	dropped := MustPartName("/word/removed.xml")
	r.Add(kept, testDocumentType)
	r.Add(dropped, "text/xml")

	m := r.manifest([]PartName{kept})
	assert.True(t, m.HasOverride(kept))
	assert.False(t, m.HasOverride(dropped))
	assert.Len(t, m.Defaults(), 2)
	assert.True(t, r.HasOverride(dropped), "the registry itself is unchanged")
}

func TestParseContentTypesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not xml", "garbage"},
		{"default without type", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml"/></Types>`},
		{"override with bad name", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="word/x.xml" ContentType="a/b"/></Types>`},
		{"override without type", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/x.xml"/></Types>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContentTypes(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, IsInvalidFormat(err))
		})
	}
}

func TestContentTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"thumb.png", "image/png", true},
		{"PHOTO.JPG", "image/jpeg", true},
		{"drawing.emf", "image/x-emf", true},
		{"notes.txt", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := ContentTypeFromExtension(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
