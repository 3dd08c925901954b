package xml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalWritesHeader(t *testing.T) {
	data, err := Marshal(NewRelationships())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header))
	assert.Contains(t, string(data), `xmlns="`+NamespaceRelationships+`"`)
}

func TestTypesRoundTrip(t *testing.T) {
	types := NewTypes()
	types.Defaults = append(types.Defaults,
		Default{Extension: "xml", ContentType: "application/xml"},
		Default{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
	)
	types.Overrides = append(types.Overrides, Override{PartName: "/word/document.xml", ContentType: "text/xml"})

	data, err := Marshal(types)
	require.NoError(t, err)

	var decoded Types
	require.NoError(t, Decode(strings.NewReader(string(data)), &decoded))
	assert.Equal(t, NamespaceContentTypes, decoded.Namespace)
	assert.Equal(t, types.Defaults, decoded.Defaults)
	assert.Equal(t, types.Overrides, decoded.Overrides)
}

func TestDecodeRelationships(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Relationship
	}{
		{
			name: "Internal and external",
			input: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://t/image" Target="media/image1.png"/>
<Relationship Id="rId2" Type="http://t/link" Target="https://example.com" TargetMode="External"/>
</Relationships>`,
			expected: []Relationship{
				{ID: "rId1", Type: "http://t/image", Target: "media/image1.png"},
				{ID: "rId2", Type: "http://t/link", Target: "https://example.com", TargetMode: "External"},
			},
		},
		{
			name:     "Empty manifest",
			input:    `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rels Relationships
			require.NoError(t, Decode(strings.NewReader(tt.input), &rels))
			assert.Equal(t, tt.expected, rels.Relationship)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	var rels Relationships
	err := Decode(strings.NewReader(`<Relationships><Relationship Id="rId1"`), &rels)
	assert.Error(t, err)
}

func TestCorePropertiesRoundTrip(t *testing.T) {
	props := CoreProperties{
		Creator:  "go-opc",
		Created:  "2024-03-01T10:00:00Z",
		Modified: "2024-03-02T11:30:00Z",
		Title:    "Quarterly report",
		Keywords: "finance, q1",
		Revision: "3",
	}

	data, err := Marshal(props)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "<cp:coreProperties")
	assert.Contains(t, out, `xmlns:dc="`+NamespaceDC+`"`)
	assert.Contains(t, out, `<dcterms:created xsi:type="dcterms:W3CDTF">2024-03-01T10:00:00Z</dcterms:created>`)
	assert.NotContains(t, out, "cp:category")

	var decoded CoreProperties
	require.NoError(t, Decode(strings.NewReader(out), &decoded))
	assert.Equal(t, props, decoded)
}

func TestCorePropertiesAnyPrefix(t *testing.T) {
	input := `<core:coreProperties xmlns:core="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:purl="http://purl.org/dc/elements/1.1/">
<purl:title>Renamed prefixes</purl:title>
<core:revision>7</core:revision>
</core:coreProperties>`

	var decoded CoreProperties
	require.NoError(t, Decode(strings.NewReader(input), &decoded))
	assert.Equal(t, "Renamed prefixes", decoded.Title)
	assert.Equal(t, "7", decoded.Revision)
}
