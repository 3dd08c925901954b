package opc

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRelType = "http://example.com/relationships/test"

func TestRelationshipGraphAdd(t *testing.T) {
	source := MustPartName("/word/document.xml")
	g := NewRelationshipGraph(source)

	r1, err := g.Add("media/image1.png", TargetModeInternal, RelTypeImage, "")
	require.NoError(t, err)
	assert.Equal(t, "rId1", r1.ID())
	assert.Equal(t, "/word/media/image1.png", r1.TargetURI())
	assert.True(t, r1.Source().Equal(source))

	target, err := r1.TargetPartName()
	require.NoError(t, err)
	assert.Equal(t, "/word/media/image1.png", target.Name())

	r2, err := g.Add("https://example.com", TargetModeExternal, RelTypeHyperlink, "")
	require.NoError(t, err)
	assert.Equal(t, "rId2", r2.ID())
	assert.Equal(t, "https://example.com", r2.TargetURI())
	_, err = r2.TargetPartName()
	assert.True(t, IsInvalidOperation(err))

	_, err = g.Add("media/image2.png", TargetModeInternal, RelTypeImage, "rId1")
	assert.True(t, IsInvalidOperation(err), "duplicate id must be rejected")

	custom, err := g.Add("styles.xml", TargetModeInternal, testRelType, "rIdStyles")
	require.NoError(t, err)
	assert.Equal(t, "rIdStyles", custom.ID())
	assert.Equal(t, 3, g.Len())
}

func TestRelationshipGraphNextIDFillsGaps(t *testing.T) {
	g := NewRelationshipGraph(RootPartName)
	for i := 0; i < 3; i++ {
		_, err := g.Add("a.xml", TargetModeInternal, testRelType, "")
		require.NoError(t, err)
	}
	assert.True(t, g.Remove("rId2"))
	assert.False(t, g.Remove("rId2"))
	assert.Equal(t, "rId2", g.NextID())

	r, err := g.Add("b.xml", TargetModeInternal, testRelType, "")
	require.NoError(t, err)
	assert.Equal(t, "rId2", r.ID())
}

func TestRelationshipGraphOrder(t *testing.T) {
	g := NewRelationshipGraph(RootPartName)
	for _, id := range []string{"rId10", "rId2", "rId1", "custom"} {
		_, err := g.Add("a.xml", TargetModeInternal, testRelType, id)
		require.NoError(t, err)
	}
	var ids []string
	for _, r := range g.All() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"custom", "rId1", "rId2", "rId10"}, ids)
}

func TestRelationshipGraphRules(t *testing.T) {
	tests := []struct {
		name     string
		source   PartName
		target   string
		mode     TargetMode
		relType  string
		prepare  func(g *RelationshipGraph)
		wantKind error
		wantRule string
	}{
		{
			name:     "relationship part as source",
			source:   MustPartName("/_rels/a.xml.rels"),
			target:   "b.xml",
			relType:  testRelType,
			wantKind: ErrInvalidOperation,
			wantRule: "M1.25",
		},
		{
			name:     "relationship part as target",
			source:   MustPartName("/word/document.xml"),
			target:   "_rels/document.xml.rels",
			relType:  testRelType,
			wantKind: ErrInvalidOperation,
			wantRule: "M1.25",
		},
		{
			name:    "second core properties relationship",
			source:  RootPartName,
			target:  "docProps/other.xml",
			relType: RelTypeCoreProperties,
			prepare: func(g *RelationshipGraph) {
				_, _ = g.Add("docProps/core.xml", TargetModeInternal, RelTypeCoreProperties, "")
			},
			wantKind: ErrInvalidOperation,
			wantRule: "M4.1",
		},
		{
			name:     "empty type",
			source:   RootPartName,
			target:   "a.xml",
			wantKind: ErrIllegalArgument,
		},
		{
			name:     "empty target",
			source:   RootPartName,
			relType:  testRelType,
			wantKind: ErrIllegalArgument,
		},
		{
			name:     "invalid internal target",
			source:   RootPartName,
			target:   "a/",
			relType:  testRelType,
			wantKind: ErrInvalidFormat,
			wantRule: "M1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewRelationshipGraph(tt.source)
			if tt.prepare != nil {
				tt.prepare(g)
			}
			_, err := g.Add(tt.target, tt.mode, tt.relType, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantRule, RuleOf(err))
		})
	}
}

func TestRelationshipGraphByType(t *testing.T) {
	g := NewRelationshipGraph(RootPartName)
	_, _ = g.Add("a.png", TargetModeInternal, RelTypeImage, "")
	_, _ = g.Add("b.png", TargetModeInternal, RelTypeImage, "")
	_, _ = g.Add("c.xml", TargetModeInternal, testRelType, "")

	images := g.ByType(RelTypeImage)
	assert.Equal(t, 2, images.Len())
	assert.Equal(t, 3, g.Len())

	images.Clear()
	assert.Equal(t, 0, images.Len())
	assert.Equal(t, 3, g.Len(), "filtered copies do not share storage")
}

func TestRelationshipGraphMarshal(t *testing.T) {
	g := NewRelationshipGraph(MustPartName("/word/document.xml"))
	_, _ = g.Add("media/image1.png", TargetModeInternal, RelTypeImage, "")
	_, _ = g.Add("https://example.com/?a=1&b=2", TargetModeExternal, RelTypeHyperlink, "")

	data, err := g.Marshal()
	require.NoError(t, err)
	xml := string(data)
	assert.Contains(t, xml, `Id="rId1"`)
	assert.Contains(t, xml, `Target="media/image1.png"`)
	assert.Contains(t, xml, `TargetMode="External"`)
	assert.Equal(t, 1, strings.Count(xml, "TargetMode="), "internal mode is implied")
	assert.Contains(t, xml, "a=1&amp;b=2")

	parsed, err := ParseRelationships(g.Source(), strings.NewReader(xml))
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Len())
	assert.Equal(t, TargetModeExternal, parsed.Get("rId2").TargetMode())
	assert.Equal(t, "https://example.com/?a=1&b=2", parsed.Get("rId2").Target())
}

func relsXML(entries ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		strings.Join(entries, "") + `</Relationships>`
}

func TestParseRelationshipsSkipsMalformedEntries(t *testing.T) {
	input := relsXML(
		`<Relationship Id="rId1" Type="t" Target="a.xml"/>`,
		`<Relationship Type="t" Target="missing-id.xml"/>`,
		`<Relationship Id="rId1" Type="t" Target="duplicate.xml"/>`,
		`<Relationship Id="rId3" Target="missing-type.xml"/>`,
		`<Relationship Id="rId4" Type="t" Target="x.xml" TargetMode="Sideways"/>`,
		`<Relationship Id="rId5" Type="t"/>`,
		`<Relationship Id="rId6" Type="t" Target="media\image.png"/>`,
	)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	parser := relationshipParser{logger: quietLogger(), metrics: m}

	g, err := parser.parse(RootPartName, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "a.xml", g.Get("rId1").Target())
	assert.Equal(t, "media/image.png", g.Get("rId6").Target(), "backslashes are normalized")
	assert.Equal(t, float64(5), testutil.ToFloat64(m.RelationshipsSkipped))

	t.Run("strict", func(t *testing.T) {
		strict := relationshipParser{logger: quietLogger(), strict: true}
		_, err := strict.parse(RootPartName, strings.NewReader(input))
		assert.True(t, IsInvalidFormat(err))
	})
}

func TestParseRelationshipsCoreProperties(t *testing.T) {
	input := relsXML(
		`<Relationship Id="rId1" Type="`+RelTypeCoreProperties+`" Target="docProps/core.xml"/>`,
		`<Relationship Id="rId2" Type="`+RelTypeCorePropertiesECMA376+`" Target="docProps/core2.xml"/>`,
	)
	_, err := ParseRelationships(MustPartName("/word/document.xml"), strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, IsInvalidFormat(err))
	assert.Equal(t, "M4.1", RuleOf(err))
}

func TestParseRelationshipsRejectsGarbage(t *testing.T) {
	_, err := ParseRelationships(RootPartName, strings.NewReader("<Relationships"))
	assert.True(t, IsInvalidFormat(err))
}
