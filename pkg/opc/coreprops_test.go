package opc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseW3CDTF(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01T10:00:00.5Z", time.Date(2024, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2024-03-01T12:00+02:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseW3CDTF(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := parseW3CDTF("yesterday")
	assert.True(t, IsInvalidFormat(err))
}

func TestCorePropertiesRoundTrip(t *testing.T) {
	props := &CoreProperties{
		Title:          "Spec & Design",
		Creator:        "A. Writer",
		Keywords:       "opc, zip",
		LastModifiedBy: "B. Editor",
		Revision:       "3",
		Created:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Modified:       time.Date(2024, 6, 7, 8, 9, 10, 0, time.FixedZone("CET", 3600)),
	}
	data, err := props.Marshal()
	require.NoError(t, err)
	xml := string(data)
	assert.Contains(t, xml, `<dcterms:created xsi:type="dcterms:W3CDTF">2024-01-02T03:04:05Z</dcterms:created>`)
	assert.Contains(t, xml, "2024-06-07T07:09:10Z", "dates are written in UTC")
	assert.NotContains(t, xml, "lastPrinted", "zero dates are left out")

	parsed, err := ParseCoreProperties(strings.NewReader(xml))
	require.NoError(t, err)
	assert.Equal(t, props.Title, parsed.Title)
	assert.Equal(t, props.Keywords, parsed.Keywords)
	assert.Equal(t, props.Revision, parsed.Revision)
	assert.True(t, props.Created.Equal(parsed.Created))
	assert.True(t, props.Modified.Equal(parsed.Modified))
	assert.True(t, parsed.LastPrinted.IsZero())
}

func TestParseCorePropertiesErrors(t *testing.T) {
	_, err := ParseCoreProperties(strings.NewReader("<broken"))
	assert.True(t, IsInvalidFormat(err))

	bad := strings.Replace(testCoreProps, "2024-03-01T10:00:00Z", "March 1st", 1)
	_, err = ParseCoreProperties(strings.NewReader(bad))
	assert.True(t, IsInvalidFormat(err))
}

func TestNewPackageCoreProperties(t *testing.T) {
	pkg, err := CreateStream(&strings.Builder{}, WithLogger(quietLogger()), WithConfig(&Config{Creator: "tester", CompressionLevel: -1}))
	require.NoError(t, err)
	defer pkg.Revert()

	assert.True(t, pkg.ContainsPart(CorePropertiesPartName))
	rels, err := pkg.RelationshipsByType(RelTypeCoreProperties)
	require.NoError(t, err)
	assert.Equal(t, 1, rels.Len())

	props, err := pkg.CoreProperties()
	require.NoError(t, err)
	assert.Equal(t, "tester", props.Creator)
	assert.WithinDuration(t, time.Now(), props.Created, time.Minute)
}
