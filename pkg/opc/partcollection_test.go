package opc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionPart(name string) *Part {
	return newBufferPart(nil, MustPartName(name), ContentTypeXML, nil)
}

func TestPartCollectionPut(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		add      string
		wantRule string
	}{
		{name: "distinct", existing: []string{"/a.xml"}, add: "/b.xml"},
		{name: "same folder", existing: []string{"/word/a.xml"}, add: "/word/b.xml"},
		{name: "equivalent name", existing: []string{"/Word/Doc.xml"}, add: "/word/doc.XML", wantRule: "M1.12"},
		{name: "derived from existing", existing: []string{"/word"}, add: "/word/doc.xml", wantRule: "M1.11"},
		{name: "existing derived from new", existing: []string{"/word/doc.xml"}, add: "/WORD", wantRule: "M1.11"},
		{name: "shared prefix is not derivation", existing: []string{"/word"}, add: "/words.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPartCollection()
			for _, n := range tt.existing {
				require.NoError(t, c.Put(collectionPart(n)))
			}
			err := c.Put(collectionPart(tt.add))
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsInvalidOperation(err))
			assert.Equal(t, tt.wantRule, RuleOf(err))
		})
	}
}

func TestPartCollectionRemoveFreesName(t *testing.T) {
	c := NewPartCollection()
	require.NoError(t, c.Put(collectionPart("/word")))
	require.Error(t, c.Put(collectionPart("/word/doc.xml")))

	removed := c.Remove(MustPartName("/WORD"))
	require.NotNil(t, removed)
	assert.Nil(t, c.Remove(MustPartName("/word")))
	assert.NoError(t, c.Put(collectionPart("/word/doc.xml")))
	assert.Equal(t, 1, c.Len())
}

func TestPartCollectionRemoveReleasesFolders(t *testing.T) {
	c := NewPartCollection()
	require.NoError(t, c.Put(collectionPart("/xl/worksheets/sheet1.xml")))
	require.NoError(t, c.Put(collectionPart("/xl/worksheets/sheet2.xml")))

	err := c.Put(collectionPart("/xl/worksheets"))
	require.Error(t, err)
	assert.Equal(t, "M1.11", RuleOf(err))

	// one sheet left still holds the folder
	c.Remove(MustPartName("/xl/worksheets/sheet1.xml"))
	assert.Error(t, c.Put(collectionPart("/XL")))

	c.Remove(MustPartName("/xl/worksheets/sheet2.xml"))
	require.NoError(t, c.Put(collectionPart("/xl/worksheets")))
	err = c.Put(collectionPart("/xl/worksheets/sheet3.xml"))
	require.Error(t, err)
	assert.Equal(t, "M1.11", RuleOf(err))
}

func TestPartCollectionManyParts(t *testing.T) {
	c := NewPartCollection()
	for i := 1; i <= 20000; i++ {
		require.NoError(t, c.Put(collectionPart(fmt.Sprintf("/xl/worksheets/sheet%d.xml", i))))
	}
	assert.Equal(t, 20000, c.Len())
	assert.Error(t, c.Put(collectionPart("/xl")))
	assert.Error(t, c.Put(collectionPart("/xl/worksheets/sheet20000.xml/extra.xml")))
}

func TestPartCollectionSorted(t *testing.T) {
	c := NewPartCollection()
	for _, n := range []string{"/slide10.xml", "/slide2.xml", "/a.xml", "/Slide1.xml"} {
		require.NoError(t, c.Put(collectionPart(n)))
	}
	var names []string
	for _, p := range c.Sorted() {
		names = append(names, p.Name().Name())
	}
	assert.Equal(t, []string{"/a.xml", "/Slide1.xml", "/slide2.xml", "/slide10.xml"}, names)
	assert.True(t, c.Contains(MustPartName("/SLIDE2.XML")))
	assert.NotNil(t, c.Get(MustPartName("/a.xml")))
}
