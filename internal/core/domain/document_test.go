package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Metadata(t *testing.T) {
	c := Chunk{Text: "text", Source: "a.pdf", Page: 3}

	assert.Equal(t, map[string]any{"source": "a.pdf", "page": 3}, c.Metadata())
}

func TestFilter_Matches(t *testing.T) {
	c := Chunk{Source: "a.pdf", Page: 7}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero matches all", Filter{}, true},
		{"source match", SourceFilter("a.pdf"), true},
		{"source mismatch", SourceFilter("b.pdf"), false},
		{"source is exact", SourceFilter("A.PDF"), false},
		{"page match", Filter{Field: MetaPage, Value: "7"}, true},
		{"page mismatch", Filter{Field: MetaPage, Value: "8"}, false},
		{"unknown field", Filter{Field: "title", Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(c))
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, SourceFilter("a.pdf").Validate())
	assert.NoError(t, Filter{Field: MetaPage, Value: "2"}.Validate())
	assert.ErrorIs(t, Filter{Field: MetaPage, Value: "two"}.Validate(), ErrUnsupportedFilter)
	assert.ErrorIs(t, Filter{Field: "title", Value: "x"}.Validate(), ErrUnsupportedFilter)
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, SourceFilter("a.pdf").IsZero())
}

func TestSkippedSource_Covers(t *testing.T) {
	mod := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := SourceDocument{Name: "scan.pdf", Path: "pdfs/scan.pdf", Size: 2048, ModTime: mod}
	skipped := doc.Skip("no text")

	assert.Equal(t, "no text", skipped.Reason)
	assert.True(t, skipped.Covers(doc))
	assert.True(t, skipped.Covers(SourceDocument{Name: "scan.pdf", Size: 2048, ModTime: mod.In(time.Local)}))

	assert.False(t, skipped.Covers(SourceDocument{Name: "scan.pdf", Size: 4096, ModTime: mod}))
	assert.False(t, skipped.Covers(SourceDocument{Name: "scan.pdf", Size: 2048, ModTime: mod.Add(time.Second)}))
	assert.False(t, skipped.Covers(SourceDocument{Name: "other.pdf", Size: 2048, ModTime: mod}))
}
