package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDoc() Document {
	return Document{
		"url":     "https://example.edu/guides/os",
		"subject": "Operating Systems",
		"degree":  "Computer Engineering",
		"course":  "2",
		"brief_description": []any{
			"Processes and threads.",
			"Scheduling.",
			"Memory management.",
			"File systems.",
		},
		"bibliography": map[string]any{
			"core": []any{"Tanenbaum, Modern Operating Systems"},
		},
	}
}

// TestStore_SaveLookup round-trips a document, matching subjects
// case-insensitively.
func TestStore_SaveLookup(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("Operating Systems", sampleDoc()))

	doc, err := store.Lookup("operating systems")
	require.NoError(t, err)
	assert.Equal(t, "Operating Systems", doc["subject"])

	doc, err = store.Lookup("  OPERATING SYSTEMS  ")
	require.NoError(t, err)
	assert.Equal(t, "2", doc["course"])
}

// TestStore_LookupMissing returns ErrNotFound.
func TestStore_LookupMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Lookup("databases")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStore_SaveOverwrites replaces the stored document.
func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("os", Document{"course": "1"}))
	require.NoError(t, store.Save("os", Document{"course": "2"}))

	doc, err := store.Lookup("os")
	require.NoError(t, err)
	assert.Equal(t, "2", doc["course"])

	subjects, err := store.Subjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"os"}, subjects)
}

// TestStore_EmptySubject is rejected.
func TestStore_EmptySubject(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorContains(t, store.Save("   ", Document{}), "empty subject")
}

// TestStore_Delete removes a subject and tolerates unknown ones.
func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("os", sampleDoc()))
	require.NoError(t, store.Delete("OS"))

	_, err := store.Lookup("os")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete("never-stored"))
}

// TestField resolves dotted paths, both before and after a document has
// been through JSON.
func TestField(t *testing.T) {
	doc := sampleDoc()

	value, ok := Field(doc, "subject")
	require.True(t, ok)
	assert.Equal(t, "Operating Systems", value)

	value, ok = Field(doc, "bibliography.core")
	require.True(t, ok)
	assert.Equal(t, []any{"Tanenbaum, Modern Operating Systems"}, value)

	_, ok = Field(doc, "bibliography.supplementary")
	assert.False(t, ok)
	_, ok = Field(doc, "subject.nested")
	assert.False(t, ok)
	_, ok = Field(doc, "missing")
	assert.False(t, ok)

	// Nested Document values resolve the same way as raw maps.
	doc["evaluation"] = Document{"ordinary": "60% exam"}
	value, ok = Field(doc, "evaluation.ordinary")
	require.True(t, ok)
	assert.Equal(t, "60% exam", value)
}

// TestSummary keeps identity fields and caps the description.
func TestSummary(t *testing.T) {
	summary := Summary(sampleDoc())

	assert.Equal(t, "Operating Systems", summary["subject"])
	assert.Equal(t, "Computer Engineering", summary["degree"])
	assert.Equal(t, "https://example.edu/guides/os", summary["url"])

	desc, ok := summary["brief_description"].([]any)
	require.True(t, ok)
	assert.Len(t, desc, 3)
	assert.NotContains(t, summary, "bibliography")

	// Documents without a description still produce an empty list.
	summary = Summary(Document{"subject": "x"})
	assert.Equal(t, []any{}, summary["brief_description"])
}
