package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQuoteAndSplitPath(t *testing.T) {
	assert.Equal(t, "MATH", Quote("MATH"))
	assert.Equal(t, "`NODE.JS`", Quote("NODE.JS"))
	assert.Equal(t, "`a\\`b`", Quote("a`b"))

	cases := []struct {
		path string
		want []string
	}{
		{"tests", []string{"tests"}},
		{"questions.subject.MATH", []string{"questions", "subject", "MATH"}},
		{"questions.subject." + Quote("NODE.JS"), []string{"questions", "subject", "NODE.JS"}},
		{"x." + Quote(`a\b`) + ".y", []string{"x", `a\b`, "y"}},
		{"x." + Quote("a`b"), []string{"x", "a`b"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitPath(tc.path), tc.path)
	}
}

func TestMemory_UpdateQuotedKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.Add(ctx, "sizes", map[string]any{"questions": map[string]any{"subject": map[string]any{"MATH": int64(1)}}})
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, "sizes", id, map[string]any{
		"questions.subject." + Quote("NODE.JS"): Increment(1),
		"questions.subject." + Quote("ASP.NET"): Increment(2),
	}))
	snap, err := m.Get(ctx, "sizes", id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"MATH": int64(1), "NODE.JS": int64(1), "ASP.NET": int64(2)},
		snap.Data["questions"].(map[string]any)["subject"])

	v, ok := Lookup(snap.Data, "questions.subject."+Quote("NODE.JS"))
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestMongoKeys(t *testing.T) {
	assert.Equal(t, "questions.subject.NODE"+mongoDot+"JS", mongoField("questions.subject."+Quote("NODE.JS")))
	assert.Equal(t, mongoID, mongoField(DocumentID))

	doc := withID("x", map[string]any{"subject": map[string]any{"NODE.JS": int64(1)}})
	assert.Equal(t, map[string]any{"NODE" + mongoDot + "JS": int64(1)}, doc["subject"])

	snap := fromBSON(bson.M{"_id": "x", "subject": bson.M{"NODE" + mongoDot + "JS": int32(1)}})
	assert.Equal(t, map[string]any{"NODE.JS": int64(1)}, snap.Data["subject"])
}
