package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	cases := map[string]string{
		"https://firebasestorage.googleapis.com/v0/b/app.appspot.com/o/questions%2Fquestion-Q1.png?alt=media&token=abc": "questions/question-Q1.png",
		"questions%2Fquestion-Q2.png": "questions/question-Q2.png",
		"avatars/u1.jpeg":             "avatars/u1.jpeg",
	}
	for in, want := range cases {
		assert.Equal(t, want, ObjectPath(in), in)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("image/png"))
	assert.Equal(t, "jpeg", Extension("image/jpeg; charset=binary"))
	assert.Equal(t, "", Extension("bogus"))
}

func TestMemory_UploadDownloadDeleteByURL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.Upload(ctx, "questions/question-Q1.png", strings.NewReader("img"), 3, "image/png")
	require.NoError(t, err)
	assert.Contains(t, u, "/o/questions%2Fquestion-Q1.png?alt=media")

	rc, err := m.Download(ctx, u)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "img", string(b))

	_, err = m.Upload(ctx, "avatars/u1.png", strings.NewReader("a"), 1, "image/png")
	require.NoError(t, err)
	keys, err := m.List(ctx, "questions/")
	require.NoError(t, err)
	assert.Equal(t, []string{"questions/question-Q1.png"}, keys)

	require.NoError(t, m.Delete(ctx, u))
	_, err = m.Download(ctx, "questions/question-Q1.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
