package pagecontent

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectAll struct{ calls int }

func (r *rejectAll) Validate(any) error {
	r.calls++
	return errors.New("rejected")
}

type brokenFS struct{}

func (brokenFS) Open(string) (fs.File, error) { return nil, fs.ErrPermission }

func TestFSStore_Read(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(fstest.MapFS{
		"ok.json":    {Data: []byte(`{"hero": {"heading": "SEO"}}`)},
		"bad.json":   {Data: []byte(`{"hero":`)},
		"array.json": {Data: []byte(`[1, 2]`)},
		"null.json":  {Data: []byte(`null`)},
	}, nil)

	fragment, found, err := store.Read(ctx, "ok.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]any{"hero": map[string]any{"heading": "SEO"}}, fragment)

	_, found, err = store.Read(ctx, "missing.json")
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Read(ctx, "../escape.json")
	assert.NoError(t, err)
	assert.False(t, found)

	for _, p := range []string{"bad.json", "array.json", "null.json"} {
		_, found, err = store.Read(ctx, p)
		assert.ErrorIs(t, err, ErrFragmentDecode, p)
		assert.False(t, found, p)
	}
}

func TestFSStore_ReadError(t *testing.T) {
	_, found, err := NewFSStore(brokenFS{}, nil).Read(context.Background(), "x.json")
	assert.ErrorIs(t, err, ErrFragmentRead)
	assert.False(t, found)
}

func TestFSStore_ValidatorSkipsBaseFiles(t *testing.T) {
	ctx := context.Background()
	v := &rejectAll{}
	store := NewFSStore(testFS(), v)

	_, found, err := store.Read(ctx, "_base/seo.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0, v.calls)

	_, found, err = store.Read(ctx, "auckland/seo/search-engine-optimisation.json")
	assert.ErrorIs(t, err, ErrFragmentInvalid)
	assert.False(t, found)
	assert.Equal(t, 1, v.calls)
}
