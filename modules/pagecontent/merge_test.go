package pagecontent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"hero":  map[string]any{"heading": "SEO", "subheading": "Grow"},
		"items": []any{"a", "b"},
		"keep":  "me",
		"gone":  "soon",
	}
	src := map[string]any{
		"hero":  map[string]any{"heading": "Local SEO", "extra": map[string]any{"x": 1.0}},
		"items": []any{"c"},
		"gone":  nil,
		"new":   true,
	}

	got := DeepMerge(dst, src)

	want := map[string]any{
		"hero":  map[string]any{"heading": "Local SEO", "subheading": "Grow", "extra": map[string]any{"x": 1.0}},
		"items": []any{"c"},
		"keep":  "me",
		"gone":  nil,
		"new":   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeepMerge mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "SEO", dst["hero"].(map[string]any)["heading"])
	assert.Equal(t, []any{"a", "b"}, dst["items"])
	assert.Equal(t, "soon", dst["gone"])
}

func TestDeepMerge_ScalarReplacesObjectAndBack(t *testing.T) {
	got := DeepMerge(
		map[string]any{"a": map[string]any{"x": 1.0}, "b": "text"},
		map[string]any{"a": "flat", "b": map[string]any{"y": 2.0}},
	)
	assert.Equal(t, map[string]any{"a": "flat", "b": map[string]any{"y": 2.0}}, got)
}

func TestDeepMerge_ResultSharesNothingWithSource(t *testing.T) {
	src := map[string]any{"list": []any{map[string]any{"k": "v"}}}
	got := DeepMerge(map[string]any{}, src)

	got["list"].([]any)[0].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", src["list"].([]any)[0].(map[string]any)["k"])
}

func TestDeepCopy_Nil(t *testing.T) {
	assert.Equal(t, map[string]any{}, DeepCopy(nil))
}
