package pagecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FragmentStore reads JSON content fragments by slash-separated path.
// A fragment that does not exist is reported with found == false and a
// nil error.
type FragmentStore interface {
	Read(ctx context.Context, path string) (fragment map[string]any, found bool, err error)
}

// FragmentValidator checks a decoded fragment before it is merged.
type FragmentValidator interface {
	Validate(fragment any) error
}

// FSStore reads fragments from a file system, usually os.DirFS over the
// data root. The validator applies to override fragments, not to the base
// files under BaseDir.
type FSStore struct {
	fsys      fs.FS
	validator FragmentValidator
}

// NewFSStore creates a store over fsys. validator may be nil.
func NewFSStore(fsys fs.FS, validator FragmentValidator) *FSStore {
	return &FSStore{fsys: fsys, validator: validator}
}

// NewDirStore creates a store over the directory root.
func NewDirStore(root string, validator FragmentValidator) *FSStore {
	return NewFSStore(os.DirFS(root), validator)
}

func (s *FSStore) Read(_ context.Context, path string) (map[string]any, bool, error) {
	if !fs.ValidPath(path) {
		return nil, false, nil
	}

	data, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %w", ErrFragmentRead, path, err)
	}

	var fragment map[string]any
	if err := json.Unmarshal(data, &fragment); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrFragmentDecode, path, err)
	}
	if fragment == nil {
		return nil, false, fmt.Errorf("%w: %s: null document", ErrFragmentDecode, path)
	}

	if s.validator != nil && !strings.HasPrefix(path, BaseDir+"/") {
		if err := s.validator.Validate(fragment); err != nil {
			return nil, false, fmt.Errorf("%w: %s: %w", ErrFragmentInvalid, path, err)
		}
	}
	return fragment, true, nil
}
