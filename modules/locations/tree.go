package locations

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/nz.yaml
var defaultTree []byte

// Node is one entry of the location hierarchy as authored.
type Node struct {
	Name     string `yaml:"name" json:"name"`
	Slug     string `yaml:"slug,omitempty" json:"slug,omitempty"`
	Children []Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// Meta is the flattened view of a location.
type Meta struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	ParentSlug string   `json:"parentSlug,omitempty"`
	Ancestors  []string `json:"ancestors"`
	Children   []string `json:"children"`
	Path       []string `json:"path"`
	Depth      int      `json:"depth"`
}

// DefaultTree returns the embedded New Zealand hierarchy.
func DefaultTree() ([]Node, error) {
	return ParseTree(bytes.NewReader(defaultTree))
}

// ParseTree decodes a YAML list of nodes.
func ParseTree(r io.Reader) ([]Node, error) {
	var nodes []Node
	if err := yaml.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTreeDecode, err)
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyTree
	}
	return nodes, nil
}

// LoadTreeFile reads a YAML tree from path.
func LoadTreeFile(path string) ([]Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location tree %s: %w", path, err)
	}
	defer f.Close()
	return ParseTree(f)
}

// Index is the flattened, immutable lookup table built from a tree.
// It is safe for concurrent use.
type Index struct {
	bySlug map[string]*Meta
	order  []string
	roots  []string
}

// Build assigns slugs and flattens nodes in pre-order. A slug that was
// already taken is disambiguated with the parent's slug ("-nz" at the root)
// and then a numeric suffix.
func Build(nodes []Node) (*Index, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyTree
	}
	idx := &Index{bySlug: make(map[string]*Meta)}
	counts := make(map[string]int)
	if err := idx.add(nodes, nil, nil, counts); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) add(nodes []Node, parent *Meta, path []string, counts map[string]int) error {
	for _, node := range nodes {
		name := strings.TrimSpace(node.Name)
		if name == "" {
			return ErrEmptyName
		}

		base := node.Slug
		if base == "" {
			base = Slugify(name)
		}
		if base == "" {
			return fmt.Errorf("%w: %q", ErrEmptySlug, name)
		}

		slug := base
		if counts[base] > 0 {
			suffixBase := base + "-nz"
			if parent != nil {
				suffixBase = base + "-" + parent.Slug
			}
			slug = suffixBase
			for n := 2; counts[slug] > 0; n++ {
				slug = suffixBase + "-" + strconv.Itoa(n)
			}
			counts[slug]++
		}
		counts[base]++

		meta := &Meta{
			Slug:      slug,
			Name:      name,
			Ancestors: []string{},
			Children:  []string{},
			Path:      append(append([]string{}, path...), name),
		}
		if parent != nil {
			meta.ParentSlug = parent.Slug
			meta.Ancestors = append(append([]string{}, parent.Ancestors...), parent.Slug)
			parent.Children = append(parent.Children, slug)
		} else {
			idx.roots = append(idx.roots, slug)
		}
		meta.Depth = len(meta.Ancestors)

		idx.bySlug[slug] = meta
		idx.order = append(idx.order, slug)

		if err := idx.add(node.Children, meta, meta.Path, counts); err != nil {
			return err
		}
	}
	return nil
}
