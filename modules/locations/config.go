package locations

// LocationsConfig selects the location hierarchy.
type LocationsConfig struct {
	// TreeFile points at a YAML tree that replaces the embedded one.
	TreeFile string `json:"treeFile" yaml:"treeFile" toml:"treeFile" env:"LOCATIONS_TREE_FILE" desc:"YAML location tree; empty uses the embedded New Zealand tree"`
}
