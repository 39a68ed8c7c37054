package domain

// Descriptor is the dependency declaration an installed binary carries in its
// own packaged manifest (plugin.yml inside the jar).
type Descriptor struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Depend     []string `yaml:"depend"`
	SoftDepend []string `yaml:"softdepend"`
	LoadBefore []string `yaml:"loadbefore"`
}

// DependencyNode is one node of a derived dependency tree. Children reflect a
// single level of the plugin's own declared dependencies; a name revisited on
// the same branch truncates to a leaf, so a true cycle is representable as a
// finite tree.
type DependencyNode struct {
	Name      string            `json:"name"`
	Installed bool              `json:"installed"`
	Required  bool              `json:"required"`
	Children  []*DependencyNode `json:"children,omitempty"`
}
