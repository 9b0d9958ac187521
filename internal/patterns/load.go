package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogueFile is the on-disk YAML shape for a jurisdiction rule set.
//
//	rules:
//	  - id: specifier-note-block
//	    kind: remove
//	    category: specifier_note
//	    match: block
//	    pattern: '\[\s*(?i:note to specifier)[^\]]*\]'
//	    priority: 10
type catalogueFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a rule catalogue from a YAML file and validates it.
// The file replaces the built-in catalogue entirely; partial overlays
// would make rule ordering depend on two sources at once.
func LoadFile(path string) (Catalogue, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var f catalogueFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Catalogue{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return Catalogue{}, fmt.Errorf("%s: no rules defined", path)
	}

	cat, err := NewCatalogue(f.Rules)
	if err != nil {
		return Catalogue{}, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Load returns the catalogue at path, or the built-in default when path
// is empty.
func Load(path string) (Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
