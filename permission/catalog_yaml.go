package permission

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogDocument is the versioned on-disk form of a catalog:
//
//	version: "2024-06"
//	aliases:
//	  Leads CRM: leads
//	modules:
//	  - key: tickets
//	    label: Tickets
//	    actions: [show, own, junior, all, add, edit, delete]
//	  - key: Leads CRM.Create LEAD
//	    actions: [show, add, edit, delete]
//	    critical: false
type catalogDocument struct {
	Version string            `yaml:"version"`
	Aliases map[string]string `yaml:"aliases"`
	Modules []moduleDocument  `yaml:"modules"`
}

type moduleDocument struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Actions  []string `yaml:"actions"`
	Critical bool     `yaml:"critical"`
	ReadOnly bool     `yaml:"read_only"`
}

// LoadCatalogYAML parses a catalog document and returns it frozen.
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: catalog version is required", ErrInvalidModuleSpec)
	}
	if len(doc.Modules) == 0 {
		return nil, fmt.Errorf("%w: catalog has no modules", ErrInvalidModuleSpec)
	}

	c := NewCatalog()
	c.version = doc.Version
	for parent, alias := range doc.Aliases {
		if err := c.RegisterAlias(parent, alias); err != nil {
			return nil, err
		}
	}
	for i, m := range doc.Modules {
		actions := make([]Action, 0, len(m.Actions))
		for _, a := range m.Actions {
			actions = append(actions, Action(a))
		}
		spec := ModuleSpec{
			Key:      ParseModuleKey(m.Key),
			Label:    m.Label,
			Actions:  actions,
			Critical: m.Critical,
			ReadOnly: m.ReadOnly,
		}
		if err := c.Register(spec); err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
	}
	c.Freeze()
	return c, nil
}

// LoadCatalogFile reads a catalog document from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalogYAML(f)
}
