// Package orgs maps a resolved address to the service organization
// responsible for that street and building.
package orgs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StreetSegment lists the building numbers of one street an organization
// serves. An empty Buildings list means the whole street.
type StreetSegment struct {
	Street    string   `yaml:"street"`
	Buildings []string `yaml:"buildings"`
}

// Organization is one entry of the reference registry.
type Organization struct {
	Name    string          `yaml:"name"`
	Email   string          `yaml:"email"`
	Phone   string          `yaml:"phone"`
	Streets []StreetSegment `yaml:"streets"`
}

// Registry holds the static organization dataset, loaded once at startup.
type Registry struct {
	orgs []Organization
}

type registryFile struct {
	Organizations []Organization `yaml:"organizations"`
}

// Load reads the registry YAML. A missing path yields an empty registry so
// the matcher degrades to "no organization".
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return NewRegistry(file.Organizations), nil
}

// NewRegistry wraps an in-memory organization list.
func NewRegistry(orgs []Organization) *Registry {
	return &Registry{orgs: orgs}
}

// Len returns the number of registered organizations.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.orgs)
}
