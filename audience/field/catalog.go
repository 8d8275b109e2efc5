package field

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Version int          `yaml:"version"`
	Fields  []Definition `yaml:"fields"`
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in catalog, decoded once per process.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(bytes.NewReader(catalogYAML))
		if err != nil {
			panic(fmt.Sprintf("field: embedded catalog: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Load decodes a YAML catalog and builds a registry from it.
func Load(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cf catalogFile
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(cf.Fields...)
}
