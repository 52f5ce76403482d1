package topology

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/martinsuchenak/toposeed/internal/registry"
)

// LoadDefinition loads a topology definition from a YAML file
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read file: %w", err)
	}

	def, err := ParseDefinition(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition parses a topology definition. Unknown keys are rejected.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := checkDefinition(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, ordered by file name
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	defs := make([]Definition, 0, len(files))
	for _, f := range files {
		def, err := LoadDefinition(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// RegisterDir registers every definition found in dir and returns their names
func RegisterDir(r *registry.Registry, dir string) ([]string, error) {
	defs, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		if err := r.Register(Registered(def)); err != nil {
			return nil, err
		}
		names = append(names, def.Name)
	}
	return names, nil
}
