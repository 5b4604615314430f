package nlp

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/labels.yaml
var defaultCatalogYAML []byte

// Catalog maps entity labels to descriptions
type Catalog struct {
	labels map[string]string
}

// DefaultCatalog returns the built-in label catalog
func DefaultCatalog() *Catalog {
	c, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded label catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path, or returns the built-in one when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// NewCatalog builds a catalog from a label -> description map
func NewCatalog(labels map[string]string) *Catalog {
	c := &Catalog{labels: make(map[string]string, len(labels))}
	for k, v := range labels {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		c.labels[k] = strings.TrimSpace(v)
	}
	return c
}

func parseCatalog(data []byte) (*Catalog, error) {
	var labels map[string]string
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return NewCatalog(labels), nil
}

// Explain returns the description of label. Lookup falls back to upper case.
func (c *Catalog) Explain(label string) (string, bool) {
	if d, ok := c.labels[label]; ok && d != "" {
		return d, true
	}
	if d, ok := c.labels[strings.ToUpper(label)]; ok && d != "" {
		return d, true
	}
	return "", false
}

// Has reports whether label is in the catalog
func (c *Catalog) Has(label string) bool {
	_, ok := c.labels[label]
	return ok
}

// Labels returns a copy of the catalog
func (c *Catalog) Labels() map[string]string {
	out := make(map[string]string, len(c.labels))
	for k, v := range c.labels {
		out[k] = v
	}
	return out
}

// Names returns the sorted label names
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.labels))
	for k := range c.labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
