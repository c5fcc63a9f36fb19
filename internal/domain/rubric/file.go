package rubric

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileCatalog is the on-disk YAML shape for an editable catalog.
type fileCatalog struct {
	Categories []struct {
		Key         string   `yaml:"key"`
		DisplayName string   `yaml:"display_name"`
		Questions   []string `yaml:"questions"`
	} `yaml:"categories"`
}

// FromFile loads a catalog from a YAML file. The file must describe exactly
// 5 categories of 6 questions; anything else is rejected up front so the
// scoring engine never sees a malformed catalog.
func FromFile(path string) (Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric file: %w", err)
	}

	var fc fileCatalog
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse rubric file: %w", err)
	}

	categories := make([]Category, 0, len(fc.Categories))
	for _, c := range fc.Categories {
		categories = append(categories, Category{
			Key:         c.Key,
			DisplayName: c.DisplayName,
			Questions:   c.Questions,
		})
	}
	return newCatalog(categories)
}
