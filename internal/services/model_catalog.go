package services

import (
	_ "embed"
	"errors"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalog []byte

type ModelInfo struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Status string `yaml:"status" json:"status"`
}

type ModelCatalog struct {
	Models []ModelInfo `yaml:"models" json:"models"`
}

func LoadModelCatalog(data []byte) (*ModelCatalog, error) {
	var catalog ModelCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if len(catalog.Models) == 0 {
		return nil, errors.New("model catalog is empty")
	}
	return &catalog, nil
}

// DefaultModelCatalog returns the catalog compiled into the binary.
func DefaultModelCatalog() *ModelCatalog {
	catalog, err := LoadModelCatalog(defaultCatalog)
	if err != nil {
		panic("invalid embedded model catalog: " + err.Error())
	}
	return catalog
}

func (c *ModelCatalog) List() []ModelInfo {
	return c.Models
}

// Default is the first model in the catalog.
func (c *ModelCatalog) Default() ModelInfo {
	return c.Models[0]
}
