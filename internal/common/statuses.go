package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"gopkg.in/yaml.v2"
)

type StatusConfig struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type StatusCatalog struct {
	Statuses []StatusConfig `yaml:"statuses"`
}

// requiredStatuses are looked up by name by the engines.
var requiredStatuses = []string{models.StatusNew, models.StatusFunctional, models.StatusDefective}

func LoadStatusCatalog(catalogFile string) ([]StatusConfig, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	var catalog StatusCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFile, err)
	}

	seen := make(map[string]bool, len(catalog.Statuses))
	for i, status := range catalog.Statuses {
		name := strings.TrimSpace(status.Name)
		if name == "" {
			return nil, fmt.Errorf("status at index %d missing name", i)
		}
		if name != status.Name {
			return nil, fmt.Errorf("status %q has surrounding whitespace; names match exactly", status.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("status %q listed twice", name)
		}
		seen[name] = true
	}
	for _, name := range requiredStatuses {
		if !seen[name] {
			return nil, fmt.Errorf("%s is missing required status %q", catalogFile, name)
		}
	}

	return catalog.Statuses, nil
}

// SeedStatuses upserts the catalog in one transaction.
func SeedStatuses(ctx context.Context, s store.Store, statuses []StatusConfig) ([]*models.Status, error) {
	seeded := make([]*models.Status, 0, len(statuses))
	err := s.InTx(ctx, func(tx store.Tx) error {
		for _, cfg := range statuses {
			status, err := tx.UpsertStatus(ctx, cfg.Name, cfg.Color)
			if err != nil {
				return fmt.Errorf("failed to upsert status %q: %w", cfg.Name, err)
			}
			seeded = append(seeded, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}
