// Package catalog loads the exercise catalog and equipment access
// categories from YAML and imports them into storage.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
)

// Sink receives a validated catalog. *storage.DB implements it.
type Sink interface {
	ImportCatalog(ctx context.Context, c *models.Catalog) (*storage.ImportStats, error)
}

var _ Sink = (*storage.DB)(nil)

// knownModalities are the modality tags the goal filter understands. The
// empty tag is kept for exercises that belong to no goal.
var knownModalities = map[string]bool{
	"":                        true,
	program.ModalityStrength:  true,
	program.ModalityEndurance: true,
}

// Load reads and parses a catalog file. It does not validate.
func Load(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*models.Catalog, error) {
	var c models.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &c, nil
}

// Validate reports every problem in c at once. Exercise names must be
// unique and non-empty, each exercise needs a muscle group and movement
// type, modality must be a known tag, and equipment referenced by an
// exercise must be declared in the equipment list or some access category.
func Validate(c *models.Catalog) error {
	var errs []error

	declared := make(map[string]bool)
	for _, eq := range c.Equipment {
		declared[eq] = true
	}
	for cat, equipment := range c.AccessCategories {
		if strings.TrimSpace(cat) == "" {
			errs = append(errs, errors.New("access category with empty name"))
		}
		if len(equipment) == 0 {
			errs = append(errs, fmt.Errorf("access category %q lists no equipment", cat))
		}
		for _, eq := range equipment {
			declared[eq] = true
		}
	}

	seen := make(map[string]bool, len(c.Exercises))
	for i, ex := range c.Exercises {
		name := strings.TrimSpace(ex.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("exercise #%d has no name", i+1))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("exercise %q is listed twice", name))
		}
		seen[name] = true

		if ex.PrimaryMuscleGroup == "" {
			errs = append(errs, fmt.Errorf("exercise %q has no primary_muscle_group", name))
		}
		if ex.MovementType == "" {
			errs = append(errs, fmt.Errorf("exercise %q has no movement_type", name))
		}
		if !knownModalities[ex.Modality] {
			errs = append(errs, fmt.Errorf("exercise %q has unknown modality %q", name, ex.Modality))
		}
		if len(ex.Equipment) == 0 {
			errs = append(errs, fmt.Errorf("exercise %q needs at least one equipment item", name))
		}
		for _, eq := range ex.Equipment {
			if !declared[eq] {
				errs = append(errs, fmt.Errorf("exercise %q uses undeclared equipment %q", name, eq))
			}
		}
	}

	return errors.Join(errs...)
}

// Importer validates catalog files and writes them to a Sink.
type Importer struct {
	sink   Sink
	log    *slog.Logger
	dryRun bool
}

// NewImporter creates an Importer. With dryRun set, files are validated
// but nothing is written.
func NewImporter(sink Sink, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{sink: sink, log: log, dryRun: dryRun}
}

// Import loads, validates and stores the catalog at path.
func (imp *Importer) Import(ctx context.Context, path string) (*storage.ImportStats, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	imp.log.Info("catalog validated",
		"path", path,
		"access_categories", len(c.AccessCategories),
		"equipment", len(c.AllEquipment()),
		"exercises", len(c.Exercises),
	)
	if imp.dryRun {
		return &storage.ImportStats{}, nil
	}

	stats, err := imp.sink.ImportCatalog(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("importing catalog: %w", err)
	}
	imp.log.Info("catalog imported",
		"exercises", stats.Exercises,
		"exercise_equipment", stats.ExerciseLinks,
		"equipment_access", stats.EquipmentAccess,
	)
	return stats, nil
}
