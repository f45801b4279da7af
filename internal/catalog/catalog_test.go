package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage/memory"
)

const sampleYAML = `
access_categories:
  Home Gym: [Dumbbells, Pull-up Bar]
equipment: [Kettlebell]
exercises:
  - name: Goblet Squat
    primary_muscle_group: lower body
    movement_type: compound
    modality: strength training
    equipment: [Dumbbells, Kettlebell]
  - name: Pull-up
    primary_muscle_group: upper back
    movement_type: compound
    modality: strength training
    equipment: [Pull-up Bar]
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestParse verifies the YAML keys map onto the catalog model, including
// the inlined exercise fields.
func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Dumbbells", "Pull-up Bar"}, c.AccessCategories["Home Gym"])
	require.Len(t, c.Exercises, 2)
	assert.Equal(t, "Goblet Squat", c.Exercises[0].Name)
	assert.Equal(t, "lower body", c.Exercises[0].PrimaryMuscleGroup)
	assert.Equal(t, "compound", c.Exercises[0].MovementType)
	assert.Equal(t, "strength training", c.Exercises[0].Modality)
	assert.Equal(t, []string{"Dumbbells", "Kettlebell"}, c.Exercises[0].Equipment)
	assert.Equal(t, []string{"Dumbbells", "Kettlebell", "Pull-up Bar"}, c.AllEquipment())
}

// TestValidateAccepts verifies the sample and the shipped example catalog
// pass validation.
func TestValidateAccepts(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.NoError(t, Validate(c))

	example, err := Load(filepath.Join("..", "..", "catalog.example.yaml"))
	require.NoError(t, err)
	assert.NoError(t, Validate(example))
}

// TestValidateReportsEveryProblem verifies problems are collected rather
// than stopping at the first one.
func TestValidateReportsEveryProblem(t *testing.T) {
	c := &models.Catalog{
		AccessCategories: map[string][]string{"Empty": nil},
		Exercises: []models.CatalogExercise{
			{Exercise: models.Exercise{Name: "Squat", PrimaryMuscleGroup: "lower body", MovementType: "compound", Modality: "strength training"}, Equipment: []string{"Barbell"}},
			{Exercise: models.Exercise{Name: "Squat", MovementType: "compound", Modality: "yoga"}, Equipment: []string{"Barbell"}},
			{Exercise: models.Exercise{Name: " "}},
		},
	}
	err := Validate(c)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, `access category "Empty" lists no equipment`)
	assert.Contains(t, msg, `exercise "Squat" is listed twice`)
	assert.Contains(t, msg, `exercise "Squat" has no primary_muscle_group`)
	assert.Contains(t, msg, `unknown modality "yoga"`)
	assert.Contains(t, msg, `undeclared equipment "Barbell"`)
	assert.Contains(t, msg, "exercise #3 has no name")
}

// TestImporterWritesToSink verifies a valid file ends up in storage and
// grants resolve against the imported equipment.
func TestImporterWritesToSink(t *testing.T) {
	store := memory.New()
	imp := NewImporter(store, discardLogger(), false)

	stats, err := imp.Import(context.Background(), writeCatalog(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Exercises)
	assert.Equal(t, 3, stats.ExerciseLinks)
	assert.Equal(t, 1, stats.AccessCategories)

	uid := store.AddUser("a@example.com")
	_, err = store.GrantAccessCategory(context.Background(), uid, "Home Gym")
	require.NoError(t, err)
	names, err := store.GetAccessibleExerciseNames(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"Goblet Squat", "Pull-up"}, names)
}

// TestImporterDryRun verifies nothing is written in dry-run mode.
func TestImporterDryRun(t *testing.T) {
	store := memory.New()
	imp := NewImporter(store, discardLogger(), true)

	_, err := imp.Import(context.Background(), writeCatalog(t, sampleYAML))
	require.NoError(t, err)

	uid := store.AddUser("a@example.com")
	_, err = store.GrantAccessCategory(context.Background(), uid, "Home Gym")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestImporterRejectsInvalid verifies an invalid catalog is never written.
func TestImporterRejectsInvalid(t *testing.T) {
	store := memory.New()
	imp := NewImporter(store, discardLogger(), false)

	_, err := imp.Import(context.Background(), writeCatalog(t, `
exercises:
  - name: Mystery
    primary_muscle_group: chest
    movement_type: compound
    equipment: [Rope]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
}

// TestLoadMissingFile verifies a missing file is reported.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/catalog.yaml")
	assert.Error(t, err)
}
