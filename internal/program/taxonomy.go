package program

import "github.com/claude/liftplan/internal/models"

// Taxonomy groups exercise names by muscle group, then movement type.
// Names keep the order of the rows they were built from.
type Taxonomy map[string]map[string][]string

// BuildTaxonomy groups filtered catalog rows for template lookup.
func BuildTaxonomy(rows []models.Exercise) Taxonomy {
	tax := make(Taxonomy)
	for _, ex := range rows {
		byMovement, ok := tax[ex.PrimaryMuscleGroup]
		if !ok {
			byMovement = make(map[string][]string)
			tax[ex.PrimaryMuscleGroup] = byMovement
		}
		byMovement[ex.MovementType] = append(byMovement[ex.MovementType], ex.Name)
	}
	return tax
}

// First returns the first exercise in a bucket, or false when the bucket
// is absent or empty.
func (t Taxonomy) First(muscleGroup, movementType string) (string, bool) {
	names := t[muscleGroup][movementType]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}
