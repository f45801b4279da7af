package models

import "sort"

// CatalogExercise is an exercise together with the equipment that gives
// access to it.
type CatalogExercise struct {
	Exercise  `yaml:",inline"`
	Equipment []string `yaml:"equipment" json:"equipment"`
}

// Catalog is the externally owned reference data: access categories, the
// equipment each category unlocks, and the exercise catalog.
type Catalog struct {
	AccessCategories map[string][]string `yaml:"access_categories" json:"access_categories"`
	Equipment        []string            `yaml:"equipment" json:"equipment"`
	Exercises        []CatalogExercise   `yaml:"exercises" json:"exercises"`
}

// AllEquipment returns the sorted union of the explicit equipment list,
// every category's equipment and every exercise's equipment.
func (c *Catalog) AllEquipment() []string {
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			seen[n] = true
		}
	}
	add(c.Equipment)
	for _, eq := range c.AccessCategories {
		add(eq)
	}
	for _, ex := range c.Exercises {
		add(ex.Equipment)
	}
	all := make([]string, 0, len(seen))
	for n := range seen {
		all = append(all, n)
	}
	sort.Strings(all)
	return all
}
