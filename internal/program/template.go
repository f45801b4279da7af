package program

import (
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
)

// Slot references a taxonomy bucket inside a day pattern.
type Slot struct {
	MuscleGroup  string `json:"muscle_group"`
	MovementType string `json:"movement_type"`
}

func (s Slot) String() string {
	return s.MuscleGroup + "/" + s.MovementType
}

// DayPattern is a lettered set of slots that alternates across training days.
type DayPattern struct {
	Letter      string
	Description string
	Slots       []Slot
}

// Template is a named program layout of alternating day patterns.
type Template struct {
	Title       string
	Description string
	Patterns    []DayPattern
}

// TemplateKey selects a template.
type TemplateKey struct {
	Goal  models.Goal
	Level models.FitnessLevel
}

// Registry maps (goal, level) pairs to templates. Adding a program is a
// new entry, not a new branch.
type Registry map[TemplateKey]Template

// Muscle groups and movement types used by the built-in templates.
const (
	MuscleLowerBody = "lower body"
	MuscleChest     = "chest"
	MuscleUpperBack = "upper back"
	MuscleShoulder  = "shoulder"
	MuscleLowerBack = "lower back"

	MovementCompound = "compound"
)

var beginner5x5 = Template{
	Title: "Beginner 5 x 5",
	Description: "The Strongman 5x5 workout is an excellent training routine for beginners looking to build " +
		"strength, power, and functional fitness. It focuses on compound movements that target multiple " +
		"muscle groups, helping you develop overall body strength, improve stability, and increase " +
		"athletic performance.",
	Patterns: []DayPattern{
		{
			Letter:      "A",
			Description: "full body workout A",
			Slots: []Slot{
				{MuscleLowerBody, MovementCompound},
				{MuscleChest, MovementCompound},
				{MuscleUpperBack, MovementCompound},
			},
		},
		{
			Letter:      "B",
			Description: "full body workout B",
			Slots: []Slot{
				{MuscleLowerBody, MovementCompound},
				{MuscleShoulder, MovementCompound},
				{MuscleLowerBack, MovementCompound},
			},
		},
	},
}

// DefaultTemplates returns the built-in template registry.
func DefaultTemplates() Registry {
	return Registry{
		{Goal: models.GoalBuildMuscle, Level: models.LevelBeginner}: beginner5x5,
	}
}

// Select returns the template for a goal and level.
func (r Registry) Select(goal models.Goal, level models.FitnessLevel) (Template, error) {
	t, ok := r[TemplateKey{Goal: goal, Level: level}]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s / %s", ErrNoMatchingTemplate, goal, level)
	}
	return t, nil
}

// ResolvedPattern is a day pattern with every slot bound to an exercise.
type ResolvedPattern struct {
	Letter      string   `json:"letter"`
	Description string   `json:"description"`
	Exercises   []string `json:"exercises"`
}

// Framework is a template resolved against a taxonomy.
type Framework struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Patterns    []ResolvedPattern `json:"patterns"`
}

// Resolve binds each slot to the first exercise of its taxonomy bucket.
// Every missing bucket is reported in a single ErrIncompleteTaxonomy.
func (t Template) Resolve(tax Taxonomy) (Framework, error) {
	fw := Framework{Title: t.Title, Description: t.Description}
	var missing []string

	for _, p := range t.Patterns {
		rp := ResolvedPattern{Letter: p.Letter, Description: p.Description}
		for _, slot := range p.Slots {
			name, ok := tax.First(slot.MuscleGroup, slot.MovementType)
			if !ok {
				missing = append(missing, p.Letter+":"+slot.String())
				continue
			}
			rp.Exercises = append(rp.Exercises, name)
		}
		fw.Patterns = append(fw.Patterns, rp)
	}

	if len(missing) > 0 {
		return Framework{}, fmt.Errorf("%w: %s", ErrIncompleteTaxonomy, strings.Join(missing, ", "))
	}
	if len(fw.Patterns) == 0 {
		return Framework{}, fmt.Errorf("%w: template %q has no day patterns", ErrIncompleteTaxonomy, t.Title)
	}
	return fw, nil
}
