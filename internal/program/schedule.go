package program

import (
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// DefaultWeeks is the program length used when none is configured.
const DefaultWeeks = 2

// trainingDays maps sessions per week to weekday slots (1 = Monday ... 7 = Sunday).
var trainingDays = map[int][]int{
	3: {1, 3, 5},
}

// SupportedFrequency reports whether a days-per-week value can be scheduled.
func SupportedFrequency(daysPerWeek int) bool {
	_, ok := trainingDays[daysPerWeek]
	return ok
}

// ScheduledSession is one training day of the expanded calendar.
type ScheduledSession struct {
	Week          int                      `json:"week"`
	SessionNumber int                      `json:"session_no"`
	DayOfWeek     int                      `json:"day_of_week"`
	Date          time.Time                `json:"date"`
	Letter        string                   `json:"letter"`
	Title         string                   `json:"title"`
	Exercises     []models.PlannedExercise `json:"workout"`
}

// Schedule is the ordered list of training days of a program.
type Schedule []ScheduledSession

// NextMonday returns midnight of the first Monday on or after t, in t's location.
func NextMonday(t time.Time) time.Time {
	shift := (1 - int(t.Weekday()) + 7) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, shift)
}

// BuildSchedule expands a framework over weeks starting at the Monday on or
// after start. Day patterns alternate across the whole program, not per week.
func BuildSchedule(fw Framework, daysPerWeek, weeks int, start time.Time) (Schedule, error) {
	if !SupportedFrequency(daysPerWeek) {
		return nil, fmt.Errorf("%w: %d days per week", ErrUnsupportedFrequency, daysPerWeek)
	}
	days := trainingDays[daysPerWeek]
	if weeks < 1 {
		return nil, fmt.Errorf("%w: program length %d weeks", ErrInvalidInput, weeks)
	}
	if len(fw.Patterns) == 0 {
		return nil, fmt.Errorf("%w: framework has no day patterns", ErrIncompleteTaxonomy)
	}

	monday := NextMonday(start)
	schedule := make(Schedule, 0, weeks*len(days))
	sessionNo := 1

	for week := 1; week <= weeks; week++ {
		weekStart := monday.AddDate(0, 0, (week-1)*7)
		for _, day := range days {
			p := fw.Patterns[(sessionNo-1)%len(fw.Patterns)]
			exercises := make([]models.PlannedExercise, len(p.Exercises))
			for i, name := range p.Exercises {
				exercises[i] = models.PlannedExercise{Name: name}
			}
			schedule = append(schedule, ScheduledSession{
				Week:          week,
				SessionNumber: sessionNo,
				DayOfWeek:     day,
				Date:          weekStart.AddDate(0, 0, day-1),
				Letter:        p.Letter,
				Title:         "Workout " + p.Letter,
				Exercises:     exercises,
			})
			sessionNo++
		}
	}
	return schedule, nil
}
