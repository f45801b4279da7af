package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/claude/liftplan/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("goal", func(fl validator.FieldLevel) bool {
		_, err := models.ParseGoal(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("fitness_level", func(fl validator.FieldLevel) bool {
		_, err := models.ParseFitnessLevel(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
}

type profileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,isodate"`
	Gender      *string `json:"gender" validate:"omitempty,max=50"`
}

func (p profileRequest) update() models.ProfileUpdate {
	u := models.ProfileUpdate{FirstName: p.FirstName, LastName: p.LastName, Gender: p.Gender}
	if p.DateOfBirth != nil {
		// Already checked by the isodate rule.
		dob, _ := time.Parse(time.DateOnly, *p.DateOfBirth)
		u.DateOfBirth = &dob
	}
	return u
}

type measurementRequest struct {
	Weight float64 `json:"weight" validate:"gt=0,lt=1000"`
	Height int     `json:"height" validate:"gt=0,lt=300"`
}

type preferencesRequest struct {
	Goal              *string `json:"training_goal" validate:"omitempty,goal"`
	FitnessLevel      *string `json:"starting_fitness_level" validate:"omitempty,fitness_level"`
	DaysPerWeek       *int    `json:"training_days_per_week" validate:"omitempty,min=1,max=7"`
	MinutesPerSession *int    `json:"training_time_per_session" validate:"omitempty,gt=0,lte=600"`
}

func (p preferencesRequest) update() models.PreferencesUpdate {
	u := models.PreferencesUpdate{DaysPerWeek: p.DaysPerWeek, MinutesPerSession: p.MinutesPerSession}
	if p.Goal != nil {
		g := models.Goal(*p.Goal)
		u.Goal = &g
	}
	if p.FitnessLevel != nil {
		l := models.FitnessLevel(*p.FitnessLevel)
		u.FitnessLevel = &l
	}
	return u
}

type equipmentAccessRequest struct {
	AccessCategory string `json:"access_category" validate:"required"`
}

type updateSetRequest struct {
	ExerciseName string   `json:"exercise_name" validate:"required"`
	SetNumber    int      `json:"set_number" validate:"gte=1"`
	Reps         *int     `json:"reps" validate:"required,gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
	Completed    *bool    `json:"completed" validate:"required"`
}

type addSetRequest struct {
	ExerciseName string   `json:"exercise_name" validate:"required"`
	Reps         int      `json:"reps" validate:"gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
}

type sessionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// decodeJSON reads a JSON body into v and validates it. On failure it
// writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line naming the
// offending JSON fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
