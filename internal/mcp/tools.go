package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftplan/internal/auth"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
)

// --- Tool definitions ---

var toolGenerateProgram = mcp.NewTool("generate_program",
	mcp.WithDescription("Generate and store a new multi-week workout program from the user's training preferences, profile, latest measurement and equipment access. Returns the stored program and the weekly schedule."),
)

var toolGetLatestProgram = mcp.NewTool("get_latest_program",
	mcp.WithDescription("Return the user's most recently generated program with sessions ordered by date and every planned set."),
)

var toolListAccessibleExercises = mcp.NewTool("list_accessible_exercises",
	mcp.WithDescription("List exercises the user can perform with the equipment they have access to."),
)

var toolUpdateSet = mcp.NewTool("update_set",
	mcp.WithDescription("Record the outcome of one planned set: reps performed, weight used and whether it was completed."),
	mcp.WithNumber("session_id", mcp.Required(), mcp.Description("Session id from get_latest_program")),
	mcp.WithString("exercise_name", mcp.Required(), mcp.Description("Exercise name exactly as stored in the session")),
	mcp.WithNumber("set_number", mcp.Required(), mcp.Description("Set number within the exercise, starting at 1")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
	mcp.WithNumber("weight", mcp.Description("Weight in kg. Omit or pass null to keep the planned weight.")),
	mcp.WithBoolean("completed", mcp.Description("Whether the set was completed. Defaults to true.")),
)

// --- Tool handlers ---

func (h *handlers) generateProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.ds.Generate(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("generate_program", err), nil
	}
	return mcp.NewToolResultJSON(res)
}

func (h *handlers) getLatestProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.Latest(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_latest_program", err), nil
	}
	return mcp.NewToolResultJSON(p)
}

func (h *handlers) listAccessibleExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.ds.AccessibleExercises(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("list_accessible_exercises", err), nil
	}
	if names == nil {
		names = []string{}
	}
	return mcp.NewToolResultJSON(map[string]any{"exercises": names})
}

func (h *handlers) updateSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireInt("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("exercise_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	setNumber, err := req.RequireInt("set_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var weight *float64
	if v, ok := req.GetArguments()["weight"]; ok && v != nil {
		w := req.GetFloat("weight", 0)
		weight = &w
	}

	key := models.SetKey{SessionID: int64(sessionID), ExerciseName: name, SetNumber: setNumber}
	row, err := h.ds.UpdateSet(ctx, auth.UserIDFromContext(ctx), key, models.SetUpdate{
		Reps:      reps,
		Weight:    weight,
		Completed: req.GetBool("completed", true),
	})
	if err != nil {
		return h.toolError("update_set", err), nil
	}
	return mcp.NewToolResultJSON(row)
}

// toolError turns err into a tool-level error result. Errors the caller
// can act on are returned verbatim; anything else is logged and masked.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, program.ErrNotFound),
		errors.Is(err, program.ErrInvalidInput),
		errors.Is(err, program.ErrConflict),
		errors.Is(err, program.ErrNoMatchingTemplate),
		errors.Is(err, program.ErrIncompleteTaxonomy),
		errors.Is(err, program.ErrUnsupportedFrequency),
		errors.Is(err, errRemote):
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(tool + " failed")
}

// --- Resource handlers ---

func (h *handlers) latestProgramResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := h.ds.Latest(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
