package mcp

import (
	"context"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
)

// DataSource abstracts program access for MCP tools. *program.Service
// serves the embedded HTTP endpoint; HTTPClient serves stdio mode against
// a remote server.
type DataSource interface {
	Generate(ctx context.Context, userID int) (*program.Result, error)
	Latest(ctx context.Context, userID int) (*models.ProgramDetail, error)
	AccessibleExercises(ctx context.Context, userID int) ([]string, error)
	UpdateSet(ctx context.Context, userID int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error)
}

var _ DataSource = (*program.Service)(nil)
