package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
)

// errRemote marks a 4xx answer from the remote API. Its message is the
// server's own error text and is safe to show to the caller.
var errRemote = errors.New("liftplan api")

// HTTPClient implements DataSource by calling the LiftPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The bearer token decides the user;
// userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s returned %d: %s", errRemote, path, resp.StatusCode, msg)
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Generate(ctx context.Context, _ int) (*program.Result, error) {
	var res program.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/programs", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Latest(ctx context.Context, _ int) (*models.ProgramDetail, error) {
	var p models.ProgramDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs/latest", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) AccessibleExercises(ctx context.Context, _ int) ([]string, error) {
	var resp struct {
		Exercises []string `json:"exercises"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/exercises", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Exercises, nil
}

func (c *HTTPClient) UpdateSet(ctx context.Context, _ int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error) {
	body := map[string]any{
		"exercise_name": key.ExerciseName,
		"set_number":    key.SetNumber,
		"reps":          u.Reps,
		"weight":        u.Weight,
		"completed":     u.Completed,
	}
	path := "/api/v1/sessions/" + strconv.FormatInt(key.SessionID, 10) + "/sets"

	var row models.SessionDetailRow
	if err := c.do(ctx, http.MethodPatch, path, body, &row); err != nil {
		return nil, err
	}
	return &row, nil
}
