// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"menubar/internal/config"
	"menubar/internal/fetch"
	"menubar/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls when none is configured.
	APITimeout = 5 * time.Second
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
}

// New creates a Google Tasks client from oauth_client.json and token.json in
// the config directory. Refreshed tokens are written back to token.json.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.HasOAuthClient() || !cfg.HasToken() {
		return nil, fmt.Errorf("google tasks: %w: need %s and %s",
			config.ErrNoCredentials, cfg.OAuthClientPath(), cfg.TokenPath())
	}

	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	src := &savingTokenSource{
		base: oauthConfig.TokenSource(ctx, &token),
		path: cfg.TokenPath(),
		last: token.AccessToken,
	}
	return NewWithHTTPClient(ctx, oauth2.NewClient(ctx, src), cfg.GTasks.Timeout)
}

// NewWithHTTPClient creates a client with a custom HTTP client. Tests pass
// option.WithEndpoint to point it at a fake server.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, timeout time.Duration, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Client{svc: svc, timeout: timeout}, nil
}

// ListLists returns all task lists in API order. The default list is
// reported with DefaultListID.
func (c *Client) ListLists(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defaultList, err := c.svc.Tasklists.Get(DefaultListID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get default list", err)
	}

	var result []service.TaskList
	err = c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			isDefault := list.Id == defaultList.Id
			id := list.Id
			if isDefault {
				id = DefaultListID
			}
			result = append(result, service.TaskList{
				ID:        id,
				Title:     list.Title,
				IsDefault: isDefault,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("list task lists", err)
	}
	return result, nil
}

// ListOpenTasks returns the open tasks of a list across all pages.
func (c *Client) ListOpenTasks(ctx context.Context, listID string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(false).
		ShowDeleted(false).
		ShowHidden(false)

	var result []service.Task
	err := call.Pages(ctx, func(resp *tasks.Tasks) error {
		for _, t := range resp.Items {
			task := service.Task{
				ID:       t.Id,
				Title:    t.Title,
				Notes:    t.Notes,
				Position: t.Position,
				Status:   t.Status,
			}
			if t.Due != "" {
				due, err := time.Parse(time.RFC3339, t.Due)
				if err != nil {
					return &fetch.DecodeError{Record: t.Id, Field: "due", Err: fmt.Errorf("%w: %v", fetch.ErrInvalidField, err)}
				}
				task.Due = due
			}
			result = append(result, task)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("list tasks", err)
	}
	return result, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, listID, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.svc.Tasks.Patch(listID, taskID, &tasks.Task{
		Status: service.StatusCompleted,
	}).Context(ctx).Do()
	if err != nil {
		return wrapError("complete task", err)
	}
	return nil
}

// wrapError maps API failures onto the service and fetch sentinels.
func wrapError(op string, err error) error {
	var (
		gerr *googleapi.Error
		rerr *oauth2.RetrieveError
		derr *fetch.DecodeError
	)
	switch {
	case errors.As(err, &derr):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: request timed out", op, fetch.ErrTransport)
	case errors.As(err, &rerr):
		return fmt.Errorf("%s: %w", op, service.ErrUnauthorized)
	case errors.As(err, &gerr):
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, service.ErrUnauthorized)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, service.ErrNotFound)
		}
		return fmt.Errorf("%s: status %d: %s", op, gerr.Code, gerr.Message)
	}
	return fmt.Errorf("%s: %w: %v", op, fetch.ErrTransport, err)
}

// savingTokenSource persists every newly refreshed token.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	data, err := json.Marshal(tok)
	if err == nil {
		err = os.WriteFile(s.path, data, 0o600)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"op":    "save token",
			"path":  s.path,
			"cause": err,
		}).Warning("Refreshed token not saved")
	}
	return tok, nil
}
