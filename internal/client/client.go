// Package client implements the HTTP client used by the taskctl command to
// talk to the task manager API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskman/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = errors.New("server unavailable")

// TokenPair mirrors the token response of the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User mirrors the user payload returned by the API.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
}

// Task mirrors the task payload returned by the API.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
}

// Client is a thin wrapper over the JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path, bearer string, body, dest any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server: %s", resp.Status)
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Register creates an account. The password slice is not retained.
func (c *Client) Register(ctx context.Context, email string, password []byte) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  string(password),
		"user_name": email,
	}, nil)
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email string, password []byte) (*TokenPair, error) {
	var pair TokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": string(password),
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh rotates the refresh token.
func (c *Client) Refresh(ctx context.Context, pair *TokenPair) (*TokenPair, error) {
	var next TokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, &next)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, bearer string, id int64) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), bearer, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListTasks returns the caller's tasks.
func (c *Client) ListTasks(ctx context.Context, bearer string) ([]Task, error) {
	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/api/tasks", bearer, nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask creates a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, bearer, title, priority string) (*Task, error) {
	body := map[string]string{"title": title}
	if priority != "" {
		body["priority"] = priority
	}
	var resp struct {
		Task Task `json:"task"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/tasks", bearer, body, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Task, nil
}
