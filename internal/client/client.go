package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lilith-backend/pkg/api"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a Lilith backend. After Login it sends the received token
// with every request.
type Client struct {
	client *resty.Client
	token  string
}

func New(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

func handleResponse[T any](res *resty.Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, fmt.Errorf("request failed: %w", err)
	}

	if !res.IsSuccess() {
		apiErr := &APIError{StatusCode: res.StatusCode(), Message: http.StatusText(res.StatusCode())}
		var body api.ErrorResponse
		if json.Unmarshal(res.Body(), &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return out, apiErr
	}

	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return out, fmt.Errorf("error parsing response body: %w", err)
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	return handleResponse[api.HealthResponse](c.request(ctx).Get("/"))
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := handleResponse[api.MessageResponse](c.request(ctx).
		SetBody(api.RegisterRequest{Username: username, Password: password}).
		Post("/register"))
	return err
}

func (c *Client) Login(ctx context.Context, username, password string) (api.LoginResponse, error) {
	res, err := handleResponse[api.LoginResponse](c.request(ctx).
		SetBody(api.LoginRequest{Username: username, Password: password}).
		Post("/login"))
	if err != nil {
		return res, err
	}
	c.token = res.AccessToken
	return res, nil
}

func (c *Client) Me(ctx context.Context) (api.MeResponse, error) {
	return handleResponse[api.MeResponse](c.request(ctx).Get("/api/me"))
}

func (c *Client) CurrentSession(ctx context.Context) (api.SessionResponse, error) {
	return handleResponse[api.SessionResponse](c.request(ctx).Get("/api/sessions/current"))
}

// Chat sends a message. A zero sessionID targets the current session.
func (c *Client) Chat(ctx context.Context, message string, sessionID uint) (api.ChatResponse, error) {
	body := map[string]any{"message": message}
	if sessionID != 0 {
		body["sessionId"] = sessionID
	}
	return handleResponse[api.ChatResponse](c.request(ctx).SetBody(body).Post("/api/chat"))
}

func (c *Client) ListSessions(ctx context.Context, limit, offset int) (api.ListSessionsResponse, error) {
	return handleResponse[api.ListSessionsResponse](c.request(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset)).
		Get("/api/sessions"))
}

func (c *Client) CreateSession(ctx context.Context, name string) (api.SessionSummary, error) {
	return handleResponse[api.SessionSummary](c.request(ctx).
		SetBody(api.CreateSessionRequest{Name: name}).
		Post("/api/sessions"))
}

func (c *Client) GetSession(ctx context.Context, sessionID uint) (api.SessionResponse, error) {
	return handleResponse[api.SessionResponse](c.request(ctx).
		SetPathParam("session_id", strconv.FormatUint(uint64(sessionID), 10)).
		Get("/api/sessions/{session_id}"))
}

func (c *Client) RenameSession(ctx context.Context, sessionID uint, name string) (api.SessionSummary, error) {
	return handleResponse[api.SessionSummary](c.request(ctx).
		SetPathParam("session_id", strconv.FormatUint(uint64(sessionID), 10)).
		SetBody(api.RenameSessionRequest{Name: name}).
		Post("/api/sessions/{session_id}/rename"))
}

func (c *Client) DeleteSession(ctx context.Context, sessionID uint) error {
	_, err := handleResponse[struct{}](c.request(ctx).
		SetPathParam("session_id", strconv.FormatUint(uint64(sessionID), 10)).
		Delete("/api/sessions/{session_id}"))
	return err
}
