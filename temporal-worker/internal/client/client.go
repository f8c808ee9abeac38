// Package client talks to the flight surety API server on behalf of the
// oracle fleet.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/gorilla/websocket"
)

// CallerHeader carries the oracle identity.
const CallerHeader = "X-Caller-ID"

// APIError is a non-2xx answer from the API server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether err is a 409 from the API server.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsPermanent reports whether retrying the request cannot help. Client
// errors are permanent except 429.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests
}

// Client is a client for the API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: timeout},
	}
}

// Status returns the engine summary.
func (c *Client) Status(ctx context.Context) (*models.SystemStatus, error) {
	var out models.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterOracle bonds oracleID and returns its indexes.
func (c *Client) RegisterOracle(ctx context.Context, oracleID string, bond int64) (*models.OracleRegistration, error) {
	var out models.OracleRegistration
	req := models.RegisterOracleRequest{Bond: bond}
	if err := c.do(ctx, http.MethodPost, "/api/oracles", oracleID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOracle returns the indexes of an already registered oracle.
func (c *Client) GetOracle(ctx context.Context, oracleID string) (*models.OracleRegistration, error) {
	var out models.OracleRegistration
	if err := c.do(ctx, http.MethodGet, "/api/oracles/"+url.PathEscape(oracleID), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitOracleResponse submits status for key as oracleID.
func (c *Client) SubmitOracleResponse(ctx context.Context, oracleID string, key models.OracleRequestKey, status models.StatusCode) (*models.ResponseOutcome, error) {
	req := models.OracleResponseRequest{
		Index:      key.Index,
		Airline:    key.Airline,
		FlightID:   key.FlightID,
		Timestamp:  key.Timestamp,
		StatusCode: status,
	}
	var out models.ResponseOutcome
	if err := c.do(ctx, http.MethodPost, "/api/oracles/responses", oracleID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StreamEvents reads the server's event stream and calls handle for each
// event until ctx is cancelled or the connection fails.
func (c *Client) StreamEvents(ctx context.Context, handle func(models.Event)) error {
	wsURL, err := c.websocketURL("/api/events/ws")
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	// Reply to pings so the server keeps the stream open.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event stream: %w", err)
		}
		handle(ev)
	}
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path, caller string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
