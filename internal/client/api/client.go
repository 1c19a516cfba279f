// Package api is the HTTP client for the inventory REST API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/models"
)

const (
	pathLogin   = "/login"
	pathItems   = "/items"
	pathItem    = "/items/{id}"
	pathHistory = "/items/{id}/history"

	headerRequestID = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds each request. Zero means no limit.
	Timeout time.Duration
	// CAFile is an optional PEM bundle trusted for TLS.
	CAFile string
	// Logger receives resty diagnostics and per-call logs.
	Logger *zap.Logger
}

// Client is a resty-backed implementation of the inventory API.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// New builds a Client from Options.
func New(opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(log.Sugar()).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if r.Header.Get(headerRequestID) == "" {
				r.SetHeader(headerRequestID, uuid.NewString())
			}
			return nil
		})
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.CAFile != "" {
		tlsCfg, err := LoadTLSConfig(opts.CAFile)
		if err != nil {
			return nil, err
		}
		rc.SetTLSClientConfig(tlsCfg)
	}

	return &Client{http: rc, log: log}, nil
}

// Login posts credentials to /login.
func (c *Client) Login(ctx context.Context, username, password string) (models.LoginResult, error) {
	var out models.LoginResult
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password})
	err := c.do(req, http.MethodPost, pathLogin, &out)
	return out, err
}

// ListItems fetches the whole catalog.
func (c *Client) ListItems(ctx context.Context, token string) ([]models.Item, error) {
	var items []models.Item
	if err := c.do(c.authed(ctx, token), http.MethodGet, pathItems, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// CreateItem posts a new item and returns what the server echoed back,
// which is at least the new ID.
func (c *Client) CreateItem(ctx context.Context, token string, in models.ItemInput) (models.Item, error) {
	var out models.Item
	err := c.do(c.authed(ctx, token).SetBody(in), http.MethodPost, pathItems, &out)
	return out, err
}

// UpdateItem replaces name, description and quantity of an item.
func (c *Client) UpdateItem(ctx context.Context, token string, id int64, in models.ItemInput) error {
	req := c.authed(ctx, token).
		SetPathParam("id", fmt.Sprint(id)).
		SetBody(in)
	return c.do(req, http.MethodPut, pathItem, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, token string, id int64) error {
	req := c.authed(ctx, token).SetPathParam("id", fmt.Sprint(id))
	return c.do(req, http.MethodDelete, pathItem, nil)
}

// ItemHistory returns the audit entries of one item in server order.
func (c *Client) ItemHistory(ctx context.Context, token string, id int64) ([]models.HistoryEntry, error) {
	var out struct {
		ItemID int64                 `json:"item_id"`
		Items  []models.HistoryEntry `json:"items"`
	}
	req := c.authed(ctx, token).SetPathParam("id", fmt.Sprint(id))
	if err := c.do(req, http.MethodGet, pathHistory, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.HistoryEntry{}
	}
	return out.Items, nil
}

func (c *Client) authed(ctx context.Context, token string) *resty.Request {
	return c.http.R().SetContext(ctx).SetAuthToken(token)
}

// do executes req and decodes a 2xx body into out (when non-nil).
// Non-2xx answers become *Error, transport failures wrap ErrUnreachable.
// Bodies are read as JSON even when the server omits the content type.
func (c *Client) do(req *resty.Request, method, path string, out any) error {
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.
		SetError(&errorBody{}).
		ExpectContentType("application/json").
		Execute(method, path)
	if err != nil {
		if resp != nil && resp.RawResponse != nil && resp.IsSuccess() {
			if len(resp.Body()) == 0 {
				return nil
			}
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnreachable, err)
	}

	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", resp.Time()),
	)

	if resp.IsError() {
		msg := http.StatusText(resp.StatusCode())
		if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
			msg = body.Error
		}
		return &Error{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}
