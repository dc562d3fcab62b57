package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
	tables "mesaYaWaitlist/internal/modules/tables/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
	"mesaYaWaitlist/internal/shared/logging"
)

// WaitlistHTTPClient implements port.WaitlistAPI against the waitlist REST API.
// The two collections are read from absolute URLs; actions are posted below
// the action base URL.
type WaitlistHTTPClient struct {
	rest        *RESTClient
	waitlistURL string
	tablesURL   string
	logger      *slog.Logger
}

// Endpoints locates the upstream API.
type Endpoints struct {
	WaitlistURL   string
	TablesURL     string
	ActionBaseURL string
}

func NewWaitlistHTTPClient(endpoints Endpoints, timeout time.Duration, client *http.Client) *WaitlistHTTPClient {
	return &WaitlistHTTPClient{
		rest:        NewRESTClient(endpoints.ActionBaseURL, timeout, client),
		waitlistURL: strings.TrimSpace(endpoints.WaitlistURL),
		tablesURL:   strings.TrimSpace(endpoints.TablesURL),
		logger:      logging.Component("waitlist-api"),
	}
}

func (c *WaitlistHTTPClient) FetchWaitlist(ctx context.Context) ([]waitlist.Entry, error) {
	items, err := c.fetchCollection(ctx, c.waitlistURL)
	if err != nil {
		return nil, fmt.Errorf("fetch waitlist: %w", err)
	}
	return waitlist.BuildEntryList(items), nil
}

func (c *WaitlistHTTPClient) FetchTables(ctx context.Context) ([]tables.Table, error) {
	items, err := c.fetchCollection(ctx, c.tablesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch tables: %w", err)
	}
	return tables.BuildTableList(items), nil
}

func (c *WaitlistHTTPClient) AddToWaitlist(ctx context.Context, req waitlist.AddRequest) error {
	if err := c.postJSON(ctx, "/waitlist", req); err != nil {
		return fmt.Errorf("add to waitlist: %w", err)
	}
	return nil
}

func (c *WaitlistHTTPClient) NotifyCustomer(ctx context.Context, req waitlist.NotifyRequest) error {
	if err := c.postJSON(ctx, "/notify", req); err != nil {
		return fmt.Errorf("notify customer: %w", err)
	}
	return nil
}

func (c *WaitlistHTTPClient) fetchCollection(ctx context.Context, endpoint string) ([]any, error) {
	req, err := c.rest.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.rest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	c.logger.Debug("upstream response", slog.String("method", req.Method), slog.String("url", req.URL.String()), slog.Int("status", res.StatusCode))

	if err := c.checkStatus(req, res); err != nil {
		return nil, err
	}
	return decodeEnvelope(res.Body)
}

func (c *WaitlistHTTPClient) postJSON(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := c.rest.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	c.logger.Debug("upstream response", slog.String("method", req.Method), slog.String("url", req.URL.String()), slog.Int("status", res.StatusCode))

	if err := c.checkStatus(req, res); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	return nil
}

func (c *WaitlistHTTPClient) checkStatus(req *http.Request, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	c.logger.Warn("upstream error response",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", res.StatusCode),
		slog.String("body", strings.TrimSpace(string(snippet))),
	)
	return fmt.Errorf("%w: %d", port.ErrUpstreamStatus, res.StatusCode)
}

var _ port.WaitlistAPI = (*WaitlistHTTPClient)(nil)
