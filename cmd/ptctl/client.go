package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/powertimer"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

type message struct {
	Message string `json:"message"`
	Created int    `json:"created,omitempty"`
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var m message
	err := c.do(ctx, http.MethodGet, "/", nil, &m)
	return m.Message, err
}

// Timers

type CreateTimer struct {
	Name            string                 `json:"name"`
	DurationSeconds int                    `json:"duration_seconds"`
	Category        string                 `json:"category,omitempty"`
	TemplateID      *powertimer.TemplateID `json:"template_id,omitempty"`
}

type UpdateTimer struct {
	Name             *string                 `json:"name,omitempty"`
	RemainingSeconds *int                    `json:"remaining_seconds,omitempty"`
	Status           *powertimer.TimerStatus `json:"status,omitempty"`
}

func (c *Client) CreateTimer(ctx context.Context, t CreateTimer) (powertimer.ExistingTimerRecord, error) {
	var timer powertimer.ExistingTimerRecord
	err := c.do(ctx, http.MethodPost, "/timers", t, &timer)
	return timer, err
}

func (c *Client) ListTimers(ctx context.Context) ([]powertimer.ExistingTimerRecord, error) {
	var timers []powertimer.ExistingTimerRecord
	err := c.do(ctx, http.MethodGet, "/timers", nil, &timers)
	return timers, err
}

func (c *Client) GetTimer(ctx context.Context, id powertimer.TimerID) (powertimer.ExistingTimerRecord, error) {
	var timer powertimer.ExistingTimerRecord
	err := c.do(ctx, http.MethodGet, "/timers/"+url.PathEscape(string(id)), nil, &timer)
	return timer, err
}

func (c *Client) UpdateTimer(ctx context.Context, id powertimer.TimerID, u UpdateTimer) (powertimer.ExistingTimerRecord, error) {
	var timer powertimer.ExistingTimerRecord
	err := c.do(ctx, http.MethodPatch, "/timers/"+url.PathEscape(string(id)), u, &timer)
	return timer, err
}

func (c *Client) DeleteTimer(ctx context.Context, id powertimer.TimerID) error {
	return c.do(ctx, http.MethodDelete, "/timers/"+url.PathEscape(string(id)), nil, nil)
}

// Templates

func (c *Client) ListTemplates(ctx context.Context) ([]powertimer.ExistingTemplateRecord, error) {
	var templates []powertimer.ExistingTemplateRecord
	err := c.do(ctx, http.MethodGet, "/templates", nil, &templates)
	return templates, err
}

func (c *Client) CreateTemplate(ctx context.Context, t powertimer.TemplateRecord) (powertimer.ExistingTemplateRecord, error) {
	var template powertimer.ExistingTemplateRecord
	err := c.do(ctx, http.MethodPost, "/templates", t, &template)
	return template, err
}

func (c *Client) Instantiate(ctx context.Context, id powertimer.TemplateID, name string) (powertimer.ExistingTimerRecord, error) {
	path := "/templates/" + url.PathEscape(string(id)) + "/create-timer"
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}
	var timer powertimer.ExistingTimerRecord
	err := c.do(ctx, http.MethodPost, path, nil, &timer)
	return timer, err
}

func (c *Client) SeedTemplates(ctx context.Context) (int, error) {
	var m message
	err := c.do(ctx, http.MethodPost, "/init-templates", nil, &m)
	return m.Created, err
}

// Stats

func (c *Client) Stats(ctx context.Context) (powertimer.Stats, error) {
	var stats powertimer.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)
	return stats, err
}

func (c *Client) Sessions(ctx context.Context, limit int) ([]powertimer.ExistingSessionRecord, error) {
	path := "/sessions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var sessions []powertimer.ExistingSessionRecord
	err := c.do(ctx, http.MethodGet, path, nil, &sessions)
	return sessions, err
}

// post sends a raw JSON body and returns the status code.
func (c *Client) post(ctx context.Context, path string, body map[string]any) (int, error) {
	err := c.do(ctx, http.MethodPost, path, body, nil)
	if err == nil {
		return http.StatusOK, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, nil
	}
	return 0, err
}
