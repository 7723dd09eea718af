// Package api is the HTTP client for the remote todo API.
package api

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

	"todoboard/internal/auth"
	"todoboard/internal/model"
)

// ErrUnauthorized is returned for a 401 response, after the gate has seen it.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Gate    *auth.Gate
}

func NewClient(baseURL string, gate *auth.Gate) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Gate:    gate,
	}
}

func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	var created model.Item
	if err := c.do(ctx, http.MethodPost, "/api/todos", d, &created); err != nil {
		return model.Item{}, err
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, it model.Item) error {
	return c.do(ctx, http.MethodPut, itemPath(it.ID), it, nil)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return "/api/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	var sent string
	if c.Gate != nil {
		sent = c.Gate.Authorize(req.Header)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if c.Gate != nil && c.Gate.Intercept(resp.StatusCode, sent) {
		return ErrUnauthorized
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode}
	}
	if c.Gate != nil {
		c.Gate.Confirm(sent)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
