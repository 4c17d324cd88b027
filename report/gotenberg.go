// Package report renders HTML reports to PDF through a Gotenberg service.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no Gotenberg URL was provided.
var ErrNotConfigured = errors.New("report: pdf renderer not configured")

// PageOptions controls the Chromium print settings. Sizes are in inches.
type PageOptions struct {
	PaperWidth  float64
	PaperHeight float64
	Margin      float64
	Landscape   bool
}

// A4 is the layout used for dashboard exports.
var A4 = PageOptions{PaperWidth: 8.27, PaperHeight: 11.7, Margin: 0.4}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	page       PageOptions
}

// NewClient constructs a new client. An empty baseURL yields a client whose
// calls fail with ErrNotConfigured.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		page: A4,
	}
}

// WithPage returns a copy of c printing with opts.
func (c *Client) WithPage(opts PageOptions) *Client {
	cp := *c
	cp.page = opts
	return &cp
}

// Configured reports whether a Gotenberg URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document using Gotenberg.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	for name, value := range c.page.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return io.ReadAll(resp.Body)
}

func (o PageOptions) fields() map[string]string {
	out := map[string]string{"printBackground": "true"}
	if o.PaperWidth > 0 && o.PaperHeight > 0 {
		out["paperWidth"] = inches(o.PaperWidth)
		out["paperHeight"] = inches(o.PaperHeight)
	}
	if o.Margin > 0 {
		m := inches(o.Margin)
		out["marginTop"], out["marginBottom"], out["marginLeft"], out["marginRight"] = m, m, m, m
	}
	if o.Landscape {
		out["landscape"] = "true"
	}
	return out
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
