// SPDX-License-Identifier: GPL-3.0-only

// Package converter is the client for the downstream document-conversion
// service. The backend is an opaque network call: bytes in, converted bytes
// plus page-count/size metadata out, always under a bounded timeout.
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docgate-server/commons"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Result struct {
	Data      []byte
	Pages     int
	SizeBytes int64
}

func NewClient() *Client {
	timeoutSeconds, err := strconv.Atoi(commons.GetEnv("CONVERTER_TIMEOUT_SECONDS", "60"))
	if err != nil || timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &Client{
		baseURL: commons.GetEnv("CONVERTER_URL", "http://localhost:9090"),
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

// Convert submits a document and returns the converted output. A non-2xx
// response or transport error means the conversion did not happen and must
// not consume quota.
func (c *Client) Convert(ctx context.Context, document []byte, filename, targetFormat string) (*Result, error) {
	payload := map[string]any{
		"filename": filename,
		"format":   targetFormat,
	}
	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(document))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Conversion-Options", string(meta))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversion service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("conversion service returned %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	pages, _ := strconv.Atoi(resp.Header.Get("X-Page-Count"))
	return &Result{
		Data:      data,
		Pages:     pages,
		SizeBytes: int64(len(data)),
	}, nil
}
