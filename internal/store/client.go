package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/docview/internal/annotation"
)

// Client talks to an annotation persistence service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient builds a client for the service at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: Backoff,
	}
}

// Save stores or updates one annotation record, retrying transient
// failures with backoff.
func (c *Client) Save(ctx context.Context, docID string, a *annotation.Annotation) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal annotation: %w", err)
	}
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}
		lastErr = c.put(ctx, docID, a.ID, body)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) put(ctx context.Context, docID, id string, body []byte) error {
	u := fmt.Sprintf("%s/documents/%s/annotations/%s", c.baseURL, docID, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &transientError{fmt.Errorf("save annotation: %w", err)}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode >= 500:
		return &transientError{fmt.Errorf("save annotation %s: status %d", id, resp.StatusCode)}
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("save annotation %s: status %d: %s", id, resp.StatusCode, string(respBody))
	}
}

// List retrieves all annotation records for a document. Records that
// fail validation are skipped: a malformed stored record must not take
// down the rest of the overlay.
func (c *Client) List(ctx context.Context, docID string) ([]*annotation.Annotation, error) {
	u := fmt.Sprintf("%s/documents/%s/annotations", c.baseURL, docID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list annotations %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}

	var result struct {
		Annotations []json.RawMessage `json:"annotations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	out := make([]*annotation.Annotation, 0, len(result.Annotations))
	for _, raw := range result.Annotations {
		var a annotation.Annotation
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		if annotation.Validate(&a) != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}

// Delete removes one annotation record.
func (c *Client) Delete(ctx context.Context, docID, annotationID string) error {
	u := fmt.Sprintf("%s/documents/%s/annotations/%s", c.baseURL, docID, annotationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete annotation %s: status %d: %s", annotationID, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases any resources (currently a no-op).
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
