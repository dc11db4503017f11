package Sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"Attendance/Models"
)

// Uploader sends locally captured records to the attendance server.
type Uploader interface {
	UploadAttendance(ctx context.Context, recs []Models.Attendance) error
	UploadLeaves(ctx context.Context, leaves []Models.Leave) error
}

// HTTPUploader posts JSON batches to {Endpoint}/attendance/batch and
// {Endpoint}/leaves/batch.
type HTTPUploader struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewHTTPUploader(endpoint, token string) *HTTPUploader {
	return &HTTPUploader{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Token:    token,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type attendanceBatch struct {
	Records []Models.Attendance `json:"records"`
}

type leaveBatch struct {
	Records []Models.Leave `json:"records"`
}

func (u *HTTPUploader) UploadAttendance(ctx context.Context, recs []Models.Attendance) error {
	if len(recs) == 0 {
		return nil
	}
	return u.post(ctx, "/attendance/batch", attendanceBatch{Records: recs})
}

func (u *HTTPUploader) UploadLeaves(ctx context.Context, leaves []Models.Leave) error {
	if len(leaves) == 0 {
		return nil
	}
	return u.post(ctx, "/leaves/batch", leaveBatch{Records: leaves})
}

func (u *HTTPUploader) post(ctx context.Context, path string, payload interface{}) error {
	if u.Endpoint == "" {
		return fmt.Errorf("sync endpoint is not set")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	url := u.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("Error creating HTTP request: %v", err)
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Attendance-Sync/1.0")
	if u.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.Token)
	}

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error executing HTTP request: %v", err)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Error closing response body: %v", closeErr)
		}
	}()

	log.Printf("Sync %s response status: %d", path, resp.StatusCode)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("authentication failed - check the sync token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded - try again later")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
