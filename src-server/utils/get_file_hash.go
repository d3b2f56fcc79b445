package utils

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
)

// Fetch a file from a URL and return the sha256 of its content.
// Subscribed calendars use this to skip re-parsing unchanged feeds.
func GetFileHash(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("GetFileHash: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("GetFileHash: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GetFileHash: bad status code: %d", resp.StatusCode)
	}

	h := sha256.New()
	if _, err := io.Copy(h, resp.Body); err != nil {
		return "", fmt.Errorf("GetFileHash: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
