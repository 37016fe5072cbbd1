package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const defaultFetchTimeout = 60 * time.Second

// ErrNotImage is returned when a fetched resource does not declare an image
// content type.
var ErrNotImage = errors.New("The content type is not an image")

// FetchImage downloads a remote image. Non-2xx answers and content types that
// do not start with "image" are rejected.
func FetchImage(ctx context.Context, client *http.Client, imageURL string, timeout time.Duration) ([]byte, string, error) {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return nil, "", errors.New("image url is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, trimmed, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("Failed to fetch the image: %s", resp.Status)
	}

	mimeType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if !IsImageContentType(mimeType) {
		return nil, mimeType, ErrNotImage
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if len(body) == 0 {
		return nil, "", errors.New("image payload empty")
	}
	return body, mimeType, nil
}

// IsImageContentType reports whether a Content-Type header names an image.
func IsImageContentType(contentType string) bool {
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = parsed
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image")
}
