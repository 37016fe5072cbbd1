package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/Pseudotools/pseudorandom-worker/internal/config"
)

// supabaseStorage writes into Supabase Storage. The category of an object is
// the bucket; the remainder of the key is the path inside the bucket.
type supabaseStorage struct {
	client  *storage_go.Client
	baseURL string
}

// NewSupabaseStorage uses the same project credentials as the supabase
// repository, resolved for the current APP_ENV.
func NewSupabaseStorage(cfg config.Config) (Storage, error) {
	projectURL, key := cfg.SupabaseCredentials()
	if projectURL == "" || key == "" {
		return nil, errors.New("storage: missing Supabase url or service role key")
	}
	baseURL := strings.TrimRight(projectURL, "/")
	return &supabaseStorage{
		client:  storage_go.NewClient(baseURL+"/storage/v1", key, nil),
		baseURL: baseURL,
	}, nil
}

func (s *supabaseStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	key, err := buildObjectPath(opts.Category, opts.BaseName, opts.Extension)
	if err != nil {
		return "", err
	}
	bucket, objectPath := splitObjectPath(key)

	// storage-go 无 HEAD 接口，SkipIfExists 以 upsert 覆盖实现幂等
	contentType := resolveContentType(opts)
	upsert := opts.SkipIfExists
	if _, err := s.client.UploadFile(bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return key, nil
}

// PublicURL implements Storage.
func (s *supabaseStorage) PublicURL(key string) string {
	return joinPublicURL(s.baseURL+"/storage/v1/object/public", key)
}

var _ Storage = (*supabaseStorage)(nil)
