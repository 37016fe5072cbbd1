package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/utils"
)

const renderContentType = "image/png"

// Uploader copies provider result images into durable storage.
type Uploader struct {
	store        Storage
	buckets      map[entity.JobType]string
	httpClient   *http.Client
	fetchTimeout time.Duration
}

// NewUploader binds a Storage backend to the configured render buckets.
func NewUploader(store Storage, cfg config.Config) *Uploader {
	return &Uploader{
		store: store,
		buckets: map[entity.JobType]string{
			entity.JobTypeSemantic:   strings.TrimSpace(cfg.StorageSemanticBucket),
			entity.JobTypeRefinement: strings.TrimSpace(cfg.StorageRefinementBucket),
		},
		httpClient:   &http.Client{},
		fetchTimeout: cfg.StorageFetchTimeout,
	}
}

// Bucket returns the bucket for an image category.
func (u *Uploader) Bucket(category entity.JobType) (string, error) {
	bucket, ok := u.buckets[category]
	if !ok || bucket == "" {
		return "", fmt.Errorf("Cannot post this Render type to storage: %s", category)
	}
	return bucket, nil
}

// Put downloads sourceURL and stores it as {bucket}/{renderID}.png, returning
// the public URL. Re-delivering the same render overwrites or reuses the
// existing object.
func (u *Uploader) Put(ctx context.Context, sourceURL string, category entity.JobType, renderID string) (string, error) {
	if u == nil || u.store == nil {
		return "", apperrors.Storage("upload render", errors.New("storage not configured"))
	}
	bucket, err := u.Bucket(category)
	if err != nil {
		return "", apperrors.Storage("upload render", err)
	}

	data, mimeType, err := utils.FetchImage(ctx, u.httpClient, sourceURL, u.fetchTimeout)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"render_id": renderID,
			"mime_type": mimeType,
		}).Warn("failed to fetch render image")
		return "", apperrors.Storage("fetch render image", err)
	}

	key, err := u.store.Save(ctx, data, SaveOptions{
		Category:     bucket,
		BaseName:     renderID,
		Extension:    "png",
		ContentType:  renderContentType,
		SkipIfExists: true,
	})
	if err != nil {
		return "", apperrors.Storage("upload render", err)
	}

	publicURL := u.store.PublicURL(key)
	logrus.WithFields(logrus.Fields{
		"render_id":  renderID,
		"bucket":     bucket,
		"object_key": key,
		"bytes":      len(data),
	}).Debug("render stored")
	return publicURL, nil
}
