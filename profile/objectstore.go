package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

const objectKeyPrefix = "profile-pictures/"

var _ Uploader = (*ObjectStoreUploader)(nil)

// ObjectStoreSettings locates an S3 compatible bucket.
type ObjectStoreSettings struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string // prefix of the returned URL; defaults to endpoint/bucket
}

// ObjectStoreUploader stores pictures in an S3 compatible bucket.
type ObjectStoreUploader struct {
	client   *minio.Client
	settings ObjectStoreSettings
}

func NewObjectStoreUploader(settings ObjectStoreSettings) (*ObjectStoreUploader, error) {
	if settings.Endpoint == "" {
		return nil, errors.New("[profile.NewObjectStoreUploader] endpoint is required")
	}
	if settings.Bucket == "" {
		return nil, errors.New("[profile.NewObjectStoreUploader] bucket is required")
	}

	endpoint := settings.Endpoint
	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		settings.UseSSL = u.Scheme == "https"
	}
	settings.Endpoint = endpoint

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
		Region: settings.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &ObjectStoreUploader{client: client, settings: settings}, nil
}

func (u *ObjectStoreUploader) Upload(ctx context.Context, picture Picture) (string, error) {
	key := objectKeyPrefix + uuid.NewString() + picture.Extension()
	_, err := u.client.PutObject(ctx, u.settings.Bucket, key, bytes.NewReader(picture.Data), int64(len(picture.Data)), minio.PutObjectOptions{
		ContentType: picture.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.publicURL(key), nil
}

func (u *ObjectStoreUploader) publicURL(key string) string {
	if base := strings.TrimRight(u.settings.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	scheme := "http"
	if u.settings.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, u.settings.Endpoint, u.settings.Bucket, key)
}
