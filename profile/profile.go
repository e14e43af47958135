// Package profile uploads a profile picture to an image host and records the
// hosted URL on the signed in account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// Uploader stores a picture and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, picture Picture) (string, error)
}

// Refresher reloads the signed in profile after it changed.
type Refresher interface {
	RefreshProfile(ctx context.Context) error
}

// Service runs the upload then record flow.
type Service struct {
	api       *apiclient.Client
	uploader  Uploader
	refresher Refresher
	maxBytes  int64
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(maxBytes int64) ServiceOption {
	return func(s *Service) {
		if maxBytes > 0 {
			s.maxBytes = maxBytes
		}
	}
}

// NewService returns the picture flow. A nil uploader only allows SetPictureURL.
func NewService(api *apiclient.Client, uploader Uploader, refresher Refresher, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[profile.NewService] api client is required")
	}
	if refresher == nil {
		return nil, errors.New("[profile.NewService] profile refresher is required")
	}
	s := &Service{api: api, uploader: uploader, refresher: refresher, maxBytes: DefaultMaxBytes}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

type pictureResponse struct {
	Message        string `json:"message"`
	ProfilePicture string `json:"profile_picture"`
}

// UploadFile reads path and uploads it as the profile picture.
func (s *Service) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat picture: %w", err)
	}
	if info.Size() > s.maxBytes {
		return "", apperrors.ErrImageTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	return s.Upload(ctx, filepath.Base(path), data)
}

// Upload checks data locally, hosts it, records the URL and refreshes the
// session profile. It returns the recorded URL.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	picture, err := NewPicture(filename, data, s.maxBytes)
	if err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", apperrors.Wrapf(apperrors.ErrUnsupported, "no picture uploader configured")
	}
	hosted, err := s.uploader.Upload(ctx, picture)
	if err != nil {
		return "", err
	}
	return s.SetPictureURL(ctx, hosted)
}

// SetPictureURL records an already hosted picture URL.
func (s *Service) SetPictureURL(ctx context.Context, pictureURL string) (string, error) {
	pictureURL = strings.TrimSpace(pictureURL)
	if pictureURL == "" {
		return "", apperrors.Wrapf(apperrors.ErrMissingField, "profile_picture")
	}
	var resp pictureResponse
	body := map[string]string{"profile_picture": pictureURL}
	if err := s.api.Post(ctx, apiclient.RouteProfilePicture, apiclient.AuthRequired, body, &resp); err != nil {
		return "", err
	}
	if err := s.refresher.RefreshProfile(ctx); err != nil {
		log.Err(err).Msg("[profile.Service] profile refresh after picture update failed")
	}
	if resp.ProfilePicture != "" {
		return resp.ProfilePicture, nil
	}
	return pictureURL, nil
}
