package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
)

// DefaultCloudinaryURL is the public Cloudinary API host.
const DefaultCloudinaryURL = "https://api.cloudinary.com"

var _ Uploader = (*CloudinaryUploader)(nil)

// CloudinaryUploader posts unsigned uploads to a Cloudinary compatible
// endpoint.
type CloudinaryUploader struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

// NewCloudinaryUploader returns an uploader for cloudName using uploadPreset.
// An empty baseURL selects DefaultCloudinaryURL.
func NewCloudinaryUploader(baseURL, cloudName, uploadPreset string, httpClient *http.Client) (*CloudinaryUploader, error) {
	if cloudName == "" {
		return nil, errors.New("[profile.NewCloudinaryUploader] cloud name is required")
	}
	if uploadPreset == "" {
		return nil, errors.New("[profile.NewCloudinaryUploader] upload preset is required")
	}
	if baseURL == "" {
		baseURL = DefaultCloudinaryURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &CloudinaryUploader{
		baseURL:      strings.TrimRight(baseURL, "/"),
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient:   httpClient,
	}, nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, picture Picture) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", picture.Filename)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(picture.Data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := form.WriteField("upload_preset", u.uploadPreset); err != nil {
		return "", fmt.Errorf("write upload_preset: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload picture: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	var decoded cloudinaryResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decoded.Error.Message != "" {
			return "", fmt.Errorf("upload picture: %s", decoded.Error.Message)
		}
		return "", fmt.Errorf("upload picture: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("could not decode upload response: %w", decodeErr)
	}
	if decoded.SecureURL == "" {
		return "", apperrors.ErrNoSecureURL
	}
	return decoded.SecureURL, nil
}
