package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

const (
	cloudinaryBaseURL       = "https://api.cloudinary.com"
	defaultUploadTimeout    = 60 * time.Second
	placeholderCloudName    = "your_cloudinary_cloud_name"
	placeholderUploadPreset = "your_upload_preset"
)

// CloudinaryUploadResponse is the subset of the upload API response we keep.
type CloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// CloudinaryErrorResponse is returned by the upload API on failure.
type CloudinaryErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CloudinaryStore uploads through an unsigned upload preset.
type CloudinaryStore struct {
	cloudName    string
	uploadPreset string
	baseURL      string
	client       *http.Client
}

type CloudinaryOption func(*CloudinaryStore)

func WithBaseURL(baseURL string) CloudinaryOption {
	return func(s *CloudinaryStore) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithTimeout(timeout time.Duration) CloudinaryOption {
	return func(s *CloudinaryStore) { s.client.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) CloudinaryOption {
	return func(s *CloudinaryStore) { s.client = client }
}

func NewCloudinaryStore(cloudName, uploadPreset string, opts ...CloudinaryOption) *CloudinaryStore {
	s := &CloudinaryStore{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		baseURL:      cloudinaryBaseURL,
		client:       &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports which settings are missing or still hold the sample values.
func (s *CloudinaryStore) Configured() (bool, []string) {
	var missing []string
	if s.cloudName == "" || s.cloudName == placeholderCloudName {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if s.uploadPreset == "" || s.uploadPreset == placeholderUploadPreset {
		missing = append(missing, "CLOUDINARY_UPLOAD_PRESET")
	}
	return len(missing) == 0, missing
}

// Upload posts file to <base>/v1_1/<cloud>/image/upload as multipart form data
// with the fields "file" and "upload_preset". The body is streamed.
func (s *CloudinaryStore) Upload(ctx context.Context, file ImageFile) (UploadedImage, error) {
	if ok, missing := s.Configured(); !ok {
		return UploadedImage{}, errs.NewUploadRefusedError("Cloudinary", missing...)
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(form, s.uploadPreset, file))
	}()

	url := fmt.Sprintf("%s/v1_1/%s/image/upload", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return UploadedImage{}, errs.NewUploadError("Cloudinary", 0, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return UploadedImage{}, errs.NewUploadError("Cloudinary", 0, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadedImage{}, errs.NewUploadError("Cloudinary", resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp CloudinaryErrorResponse
		msg := string(bodyBytes)
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		log.Error().Int("status", resp.StatusCode).Str("message", msg).Msg("Cloudinary upload rejected")
		return UploadedImage{}, errs.NewUploadError("Cloudinary", resp.StatusCode, fmt.Errorf("%s", msg))
	}

	var out CloudinaryUploadResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return UploadedImage{}, errs.NewUploadError("Cloudinary", resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.SecureURL == "" || out.PublicID == "" {
		return UploadedImage{}, errs.NewUploadError("Cloudinary", resp.StatusCode, fmt.Errorf("response missing secure_url or public_id"))
	}

	log.Info().Str("publicID", out.PublicID).Msg("Image uploaded to Cloudinary")
	return UploadedImage{URL: out.SecureURL, PublicID: out.PublicID}, nil
}

func writeUploadForm(form *multipart.Writer, preset string, file ImageFile) error {
	name := file.Name
	if name == "" {
		name = "upload"
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := form.WriteField("upload_preset", preset); err != nil {
		return err
	}
	return form.Close()
}
