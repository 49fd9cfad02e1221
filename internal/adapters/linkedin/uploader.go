package linkedin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"postpilot/internal/core/domain"
)

// Upload recipes declared at registration. Images and documents go
// through different processing pipelines on the platform side.
const (
	recipeImage    = "urn:li:digitalmediaRecipe:feedshare-image"
	recipeDocument = "urn:li:digitalmediaRecipe:feedshare-document"
)

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

const pdfContentType = "application/pdf"

// Uploader implements ports.MediaUploader with the platform's two-phase
// protocol: register an upload intent for a recipe, then transfer the
// raw bytes to the returned endpoint. No retries happen here; failures
// propagate to the caller, which decides the submission's fate.
type Uploader struct {
	auth    *Auth
	baseURL string
	client  *http.Client
}

// NewUploader builds an Uploader sharing the Auth's endpoint configuration.
func NewUploader(auth *Auth, timeout time.Duration) *Uploader {
	return &Uploader{
		auth:    auth,
		baseURL: auth.baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Upload registers and transfers the local file, returning the asset URN.
func (u *Uploader) Upload(ctx context.Context, localPath string, kind domain.PostKind) (domain.AssetHandle, error) {
	contentType, recipe, err := mediaType(localPath, kind)
	if err != nil {
		return "", err
	}

	uploadURL, asset, err := u.register(ctx, recipe)
	if err != nil {
		return "", &domain.UploadError{Phase: domain.UploadPhaseRegister, Err: err}
	}

	if err := u.transfer(ctx, uploadURL, localPath, contentType); err != nil {
		return "", &domain.UploadError{Phase: domain.UploadPhaseTransfer, Err: err}
	}

	return domain.AssetHandle(asset), nil
}

// mediaType maps the file extension to a content type and the recipe for
// the declared kind. Anything outside the supported set is rejected.
func mediaType(localPath string, kind domain.PostKind) (contentType, recipe string, err error) {
	ext := strings.ToLower(filepath.Ext(localPath))

	switch kind {
	case domain.KindImage:
		ct, ok := imageContentTypes[ext]
		if !ok {
			return "", "", fmt.Errorf("%w: %s is not a supported image", domain.ErrUnsupportedMediaType, ext)
		}
		return ct, recipeImage, nil
	case domain.KindCarousel:
		if ext != ".pdf" {
			return "", "", fmt.Errorf("%w: carousel media must be a PDF, got %s", domain.ErrUnsupportedMediaType, ext)
		}
		return pdfContentType, recipeDocument, nil
	default:
		return "", "", fmt.Errorf("%w: kind %s carries no media", domain.ErrUnsupportedMediaType, kind)
	}
}

// register declares the upload intent and returns the write-once upload
// endpoint plus the asset URN.
func (u *Uploader) register(ctx context.Context, recipe string) (uploadURL, asset string, err error) {
	author, err := u.auth.AuthorURN(ctx)
	if err != nil {
		return "", "", err
	}

	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{recipe},
			"owner":   author,
			"serviceRelationships": []map[string]any{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	headers, err := u.auth.Headers()
	if err != nil {
		return "", "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", "", &domain.TransportError{Op: "upload registration", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", &domain.PlatformError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode registration response: %w", err)
	}

	mech, ok := out.Value.UploadMechanism["com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"]
	if !ok || mech.UploadURL == "" || out.Value.Asset == "" {
		return "", "", fmt.Errorf("registration response missing upload mechanism")
	}
	return mech.UploadURL, out.Value.Asset, nil
}

// transfer PUTs the raw file bytes to the upload endpoint.
func (u *Uploader) transfer(ctx context.Context, uploadURL, localPath, contentType string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read media file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+u.auth.accessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "upload transfer", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.PlatformError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
