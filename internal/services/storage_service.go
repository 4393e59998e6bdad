package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// StorageService keeps session attachments outside the database. Only the
// returned object URL is persisted.
type StorageService interface {
	UploadFile(ctx context.Context, file io.Reader, filename string, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	GetSignedURL(ctx context.Context, fileURL string) (string, error)
}

const (
	signedURLTTLSeconds = 3600
	errorBodyLimit      = 2048
)

var errForeignObject = errors.New("file url does not belong to configured bucket")

// SupabaseStorageService talks to the Supabase Storage REST API with the
// project's service key.
type SupabaseStorageService struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorageService(baseURL, bucket, serviceKey string) *SupabaseStorageService {
	return &SupabaseStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStorageService) UploadFile(ctx context.Context, file io.Reader, filename string, folder string) (string, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}

	key := path.Join(strings.Trim(folder, "/"), path.Base("/"+filename))
	resp, err := s.send(ctx, http.MethodPost, s.objectURL(key), content, http.DetectContentType(content), map[string]string{
		"x-upsert": "true",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	resp.Body.Close()

	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + key, nil
}

// DeleteFile treats an object that is already gone as deleted.
func (s *SupabaseStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	key, err := s.objectKey(fileURL)
	if err != nil {
		return err
	}

	resp, err := s.send(ctx, http.MethodDelete, s.objectURL(key), nil, "", nil)
	var statusErr *storageStatusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	resp.Body.Close()
	return nil
}

func (s *SupabaseStorageService) GetSignedURL(ctx context.Context, fileURL string) (string, error) {
	key, err := s.objectKey(fileURL)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]int{"expiresIn": signedURLTTLSeconds})
	if err != nil {
		return "", err
	}

	signURL := s.baseURL + "/storage/v1/object/sign/" + s.bucket + "/" + key
	resp, err := s.send(ctx, http.MethodPost, signURL, payload, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	defer resp.Body.Close()

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("decode signed url: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign %s: empty signed url", key)
	}
	return s.baseURL + "/storage/v1" + signed.SignedURL, nil
}

func (s *SupabaseStorageService) objectURL(key string) string {
	return s.baseURL + "/storage/v1/object/" + s.bucket + "/" + key
}

// objectKey accepts both the public and the authenticated object URL forms.
func (s *SupabaseStorageService) objectKey(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	for _, prefix := range []string{
		"/storage/v1/object/public/" + s.bucket + "/",
		"/storage/v1/object/" + s.bucket + "/",
	} {
		if key, ok := strings.CutPrefix(parsed.Path, prefix); ok && key != "" {
			return key, nil
		}
	}
	return "", errForeignObject
}

type storageStatusError struct {
	code int
	body string
}

func (e *storageStatusError) Error() string {
	return fmt.Sprintf("storage responded %d: %s", e.code, e.body)
}

// send issues an authenticated request. A non-2xx reply is returned as a
// *storageStatusError with the body already drained.
func (s *SupabaseStorageService) send(
	ctx context.Context,
	method string,
	target string,
	body []byte,
	contentType string,
	headers map[string]string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &storageStatusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
	return resp, nil
}
