// Package storage keeps member headshots and résumés in an object store.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/google/uuid"
)

// Kind is the category of a stored file
type Kind string

const (
	KindHeadshot Kind = "headshot"
	KindResume   Kind = "resume"
)

// Backend is the raw object API the store is built on
type Backend interface {
	Upload(ctx context.Context, bucket, name, contentType string, data []byte) error
	Delete(ctx context.Context, bucket, name string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// ObjectStore stores files per principal and kind
type ObjectStore interface {
	Put(ctx context.Context, principalID string, kind Kind, file File) (Locator, error)
	Delete(ctx context.Context, locator Locator) error
	List(ctx context.Context, principalID string, kind Kind) ([]Locator, error)
	Resolve(kind Kind, rawURL string) (Locator, error)
}

// File is an uploaded file as received from the client
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Locator is a retrievable reference to a stored object. URL carries a freshness token.
type Locator struct {
	Kind   Kind   `json:"kind"`
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

// Config holds the bucket layout
type Config struct {
	HeadshotBucket string
	ResumeBucket   string
	PublicBaseURL  string
}

var resumeTypes = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

// Store implements ObjectStore on top of a Backend
type Store struct {
	backend Backend
	config  Config
	now     func() time.Time
}

// NewStore creates a new object store
func NewStore(backend Backend, config Config) *Store {
	return &Store{backend: backend, config: config, now: time.Now}
}

func (s *Store) bucketFor(kind Kind) (string, error) {
	switch kind {
	case KindHeadshot:
		return s.config.HeadshotBucket, nil
	case KindResume:
		return s.config.ResumeBucket, nil
	}
	return "", fmt.Errorf("unknown file kind %q", kind)
}

// Validate checks type and size limits for the kind
func Validate(kind Kind, file File) error {
	contentType := mediaType(file.ContentType)
	switch kind {
	case KindHeadshot:
		if !strings.HasPrefix(contentType, "image/") {
			return errors.NewAPIError(errors.ErrorTypeValidation, errors.CodeFileBadType,
				"Please upload an image file", http.StatusBadRequest)
		}
		if len(file.Data) > models.MaxHeadshotBytes {
			return errors.NewAPIError(errors.ErrorTypeValidation, errors.CodeFileTooLarge,
				"File size must be less than 5MB", http.StatusBadRequest)
		}
	case KindResume:
		if _, ok := resumeTypes[contentType]; !ok {
			return errors.NewAPIError(errors.ErrorTypeValidation, errors.CodeFileBadType,
				"Please upload a PDF or Word document", http.StatusBadRequest)
		}
		if len(file.Data) > models.MaxResumeBytes {
			return errors.NewAPIError(errors.ErrorTypeValidation, errors.CodeFileTooLarge,
				"File size must be less than 10MB", http.StatusBadRequest)
		}
	default:
		return errors.ValidationError(fmt.Sprintf("Unknown file kind: %s", kind))
	}
	if len(file.Data) == 0 {
		return errors.ValidationError("File is empty")
	}
	return nil
}

// Put replaces every prior file of the kind for the principal with the new one
func (s *Store) Put(ctx context.Context, principalID string, kind Kind, file File) (Locator, error) {
	if err := Validate(kind, file); err != nil {
		return Locator{}, err
	}
	bucket, err := s.bucketFor(kind)
	if err != nil {
		return Locator{}, errors.ValidationError(err.Error())
	}

	prior, err := s.List(ctx, principalID, kind)
	if err != nil {
		return Locator{}, err
	}
	for _, old := range prior {
		if err := s.Delete(ctx, old); err != nil {
			return Locator{}, err
		}
	}

	token, name := s.objectName(principalID, kind, file, prior)

	start := s.now()
	err = s.backend.Upload(ctx, bucket, name, mediaType(file.ContentType), file.Data)
	monitoring.RecordExternalCall(ctx, "object_store", "upload", time.Since(start), err)
	if err != nil {
		return Locator{}, errors.StorageError("upload", err)
	}

	return s.locator(kind, bucket, name, token), nil
}

// Delete removes a stored object
func (s *Store) Delete(ctx context.Context, locator Locator) error {
	start := s.now()
	err := s.backend.Delete(ctx, locator.Bucket, locator.Path)
	monitoring.RecordExternalCall(ctx, "object_store", "delete", time.Since(start), err)
	if err != nil {
		return errors.StorageError("delete", err)
	}
	return nil
}

// List returns the stored files of the kind for the principal
func (s *Store) List(ctx context.Context, principalID string, kind Kind) ([]Locator, error) {
	bucket, err := s.bucketFor(kind)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	start := s.now()
	names, err := s.backend.List(ctx, bucket, principalID+"/")
	monitoring.RecordExternalCall(ctx, "object_store", "list", time.Since(start), err)
	if err != nil {
		return nil, errors.StorageError("list", err)
	}

	prefix := principalID + "/" + string(kind) + "_"
	var locators []Locator
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		locators = append(locators, s.locator(kind, bucket, name, ""))
	}
	return locators, nil
}

// Resolve turns a public URL previously returned by Put back into a locator
func (s *Store) Resolve(kind Kind, rawURL string) (Locator, error) {
	bucket, err := s.bucketFor(kind)
	if err != nil {
		return Locator{}, errors.ValidationError(err.Error())
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Locator{}, errors.ValidationError("Invalid file URL")
	}

	marker := "/" + bucket + "/"
	idx := strings.Index(parsed.Path, marker)
	if idx < 0 {
		return Locator{}, errors.ValidationError("File URL does not belong to the " + string(kind) + " bucket")
	}
	name := strings.TrimPrefix(parsed.Path[idx+len(marker):], "/")
	if name == "" || path.Clean(name) != name || strings.HasPrefix(name, "..") {
		return Locator{}, errors.ValidationError("Invalid file URL")
	}
	return s.locator(kind, bucket, name, parsed.Query().Get("v")), nil
}

func (s *Store) locator(kind Kind, bucket, name, token string) Locator {
	u := strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + bucket + "/" + name
	if token != "" {
		u += "?v=" + url.QueryEscape(token)
	}
	return Locator{Kind: kind, Bucket: bucket, Path: name, URL: u}
}

// objectName picks a name whose token differs from every file it replaces
func (s *Store) objectName(principalID string, kind Kind, file File, prior []Locator) (string, string) {
	taken := make(map[string]bool, len(prior))
	for _, old := range prior {
		taken[old.Path] = true
	}
	ext := extension(kind, file)
	millis := s.now().UnixMilli()
	for {
		token := uuid.New().String()
		if kind == KindResume {
			token = strconv.FormatInt(millis, 10)
			millis++
		}
		name := fmt.Sprintf("%s/%s_%s.%s", principalID, kind, token, ext)
		if !taken[name] {
			return token, name
		}
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// extension comes from the original file name, falling back to the MIME type
func extension(kind Kind, file File) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(file.Name)), "."); ext != "" {
		return ext
	}
	contentType := mediaType(file.ContentType)
	if kind == KindResume {
		if ext, ok := resumeTypes[contentType]; ok {
			return ext
		}
	}
	if sub := strings.TrimPrefix(contentType, "image/"); sub != contentType && sub != "" {
		if sub == "jpeg" {
			return "jpg"
		}
		return strings.TrimSuffix(sub, "+xml")
	}
	return "bin"
}
