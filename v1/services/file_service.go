package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/shared/audit"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/storage"
)

const targetFile = "FILE"

// FileResult is the typed outcome of a file operation
type FileResult struct {
	Success bool             `json:"success"`
	Locator *storage.Locator `json:"locator,omitempty"`
}

// FileService couples object storage with the record fields that point at it
type FileService struct {
	members *MemberService
	store   storage.ObjectStore
	auditor audit.Auditor
}

// NewFileService creates a new file service
func NewFileService(members *MemberService, store storage.ObjectStore, auditor audit.Auditor) *FileService {
	if auditor == nil {
		auditor = audit.NoopAuditor{}
	}
	return &FileService{members: members, store: store, auditor: auditor}
}

// UploadHeadshot replaces the principal's headshot and points headshot_path at it.
// Headshots can be uploaded during onboarding, so the record is created if needed.
func (s *FileService) UploadHeadshot(ctx context.Context, principal idp.Principal, file storage.File) (*FileResult, error) {
	if err := storage.Validate(storage.KindHeadshot, file); err != nil {
		return nil, err
	}
	record, err := s.members.EnsureRecord(ctx, principal)
	if err != nil {
		return nil, err
	}

	locator, err := s.store.Put(ctx, principal.ID, storage.KindHeadshot, file)
	if err != nil {
		s.recordFile(ctx, audit.ActionFileUpload, principal.ID, storage.KindHeadshot, "", err)
		return nil, err
	}

	err = s.members.Update(ctx, record.ID, UpdateHeadshot, map[string]interface{}{
		models.ColumnHeadshotPath: locator.URL,
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, locator); delErr != nil {
			slog.Error("Failed to remove headshot after record update failed", "user_id", principal.ID, "path", locator.Path, "error", delErr)
		}
		s.recordFile(ctx, audit.ActionFileUpload, principal.ID, storage.KindHeadshot, locator.Path, err)
		return nil, err
	}

	s.recordFile(ctx, audit.ActionFileUpload, principal.ID, storage.KindHeadshot, locator.Path, nil)
	return &FileResult{Success: true, Locator: &locator}, nil
}

// DeleteHeadshot removes the stored headshot and clears headshot_path as one operation:
// the cleared field is rolled back when the object cannot be deleted.
func (s *FileService) DeleteHeadshot(ctx context.Context, userID, rawURL string) (*FileResult, error) {
	record, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.HeadshotPath == nil || *record.HeadshotPath == "" {
		return nil, errors.NotFoundError("Headshot")
	}
	if rawURL == "" {
		rawURL = *record.HeadshotPath
	}

	locator, err := s.ownedLocator(storage.KindHeadshot, userID, rawURL)
	if err != nil {
		return nil, err
	}
	current, err := s.store.Resolve(storage.KindHeadshot, *record.HeadshotPath)
	if err != nil || current.Path != locator.Path {
		return nil, errors.ValidationError("Headshot is not the current one")
	}

	err = s.members.Transaction(ctx, func(tx *MemberService) error {
		if err := tx.Update(ctx, record.ID, UpdateHeadshot, map[string]interface{}{models.ColumnHeadshotPath: nil}); err != nil {
			return err
		}
		return s.store.Delete(ctx, locator)
	})
	s.recordFile(ctx, audit.ActionFileDelete, userID, storage.KindHeadshot, locator.Path, err)
	if err != nil {
		slog.Error("Failed to delete headshot", "user_id", userID, "path", locator.Path, "error", err)
		return nil, err
	}
	return &FileResult{Success: true}, nil
}

// UploadResume stores a résumé for an applicant who has not submitted yet.
// The returned URL is sent back with the application as rushee_resume_url.
func (s *FileService) UploadResume(ctx context.Context, userID string, file storage.File) (*FileResult, error) {
	if err := s.requireOpenApplication(ctx, userID); err != nil {
		return nil, err
	}

	locator, err := s.store.Put(ctx, userID, storage.KindResume, file)
	s.recordFile(ctx, audit.ActionFileUpload, userID, storage.KindResume, locator.Path, err)
	if err != nil {
		return nil, err
	}
	return &FileResult{Success: true, Locator: &locator}, nil
}

// DeleteResume removes one of the applicant's uploaded résumés
func (s *FileService) DeleteResume(ctx context.Context, userID, rawURL string) (*FileResult, error) {
	if err := s.requireOpenApplication(ctx, userID); err != nil {
		return nil, err
	}
	locator, err := s.ownedLocator(storage.KindResume, userID, rawURL)
	if err != nil {
		return nil, err
	}

	err = s.store.Delete(ctx, locator)
	s.recordFile(ctx, audit.ActionFileDelete, userID, storage.KindResume, locator.Path, err)
	if err != nil {
		return nil, err
	}
	return &FileResult{Success: true}, nil
}

// ListFiles returns the principal's stored files of a kind
func (s *FileService) ListFiles(ctx context.Context, userID string, kind storage.Kind) ([]storage.Locator, error) {
	return s.store.List(ctx, userID, kind)
}

func (s *FileService) requireOpenApplication(ctx context.Context, userID string) error {
	record, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if record.Status().HasSubmitted() {
		return errors.GuardError(errors.CodeAlreadySubmitted, "Application already submitted")
	}
	return nil
}

func (s *FileService) ownedLocator(kind storage.Kind, userID, rawURL string) (storage.Locator, error) {
	if strings.TrimSpace(rawURL) == "" {
		return storage.Locator{}, errors.ValidationError("File URL is required")
	}
	locator, err := s.store.Resolve(kind, rawURL)
	if err != nil {
		return storage.Locator{}, err
	}
	if !strings.HasPrefix(locator.Path, userID+"/") {
		return storage.Locator{}, errors.ForbiddenError("File belongs to another member")
	}
	return locator, nil
}

func (s *FileService) recordFile(ctx context.Context, action, userID string, kind storage.Kind, path string, err error) {
	audit.Record(ctx, s.auditor, action, userID, targetFile, path, err, map[string]interface{}{
		"kind": string(kind),
	})
}
