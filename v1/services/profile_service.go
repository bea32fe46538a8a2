package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/shared/audit"
	"github.com/akpsi-umich/portal-backend/v1/models"
)

const targetMember = "MEMBER_RECORD"

// ProfileService handles onboarding and self-service profile edits
type ProfileService struct {
	members *MemberService
	auditor audit.Auditor
}

// NewProfileService creates a new profile service
func NewProfileService(members *MemberService, auditor audit.Auditor) *ProfileService {
	if auditor == nil {
		auditor = audit.NoopAuditor{}
	}
	return &ProfileService{members: members, auditor: auditor}
}

// GetProfile returns the principal's record
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.MemberRecord, error) {
	return s.members.GetByUserID(ctx, userID)
}

// CompleteOnboarding records the required profile fields. It creates the record when
// none exists and does nothing when full_name is already set.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, principal idp.Principal, req models.OnboardingRequest) (*models.ActionResult, error) {
	fullName := strings.TrimSpace(req.FullName)
	major := strings.TrimSpace(req.Major)
	yearText := strings.TrimSpace(req.GraduationYear)
	if fullName == "" || yearText == "" || major == "" {
		return nil, errors.ValidationError("Full name, graduation year, and major are required")
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return nil, errors.ValidationError("Invalid graduation year")
	}

	record, err := s.members.EnsureRecord(ctx, principal)
	if err != nil {
		return nil, err
	}
	if record.HasCompletedOnboarding() {
		slog.Info("Onboarding already complete", "user_id", principal.ID)
		return &models.ActionResult{Success: true, Redirect: models.PageDashboard.Path(), Record: record}, nil
	}

	patch := map[string]interface{}{
		"full_name":               fullName,
		"graduation_year":         year,
		"major":                   major,
		"major2":                  optionalValue(req.Major2),
		"minor":                   optionalValue(req.Minor),
		"linkedin_url":            optionalValue(req.LinkedInURL),
		models.ColumnHeadshotPath: optionalValue(req.HeadshotPath),
	}
	err = s.members.Update(ctx, record.ID, UpdateOnboarding, patch)
	audit.Record(ctx, s.auditor, audit.ActionOnboard, principal.ID, targetMember, record.ID, err, nil)
	monitoring.RecordBusinessEvent(ctx, audit.ActionOnboard, err == nil)
	if err != nil {
		slog.Error("Failed to complete onboarding", "user_id", principal.ID, "error", err)
		return nil, err
	}

	updated, err := s.members.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Onboarding completed", "user_id", principal.ID, "record_id", record.ID)
	return &models.ActionResult{Success: true, Redirect: models.PageDashboard.Path(), Record: updated}, nil
}

// UpdateProfile writes the owner-editable fields. Absent fields are left unchanged,
// blank fields are cleared.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.ActionResult, error) {
	record, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !record.HasCompletedOnboarding() {
		return nil, errors.GuardError(errors.CodeOnboardingIncomplete, "Complete onboarding before editing your profile")
	}

	patch := map[string]interface{}{}
	if req.GraduationYear != nil {
		if value := strings.TrimSpace(*req.GraduationYear); value == "" {
			patch["graduation_year"] = nil
		} else {
			year, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.ValidationError("Invalid graduation year")
			}
			patch["graduation_year"] = year
		}
	}
	if req.Major != nil {
		patch["major"] = optionalValue(req.Major)
	}
	if req.Major2 != nil {
		patch["major2"] = optionalValue(req.Major2)
	}
	if req.Minor != nil {
		patch["minor"] = optionalValue(req.Minor)
	}
	if req.LinkedInURL != nil {
		patch["linkedin_url"] = optionalValue(req.LinkedInURL)
	}
	if len(patch) == 0 {
		return &models.ActionResult{Success: true, Redirect: models.PageProfile.Path(), Record: record}, nil
	}

	err = s.members.Update(ctx, record.ID, UpdateProfileEdit, patch)
	audit.Record(ctx, s.auditor, audit.ActionProfileUpdate, userID, targetMember, record.ID, err, map[string]interface{}{
		"fields": len(patch),
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.members.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return &models.ActionResult{Success: true, Redirect: models.PageProfile.Path(), Record: updated}, nil
}

// optionalValue maps a missing or blank value to NULL
func optionalValue(value *string) interface{} {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
