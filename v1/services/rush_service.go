package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/shared/audit"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/rush"
)

// RushService performs the guarded rush status transitions
type RushService struct {
	members *MemberService
	auditor audit.Auditor
}

// NewRushService creates a new rush service
func NewRushService(members *MemberService, auditor audit.Auditor) *RushService {
	if auditor == nil {
		auditor = audit.NoopAuditor{}
	}
	return &RushService{members: members, auditor: auditor}
}

// Submit stores the intake form and moves the rushee to APPLICATION_SUBMITTED.
// The status guard runs first, then validation; nothing is written on either failure.
func (s *RushService) Submit(ctx context.Context, userID string, req models.RushApplicationRequest) (*models.ActionResult, error) {
	record, err := s.onboardedRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Status().HasSubmitted() {
		slog.Warn("Rejected duplicate application", "user_id", userID, "status", record.Status())
		return nil, errors.GuardError(errors.CodeAlreadySubmitted, "Application already submitted")
	}
	if role, _ := record.ParsedRole(); !role.HasPermission(models.PermissionSubmitApplication) {
		return nil, errors.ForbiddenError("Only rushees can submit an application")
	}

	app, err := rush.ValidateApplication(req)
	if err != nil {
		return nil, err
	}

	patch := applicationPatch(app)
	patch[models.ColumnRusheeStatus] = string(models.StatusSubmitted)

	ok, err := s.members.UpdateIfStatus(ctx, record.ID, UpdateRushSubmission, []models.RusheeStatus{models.StatusNotSubmitted}, patch)
	if err == nil && !ok {
		err = errors.GuardError(errors.CodeAlreadySubmitted, "Application already submitted")
	}
	audit.Record(ctx, s.auditor, audit.ActionRushSubmit, userID, targetMember, record.ID, err, map[string]interface{}{
		"college": deref(app.College),
	})
	monitoring.RecordBusinessEvent(ctx, audit.ActionRushSubmit, err == nil)
	if err != nil {
		return nil, err
	}

	updated, err := s.members.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Rush application submitted", "user_id", userID, "record_id", record.ID)
	return &models.ActionResult{Success: true, Redirect: rush.PageFor(models.StatusSubmitted).Path(), Record: updated}, nil
}

// AcceptBid moves a rushee from BID to BID_ACCEPTED. The write is conditioned on the
// stored status so that only one of several concurrent calls succeeds.
func (s *RushService) AcceptBid(ctx context.Context, userID string) (*models.ActionResult, error) {
	record, err := s.onboardedRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Status() != models.StatusBid {
		slog.Warn("Rejected bid acceptance", "user_id", userID, "status", record.Status())
		return nil, errors.GuardError(errors.CodeNoBidToAccept, "No bid to accept")
	}

	ok, err := s.members.UpdateIfStatus(ctx, record.ID, UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid}, map[string]interface{}{
		models.ColumnRusheeStatus: string(models.StatusBidAccepted),
	})
	if err == nil && !ok {
		err = errors.GuardError(errors.CodeNoBidToAccept, "No bid to accept")
	}
	audit.Record(ctx, s.auditor, audit.ActionBidAccept, userID, targetMember, record.ID, err, nil)
	monitoring.RecordBusinessEvent(ctx, audit.ActionBidAccept, err == nil)
	if err != nil {
		return nil, err
	}

	updated, err := s.members.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Bid accepted", "user_id", userID, "record_id", record.ID)
	return &models.ActionResult{Success: true, Redirect: rush.PageFor(models.StatusBidAccepted).Path(), Record: updated}, nil
}

// Advance is the privileged forward or cut move performed from the tracker
func (s *RushService) Advance(ctx context.Context, actorUserID string, req models.AdvanceRusheeRequest) (*models.ActionResult, error) {
	actor, err := s.onboardedRecord(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	role, ok := actor.ParsedRole()
	if !ok || !role.HasPermission(models.PermissionAdvanceRushee) {
		return nil, errors.ForbiddenError("Only eboard members and directors can advance rushees")
	}
	if req.RecordID == "" {
		return nil, errors.ValidationError("record_id is required")
	}

	target, err := s.members.GetByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if targetRole, _ := target.ParsedRole(); targetRole != models.RoleRushee {
		return nil, errors.GuardError(errors.CodeIllegalTransition, "Only rushees have a rush status")
	}

	from := target.Status()
	to := models.NormalizeRusheeStatus((*string)(&req.To))
	transition, legal := rush.TransitionFor(from, to)
	if !legal || !transition.IsPrivileged() {
		return nil, errors.GuardError(errors.CodeIllegalTransition, fmt.Sprintf("Cannot move a rushee from %s to %s", from, to))
	}

	ok, err = s.members.UpdateIfStatus(ctx, target.ID, UpdateAdvancement, []models.RusheeStatus{from}, map[string]interface{}{
		models.ColumnRusheeStatus: string(to),
	})
	if err == nil && !ok {
		err = errors.GuardError(errors.CodeIllegalTransition, "Rushee status changed, reload and try again")
	}
	audit.Record(ctx, s.auditor, audit.ActionRusheeAdvance, actorUserID, targetMember, target.ID, err, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	monitoring.RecordBusinessEvent(ctx, audit.ActionRusheeAdvance, err == nil)
	if err != nil {
		return nil, err
	}

	updated, err := s.members.GetByID(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Rushee advanced", "actor_id", actorUserID, "record_id", target.ID, "from", from, "to", to)
	return &models.ActionResult{Success: true, Redirect: models.PageTracker.Path(), Record: updated}, nil
}

// onboardedRecord loads the caller's record. A missing record or one without a
// full_name is rejected before any role or status check.
func (s *RushService) onboardedRecord(ctx context.Context, userID string) (*models.MemberRecord, error) {
	record, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		if errors.HasCode(err, errors.CodeRecordNotFound) {
			return nil, errors.GuardError(errors.CodeOnboardingIncomplete, "Complete onboarding first")
		}
		return nil, err
	}
	if !record.HasCompletedOnboarding() {
		slog.Warn("Rejected rush action before onboarding", "user_id", userID)
		return nil, errors.GuardError(errors.CodeOnboardingIncomplete, "Complete onboarding first")
	}
	return record, nil
}

func applicationPatch(app *models.RushApplication) map[string]interface{} {
	return map[string]interface{}{
		"rushee_uniqname":           nullable(app.Uniqname),
		"rushee_academic_year":      nullable(app.AcademicYear),
		"rushee_college":            nullable(app.College),
		"rushee_in_ross":            nullable(app.InRoss),
		"rushee_phone_number":       nullable(app.PhoneNumber),
		"rushee_address":            nullable(app.Address),
		"rushee_gender":             nullable(app.Gender),
		"rushee_previously_rushed":  nullable(app.PreviouslyRushed),
		"rushee_high_school":        nullable(app.HighSchool),
		"rushee_hs_city":            nullable(app.HighSchoolCity),
		"rushee_hs_state":           nullable(app.HighSchoolState),
		"rushee_hs_grad_year":       nullable(app.HighSchoolGradYear),
		"rushee_major":              nullable(app.RushMajor),
		"rushee_major2":             nullable(app.RushMajor2),
		"rushee_minor":              nullable(app.RushMinor),
		"rushee_major3andabove":     nullable(app.Major3AndAbove),
		"rushee_minor2andabove":     nullable(app.Minor2AndAbove),
		"rushee_honors":             nullable(app.Honors),
		"rushee_business_interest":  nullable(app.BusinessInterest),
		"rushee_accomodations":      nullable(app.Accommodations),
		"rushee_why_akpsi_response": nullable(app.WhyResponse),
		"rushee_q1_response":        nullable(app.Q1Response),
		"rushee_q2_response":        nullable(app.Q2Response),
		"rushee_resume_url":         nullable(app.ResumeURL),
	}
}

// nullable unwraps an optional field, mapping nil to SQL NULL
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
