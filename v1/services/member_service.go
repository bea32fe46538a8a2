package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"gorm.io/gorm"
)

// UpdateContext names the caller of an update and selects its column allow-list
type UpdateContext string

const (
	UpdateProfileEdit    UpdateContext = "profile_edit"
	UpdateOnboarding     UpdateContext = "onboarding"
	UpdateRushSubmission UpdateContext = "rush_submission"
	UpdateBidAcceptance  UpdateContext = "bid_acceptance"
	UpdateAdvancement    UpdateContext = "advancement"
	UpdateHeadshot       UpdateContext = "headshot"
)

var profileColumns = []string{"graduation_year", "major", "major2", "minor", "linkedin_url"}

var rushIntakeColumns = []string{
	"rushee_uniqname", "rushee_academic_year", "rushee_college", "rushee_in_ross",
	"rushee_phone_number", "rushee_address", "rushee_gender", "rushee_previously_rushed",
	"rushee_high_school", "rushee_hs_city", "rushee_hs_state", "rushee_hs_grad_year",
	"rushee_major", "rushee_major2", "rushee_minor", "rushee_major3andabove", "rushee_minor2andabove",
	"rushee_honors", "rushee_business_interest", "rushee_accomodations",
	"rushee_why_akpsi_response", "rushee_q1_response", "rushee_q2_response", "rushee_resume_url",
}

var allowedColumns = map[UpdateContext][]string{
	UpdateProfileEdit:    profileColumns,
	UpdateOnboarding:     append([]string{"full_name", models.ColumnHeadshotPath}, profileColumns...),
	UpdateRushSubmission: append([]string{models.ColumnRusheeStatus}, rushIntakeColumns...),
	UpdateBidAcceptance:  {models.ColumnRusheeStatus},
	UpdateAdvancement:    {models.ColumnRusheeStatus},
	UpdateHeadshot:       {models.ColumnHeadshotPath},
}

// MemberFilter selects records for ListByFilter. Zero values match everything.
type MemberFilter struct {
	Role     models.Role
	Statuses []models.RusheeStatus
}

// MemberService is the member record store
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// GetByUserID returns the record of a principal
func (s *MemberService) GetByUserID(ctx context.Context, userID string) (*models.MemberRecord, error) {
	return s.first(ctx, "user_id = ?", userID)
}

// GetByID returns a record by its primary key
func (s *MemberService) GetByID(ctx context.Context, id string) (*models.MemberRecord, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *MemberService) first(ctx context.Context, query string, arg string) (*models.MemberRecord, error) {
	start := time.Now()
	var record models.MemberRecord
	err := s.db.WithContext(ctx).Where(query, arg).First(&record).Error
	monitoring.RecordDBLatency(ctx, "member_get", time.Since(start))
	if err != nil {
		return nil, errors.HandleDatabaseError(err, "get member record")
	}
	return &record, nil
}

// Create inserts a new record. A second record for the same user_id is a conflict.
func (s *MemberService) Create(ctx context.Context, record *models.MemberRecord) (*models.MemberRecord, error) {
	if record.UserID == "" {
		return nil, errors.ValidationError("user_id is required")
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "create member record")
	}
	slog.Info("Member record created", "record_id", record.ID, "user_id", record.UserID)
	return record, nil
}

// EnsureRecord reads the principal's record, creating it when absent. A concurrent
// insert for the same user_id is resolved by reading the winner's row.
func (s *MemberService) EnsureRecord(ctx context.Context, principal idp.Principal) (*models.MemberRecord, error) {
	record, err := s.GetByUserID(ctx, principal.ID)
	if err == nil {
		return record, nil
	}
	if !errors.HasCode(err, errors.CodeRecordNotFound) {
		return nil, err
	}

	record, createErr := s.Create(ctx, &models.MemberRecord{
		UserID: principal.ID,
		Email:  principal.Email,
		Role:   string(models.RoleRushee),
	})
	if createErr == nil {
		return record, nil
	}

	existing, err := s.GetByUserID(ctx, principal.ID)
	if err != nil {
		return nil, createErr
	}
	slog.Info("Member record already created concurrently", "user_id", principal.ID)
	return existing, nil
}

// Update writes the patch to the record. Keys outside the context's allow-list are rejected.
func (s *MemberService) Update(ctx context.Context, id string, uctx UpdateContext, patch map[string]interface{}) error {
	if err := checkAllowed(uctx, patch); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&models.MemberRecord{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return errors.HandleDatabaseError(result.Error, "update member record")
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("Member record")
	}
	return nil
}

// UpdateIfStatus applies the patch only while the stored status is one of from.
// It reports false when another writer moved the status first.
func (s *MemberService) UpdateIfStatus(ctx context.Context, id string, uctx UpdateContext, from []models.RusheeStatus, patch map[string]interface{}) (bool, error) {
	if err := checkAllowed(uctx, patch); err != nil {
		return false, err
	}
	if len(from) == 0 {
		return false, fmt.Errorf("UpdateIfStatus requires at least one expected status")
	}

	query := s.db.WithContext(ctx).Model(&models.MemberRecord{}).Where("id = ?", id)
	query = whereStatusIn(query, from)

	result := query.Updates(patch)
	if result.Error != nil {
		return false, errors.HandleDatabaseError(result.Error, "update member status")
	}
	return result.RowsAffected == 1, nil
}

// ListByFilter returns the matching records in the given order
func (s *MemberService) ListByFilter(ctx context.Context, filter MemberFilter, orderBy string) ([]models.MemberRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.MemberRecord{})
	if filter.Role != "" {
		query = query.Where("LOWER(TRIM("+models.ColumnRole+")) = ?", strings.ToLower(string(filter.Role)))
	}
	if len(filter.Statuses) > 0 {
		query = whereStatusIn(query, filter.Statuses)
	}
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	var records []models.MemberRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "list member records")
	}
	return records, nil
}

// Transaction runs fn against a store bound to one database transaction
func (s *MemberService) Transaction(ctx context.Context, fn func(tx *MemberService) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MemberService{db: tx})
	})
}

// storedStatus folds a stored rushee_status the way NormalizeRusheeStatus does, so
// conditional writes match exactly the records that reads classify under a status.
const storedStatus = "UPPER(TRIM(COALESCE(rushee_status, '')))"

// whereStatusIn matches the given statuses; NULL and blank count as not submitted
func whereStatusIn(query *gorm.DB, statuses []models.RusheeStatus) *gorm.DB {
	values := make([]string, 0, len(statuses)+1)
	for _, status := range statuses {
		if status == models.StatusNotSubmitted {
			values = append(values, "")
		}
		values = append(values, string(status))
	}

	if len(values) == 1 {
		return query.Where(storedStatus+" = ?", values[0])
	}
	return query.Where(storedStatus+" IN ?", values)
}

func checkAllowed(uctx UpdateContext, patch map[string]interface{}) error {
	allowed, ok := allowedColumns[uctx]
	if !ok {
		return fmt.Errorf("unknown update context %q", uctx)
	}
	if len(patch) == 0 {
		return errors.ValidationError("Nothing to update")
	}
	for column := range patch {
		if !contains(allowed, column) {
			return errors.ForbiddenError(fmt.Sprintf("Field %s cannot be changed here", column))
		}
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
