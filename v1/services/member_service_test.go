package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService_GetByUserID(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()

	seeded := SeedMember(t, db, models.MemberRecord{UserID: "user-1"})

	t.Run("Found", func(t *testing.T) {
		record, err := service.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, record.ID)
		assert.Equal(t, models.StatusNotSubmitted, record.Status())
		assert.Equal(t, string(models.RoleRushee), record.Role)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := service.GetByUserID(ctx, "missing")
		assert.True(t, errors.HasCode(err, errors.CodeRecordNotFound))

		_, err = service.GetByID(ctx, "mem_missing")
		assert.True(t, errors.HasCode(err, errors.CodeRecordNotFound))
	})
}

func TestMemberService_Create(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()

	record, err := service.Create(ctx, &models.MemberRecord{UserID: "user-1", Email: "jane@umich.edu"})
	require.NoError(t, err)
	assert.Contains(t, record.ID, "mem_")

	_, err = service.Create(ctx, &models.MemberRecord{UserID: "user-1", Email: "jane@umich.edu"})
	require.Error(t, err)
	apiErr := errors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.HTTPStatus)

	_, err = service.Create(ctx, &models.MemberRecord{})
	assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
}

func TestMemberService_EnsureRecord(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	principal := idp.Principal{ID: "user-1", Email: "jane@umich.edu"}

	first, err := service.EnsureRecord(ctx, principal)
	require.NoError(t, err)
	second, err := service.EnsureRecord(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "jane@umich.edu", second.Email)
	assert.Equal(t, models.StatusNotSubmitted, second.Status())

	var count int64
	require.NoError(t, db.Model(&models.MemberRecord{}).Where("user_id = ?", "user-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMemberService_Update(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	record := SeedMember(t, db, models.MemberRecord{UserID: "user-1", FullName: strPtr("Jane Doe")})

	t.Run("Allowed fields", func(t *testing.T) {
		err := service.Update(ctx, record.ID, UpdateProfileEdit, map[string]interface{}{"major": "ECON", "graduation_year": 2027})
		require.NoError(t, err)

		updated, err := service.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "ECON", *updated.Major)
		assert.Equal(t, 2027, *updated.GraduationYear)
	})

	t.Run("Field outside the allow-list is rejected without a write", func(t *testing.T) {
		err := service.Update(ctx, record.ID, UpdateProfileEdit, map[string]interface{}{"major": "MATH", "role": "eboard"})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, errors.GetAPIError(err).HTTPStatus)

		updated, err := service.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "ECON", *updated.Major)
		assert.Equal(t, string(models.RoleRushee), updated.Role)
	})

	t.Run("Status is not writable from profile edit", func(t *testing.T) {
		err := service.Update(ctx, record.ID, UpdateProfileEdit, map[string]interface{}{"rushee_status": "BID"})
		require.Error(t, err)
	})

	t.Run("Empty patch", func(t *testing.T) {
		err := service.Update(ctx, record.ID, UpdateProfileEdit, map[string]interface{}{})
		assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
	})

	t.Run("Unknown record", func(t *testing.T) {
		err := service.Update(ctx, "mem_missing", UpdateProfileEdit, map[string]interface{}{"major": "ECON"})
		assert.True(t, errors.HasCode(err, errors.CodeRecordNotFound))
	})
}

func TestMemberService_UpdateIfStatus(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()

	t.Run("Matching status is swapped", func(t *testing.T) {
		record := SeedMember(t, db, models.MemberRecord{UserID: "bid", RusheeStatus: strPtr("BID")})
		ok, err := service.UpdateIfStatus(ctx, record.ID, UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid},
			map[string]interface{}{"rushee_status": "BID_ACCEPTED"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = service.UpdateIfStatus(ctx, record.ID, UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid},
			map[string]interface{}{"rushee_status": "BID_ACCEPTED"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("NULL status counts as not submitted", func(t *testing.T) {
		record := SeedMember(t, db, models.MemberRecord{UserID: "null-status"})
		require.NoError(t, db.Exec("UPDATE members SET rushee_status = NULL WHERE id = ?", record.ID).Error)

		ok, err := service.UpdateIfStatus(ctx, record.ID, UpdateRushSubmission, []models.RusheeStatus{models.StatusNotSubmitted},
			map[string]interface{}{"rushee_status": "APPLICATION_SUBMITTED"})
		require.NoError(t, err)
		assert.True(t, ok)

		updated, err := service.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, updated.Status())
	})

	t.Run("Blank status counts as not submitted", func(t *testing.T) {
		record := SeedMember(t, db, models.MemberRecord{UserID: "blank-status"})
		require.NoError(t, db.Exec("UPDATE members SET rushee_status = '' WHERE id = ?", record.ID).Error)

		ok, err := service.UpdateIfStatus(ctx, record.ID, UpdateRushSubmission, []models.RusheeStatus{models.StatusNotSubmitted},
			map[string]interface{}{"rushee_status": "APPLICATION_SUBMITTED"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Stored status is matched case-insensitively", func(t *testing.T) {
		record := SeedMember(t, db, models.MemberRecord{UserID: "lower-bid", RusheeStatus: strPtr(" bid ")})
		require.Equal(t, models.StatusBid, record.Status())

		ok, err := service.UpdateIfStatus(ctx, record.ID, UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid},
			map[string]interface{}{"rushee_status": "BID_ACCEPTED"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Allow-list still applies", func(t *testing.T) {
		record := SeedMember(t, db, models.MemberRecord{UserID: "allow", RusheeStatus: strPtr("BID")})
		_, err := service.UpdateIfStatus(ctx, record.ID, UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid},
			map[string]interface{}{"rushee_status": "BID_ACCEPTED", "full_name": "Eve"})
		require.Error(t, err)
	})
}

func TestMemberService_UpdateIfStatus_SQL(t *testing.T) {
	db, mock := SetupMockDB(t)
	service := NewMemberService(db)

	mock.ExpectExec(`UPDATE "members" SET .+ WHERE id = \$3 AND UPPER\(TRIM\(COALESCE\(rushee_status, ''\)\)\) = \$4`).
		WithArgs("BID_ACCEPTED", sqlmock.AnyArg(), "mem_1", "BID").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := service.UpdateIfStatus(context.Background(), "mem_1", UpdateBidAcceptance, []models.RusheeStatus{models.StatusBid},
		map[string]interface{}{"rushee_status": "BID_ACCEPTED"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberService_ListByFilter(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	older := models.MemberRecord{UserID: "older", RusheeStatus: strPtr("TOP90")}
	older.CreatedAt = base
	newer := models.MemberRecord{UserID: "newer", RusheeStatus: strPtr("APPLICATION_SUBMITTED")}
	newer.CreatedAt = base.Add(time.Hour)
	SeedMember(t, db, older)
	SeedMember(t, db, newer)
	SeedMember(t, db, models.MemberRecord{UserID: "active", Role: "active", RusheeStatus: strPtr("TOP90")})
	SeedMember(t, db, models.MemberRecord{UserID: "unsubmitted"})

	records, err := service.ListByFilter(ctx, MemberFilter{
		Role:     models.RoleRushee,
		Statuses: []models.RusheeStatus{models.StatusSubmitted, models.StatusTop90},
	}, "created_at DESC")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].UserID)
	assert.Equal(t, "older", records[1].UserID)

	all, err := service.ListByFilter(ctx, MemberFilter{}, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	t.Run("Role and status match case-insensitively", func(t *testing.T) {
		SeedMember(t, db, models.MemberRecord{UserID: "mixed-case", Role: "Rushee", RusheeStatus: strPtr("top90")})

		records, err := service.ListByFilter(ctx, MemberFilter{
			Role:     models.RoleRushee,
			Statuses: []models.RusheeStatus{models.StatusTop90},
		}, "created_at DESC")
		require.NoError(t, err)
		var ids []string
		for _, r := range records {
			ids = append(ids, r.UserID)
		}
		assert.ElementsMatch(t, []string{"older", "mixed-case"}, ids)
	})
}

func TestMemberService_Transaction(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	record := SeedMember(t, db, models.MemberRecord{UserID: "user-1", HeadshotPath: strPtr("https://cdn/x.jpg")})

	err := service.Transaction(ctx, func(tx *MemberService) error {
		if err := tx.Update(ctx, record.ID, UpdateHeadshot, map[string]interface{}{"headshot_path": nil}); err != nil {
			return err
		}
		return errors.StorageError("delete", assert.AnError)
	})
	require.Error(t, err)

	reloaded, err := service.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.HeadshotPath)
	assert.Equal(t, "https://cdn/x.jpg", *reloaded.HeadshotPath)
}

func strPtr(s string) *string {
	return &s
}
