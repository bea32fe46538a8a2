package services

import (
	"context"
	"testing"
	"time"

	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_Get(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewSettingsService(db)
	ctx := context.Background()

	settings, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageOpen, settings.Stage())

	SetStage(t, db, models.StageTop50)
	settings, err = service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageTop50, settings.Stage())
}

func TestAvailableTabs(t *testing.T) {
	tests := []struct {
		stage models.RushStage
		want  []TrackerTab
	}{
		{models.StageOpen, []TrackerTab{TabApplied}},
		{models.StageTop90, []TrackerTab{TabApplied, TabCut, TabTop90}},
		{models.StageTop50, []TrackerTab{TabApplied, TabCut, TabTop90, TabTop50}},
		{models.StageBidsOffered, []TrackerTab{TabApplied, TabCut, TabTop90, TabTop50, TabBidded}},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableTabs(tt.stage))
		})
	}
}

func TestResolveTab(t *testing.T) {
	assert.Equal(t, TabTop50, ResolveTab("top50", models.StageBidsOffered))
	assert.Equal(t, TabApplied, ResolveTab("BIDDED", models.StageTop90))
	assert.Equal(t, TabApplied, ResolveTab("", models.StageTop90))
	assert.Equal(t, TabApplied, ResolveTab("NOPE", models.StageBidsOffered))
}

func TestTrackerService_List(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	ctx := context.Background()
	service := NewTrackerService(NewMemberService(db), NewSettingsService(db))
	SetStage(t, db, models.StageBidsOffered)

	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	statuses := []string{"APPLICATION_NOT_SUBMITTED", "APPLICATION_SUBMITTED", "TOP90", "TOP50", "BID", "BID_ACCEPTED", "CUT"}
	for i, status := range statuses {
		record := models.MemberRecord{UserID: status, RusheeStatus: strPtr(status)}
		record.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		SeedMember(t, db, record)
	}
	SeedMember(t, db, models.MemberRecord{UserID: "brother", Role: "active", RusheeStatus: strPtr("BID_ACCEPTED")})

	userIDs := func(page *TrackerPage) []string {
		var ids []string
		for _, r := range page.Rushees {
			ids = append(ids, r.UserID)
		}
		return ids
	}

	tests := []struct {
		tab  string
		want []string
	}{
		{"APPLIED", []string{"CUT", "BID_ACCEPTED", "BID", "TOP50", "TOP90", "APPLICATION_SUBMITTED"}},
		{"CUT", []string{"CUT"}},
		{"TOP90", []string{"BID_ACCEPTED", "BID", "TOP50", "TOP90"}},
		{"TOP50", []string{"BID_ACCEPTED", "BID", "TOP50"}},
		{"BIDDED", []string{"BID_ACCEPTED", "BID"}},
	}

	for _, tt := range tests {
		t.Run(tt.tab, func(t *testing.T) {
			page, err := service.List(ctx, tt.tab)
			require.NoError(t, err)
			assert.Equal(t, TrackerTab(tt.tab), page.Tab)
			assert.Equal(t, tt.want, userIDs(page))
			assert.Len(t, page.Tabs, 5)
		})
	}

	t.Run("Progress flags follow status", func(t *testing.T) {
		page, err := service.List(ctx, "TOP90")
		require.NoError(t, err)
		for _, r := range page.Rushees {
			assert.True(t, r.RusheeReachedTop90)
			assert.Equal(t, r.RusheeStatus.Bidded(), r.RusheeBidded)
		}
	})

	t.Run("Closed tab falls back", func(t *testing.T) {
		SetStage(t, db, models.StageTop90)
		page, err := service.List(ctx, "BIDDED")
		require.NoError(t, err)
		assert.Equal(t, TabApplied, page.Tab)
		assert.Equal(t, []TrackerTab{TabApplied, TabCut, TabTop90}, page.Tabs)
	})
}

func TestTrackerService_ListMatchesRoleCaseInsensitively(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	ctx := context.Background()
	service := NewTrackerService(NewMemberService(db), NewSettingsService(db))
	SetStage(t, db, models.StageTop90)

	SeedMember(t, db, models.MemberRecord{UserID: "capitalized", Role: "Rushee", RusheeStatus: strPtr("APPLICATION_SUBMITTED")})

	page, err := service.List(ctx, "APPLIED")
	require.NoError(t, err)
	require.Len(t, page.Rushees, 1)
	assert.Equal(t, "capitalized", page.Rushees[0].UserID)
}
