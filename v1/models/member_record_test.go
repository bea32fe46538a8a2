package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestNormalizeRusheeStatus(t *testing.T) {
	tests := []struct {
		name      string
		raw       *string
		want      RusheeStatus
		wantValid bool
	}{
		{"nil is not submitted", nil, StatusNotSubmitted, true},
		{"blank is not submitted", strPtr("  "), StatusNotSubmitted, true},
		{"submitted", strPtr("APPLICATION_SUBMITTED"), StatusSubmitted, true},
		{"lowercase bid", strPtr("bid"), StatusBid, true},
		{"unknown kept", strPtr("WAITLIST"), RusheeStatus("WAITLIST"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRusheeStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantValid, got.IsValid())
		})
	}
}

func TestRusheeStatus_DerivedFlags(t *testing.T) {
	tests := []struct {
		status               RusheeStatus
		top90, top50, bidded bool
	}{
		{StatusNotSubmitted, false, false, false},
		{StatusSubmitted, false, false, false},
		{StatusTop90, true, false, false},
		{StatusTop50, true, true, false},
		{StatusBid, true, true, true},
		{StatusBidAccepted, true, true, true},
		{StatusCut, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.top90, tt.status.ReachedTop90())
			assert.Equal(t, tt.top50, tt.status.ReachedTop50())
			assert.Equal(t, tt.bidded, tt.status.Bidded())
		})
	}
}

func TestMemberRecord_HasCompletedOnboarding(t *testing.T) {
	var missing *MemberRecord
	assert.False(t, missing.HasCompletedOnboarding())
	assert.False(t, (&MemberRecord{}).HasCompletedOnboarding())
	assert.False(t, (&MemberRecord{FullName: strPtr(" ")}).HasCompletedOnboarding())
	assert.True(t, (&MemberRecord{FullName: strPtr("Jane Doe")}).HasCompletedOnboarding())
}

func TestMemberRecord_BeforeCreate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&MemberRecord{}))

	record := MemberRecord{UserID: "user-1", Email: "jane@umich.edu"}
	require.NoError(t, db.Create(&record).Error)

	assert.True(t, strings.HasPrefix(record.ID, "mem_"))
	assert.Equal(t, string(RoleRushee), record.Role)
	require.NotNil(t, record.RusheeStatus)
	assert.Equal(t, StatusNotSubmitted, record.Status())
	assert.False(t, record.CreatedAt.IsZero())

	duplicate := MemberRecord{UserID: "user-1", Email: "jane@umich.edu"}
	assert.Error(t, db.Create(&duplicate).Error)
}

func TestMemberRecord_ToResponse(t *testing.T) {
	record := MemberRecord{
		ID:           "mem_1",
		UserID:       "user-1",
		Email:        "jane@umich.edu",
		Role:         "rushee",
		RusheeStatus: strPtr("TOP50"),
	}

	body, err := json.Marshal(record.ToResponse())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "TOP50", decoded["rusheeStatus"])
	assert.Equal(t, true, decoded["rusheeReachedTop90"])
	assert.Equal(t, true, decoded["rusheeReachedTop50"])
	assert.Equal(t, false, decoded["rusheeBidded"])
	assert.Equal(t, "mem_1", decoded["id"])
}

func TestRushSettings_Stage(t *testing.T) {
	var missing *RushSettings
	assert.Equal(t, StageOpen, missing.Stage())
	assert.Equal(t, StageOpen, (&RushSettings{}).Stage())
	assert.Equal(t, StageTop50, (&RushSettings{CurrentStage: "TOP50"}).Stage())
}

func TestPage_IsRushPage(t *testing.T) {
	assert.True(t, PageRushBid.IsRushPage())
	assert.True(t, PageRushStatus.IsRushPage())
	assert.False(t, PageTracker.IsRushPage())
	assert.False(t, PageDashboard.IsRushPage())
}
