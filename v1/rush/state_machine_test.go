package rush

import (
	"testing"

	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
)

func TestPageFor(t *testing.T) {
	tests := []struct {
		status models.RusheeStatus
		want   models.Page
	}{
		{models.StatusNotSubmitted, models.PageRushSubmit},
		{models.StatusSubmitted, models.PageRushStatus},
		{models.StatusTop90, models.PageRushStatus},
		{models.StatusTop50, models.PageRushStatus},
		{models.StatusBid, models.PageRushBid},
		{models.StatusCut, models.PageRushCut},
		{models.StatusBidAccepted, models.PageRushBidAccepted},
		{models.RusheeStatus("WAITLIST"), models.PageRushStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, PageFor(tt.status))
		})
	}
}

func TestIsLegalTransition(t *testing.T) {
	legal := map[models.RusheeStatus][]models.RusheeStatus{
		models.StatusNotSubmitted: {models.StatusSubmitted},
		models.StatusSubmitted:    {models.StatusTop90, models.StatusCut},
		models.StatusTop90:        {models.StatusTop50, models.StatusCut},
		models.StatusTop50:        {models.StatusBid, models.StatusCut},
		models.StatusBid:          {models.StatusBidAccepted},
	}

	for _, from := range models.RusheeStatuses {
		for _, to := range models.RusheeStatuses {
			want := false
			for _, allowed := range legal[from] {
				if allowed == to {
					want = true
				}
			}
			assert.Equal(t, want, IsLegalTransition(from, to), "%s -> %s", from, to)
		}
	}

	t.Run("Terminal states have no exits", func(t *testing.T) {
		assert.Empty(t, NextStatuses(models.StatusCut))
		assert.Empty(t, NextStatuses(models.StatusBidAccepted))
	})

	t.Run("Unknown status has no exits", func(t *testing.T) {
		assert.False(t, IsLegalTransition(models.RusheeStatus("WAITLIST"), models.StatusSubmitted))
	})
}

func TestTransitionFor(t *testing.T) {
	action, ok := TransitionFor(models.StatusBid, models.StatusBidAccepted)
	assert.True(t, ok)
	assert.Equal(t, TransitionAccept, action)
	assert.False(t, action.IsPrivileged())

	action, ok = TransitionFor(models.StatusTop50, models.StatusCut)
	assert.True(t, ok)
	assert.Equal(t, TransitionCut, action)
	assert.True(t, action.IsPrivileged())

	_, ok = TransitionFor(models.StatusSubmitted, models.StatusBid)
	assert.False(t, ok)
}

func TestProgress(t *testing.T) {
	steps := Progress(models.StatusTop90)
	assert.Len(t, steps, 4)
	assert.True(t, steps[0].Complete)
	assert.True(t, steps[1].Complete)
	assert.True(t, steps[1].Current)
	assert.Equal(t, "Closed Rush 1st Round", steps[1].Label)
	assert.False(t, steps[2].Complete)

	steps = Progress(models.StatusBidAccepted)
	assert.True(t, steps[3].Current)

	steps = Progress(models.StatusCut)
	for _, step := range steps {
		assert.False(t, step.Complete)
	}
}
