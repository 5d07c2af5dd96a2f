package access

import (
	"testing"
	"time"

	"crm-app/internal/domain/subscriptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestResolveSubscription_NoRow(t *testing.T) {
	got := ResolveSubscription(nil, now)
	assert.Equal(t, SubscriptionDerivedStatus{Status: StatusNone}, got)
}

func TestResolveSubscription_LapsedTrial(t *testing.T) {
	sub := &subscriptions.Subscription{
		Status:       subscriptions.StatusTrial,
		TrialEndDate: ptr(now.Add(-24 * time.Hour)),
	}

	got := ResolveSubscription(sub, now)
	assert.Equal(t, StatusExpired, got.Status)
	assert.False(t, got.CanMakeChanges)
	assert.Equal(t, -1, got.DaysRemaining)
}

func TestResolveSubscription_RunningTrial(t *testing.T) {
	end := now.Add(24 * time.Hour)
	sub := &subscriptions.Subscription{
		Status:       subscriptions.StatusTrial,
		TrialEndDate: ptr(end),
	}

	got := ResolveSubscription(sub, now)
	assert.Equal(t, StatusTrial, got.Status)
	assert.True(t, got.CanMakeChanges)
	assert.Equal(t, 1, got.DaysRemaining)
	require.NotNil(t, got.TrialEndsAt)
	assert.True(t, end.Equal(*got.TrialEndsAt))
}

func TestResolveSubscription_PartialDayRoundsUp(t *testing.T) {
	sub := &subscriptions.Subscription{
		Status:       subscriptions.StatusTrial,
		TrialEndDate: ptr(now.Add(36 * time.Hour)),
	}
	assert.Equal(t, 2, ResolveSubscription(sub, now).DaysRemaining)
}

func TestResolveSubscription_TrialEndingToday(t *testing.T) {
	sub := &subscriptions.Subscription{
		Status:       subscriptions.StatusTrial,
		TrialEndDate: ptr(now.Add(-time.Hour)),
	}

	got := ResolveSubscription(sub, now)
	assert.Equal(t, 0, got.DaysRemaining)
	assert.Equal(t, StatusExpired, got.Status)
	assert.False(t, got.CanMakeChanges)
}

func TestResolveSubscription_TrialWithoutEndDate(t *testing.T) {
	sub := &subscriptions.Subscription{
		Status:         subscriptions.StatusTrial,
		TrialStartDate: ptr(now.Add(-10 * 24 * time.Hour)),
	}
	got := ResolveSubscription(sub, now)
	assert.Equal(t, StatusTrial, got.Status)
	assert.Equal(t, 4, got.DaysRemaining)

	bare := &subscriptions.Subscription{Status: subscriptions.StatusTrial}
	assert.Equal(t, StatusExpired, ResolveSubscription(bare, now).Status)
}

func TestResolveSubscription_ActiveIgnoresPeriodEnd(t *testing.T) {
	for _, end := range []*time.Time{nil, ptr(now.Add(-90 * 24 * time.Hour)), ptr(now.Add(30 * 24 * time.Hour))} {
		sub := &subscriptions.Subscription{
			Status:           subscriptions.StatusActive,
			CurrentPeriodEnd: end,
		}
		got := ResolveSubscription(sub, now)
		assert.Equal(t, StatusActive, got.Status)
		assert.True(t, got.CanMakeChanges)
	}
}

func TestResolveSubscription_OtherStatusesExpire(t *testing.T) {
	for _, status := range []subscriptions.Status{
		subscriptions.StatusSuspended,
		subscriptions.StatusCancelled,
		"something_new",
	} {
		got := ResolveSubscription(&subscriptions.Subscription{Status: status}, now)
		assert.Equal(t, SubscriptionDerivedStatus{Status: StatusExpired}, got, status)
	}
}

func TestResolveSubscription_IsPure(t *testing.T) {
	end := now.Add(5 * 24 * time.Hour)
	sub := &subscriptions.Subscription{
		Status:       subscriptions.StatusTrial,
		TrialEndDate: ptr(end),
	}
	before := *sub

	first := ResolveSubscription(sub, now)
	second := ResolveSubscription(sub, now)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *sub)

	// the returned pointer is a copy
	*first.TrialEndsAt = first.TrialEndsAt.Add(time.Hour)
	assert.True(t, end.Equal(*sub.TrialEndDate))
}
