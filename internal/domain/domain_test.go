package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileComputesTicketsAndRefresh(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	profile := NewProfile(ProfileMeta{
		TotalGrade:       1520.5,
		TotalAttempts:    6,
		ConsumedAttempts: 2,
		RefreshCountdown: 10 * time.Minute,
	}, now)

	assert.Equal(t, 4, profile.TicketsAvailable)
	assert.Equal(t, 1520.5, profile.Balance)
	assert.Equal(t, 50*time.Minute, profile.RefreshDelay)
	assert.Equal(t, now.Add(50*time.Minute), profile.RefreshAt)
	assert.Equal(t, "50 minutes again", profile.RefreshMessage)
}

func TestNewProfileZeroCountdownIsNotApplicable(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	profile := NewProfile(ProfileMeta{TotalAttempts: 6, ConsumedAttempts: 6}, now)

	assert.Equal(t, 0, profile.TicketsAvailable)
	assert.Equal(t, RefreshNotApplicable, profile.RefreshMessage)
	assert.True(t, profile.RefreshAt.IsZero())
	assert.Equal(t, RefreshBuffer, profile.RefreshDelay)
}

func TestNewProfileDoesNotClampRemoteAccounting(t *testing.T) {
	profile := NewProfile(ProfileMeta{TotalAttempts: 6, ConsumedAttempts: 7}, time.Time{})

	assert.Equal(t, -1, profile.TicketsAvailable)
}

func TestFormatRefreshETA(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "seconds", in: 42 * time.Second, want: "42 seconds again"},
		{name: "one minute", in: time.Minute, want: "1 minutes again"},
		{name: "minutes floor", in: 59*time.Minute + 59*time.Second, want: "59 minutes again"},
		{name: "hours", in: 3*time.Hour + 40*time.Minute, want: "3 hours again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRefreshETA(tt.in))
		})
	}
}

func TestPendingTaskIDsExcludesFixedTask(t *testing.T) {
	tasks := []Task{
		{ResourceID: 2056, CompletedCount: 0},
		{ResourceID: 2058, CompletedCount: 0},
		{ResourceID: 2059, CompletedCount: 1},
	}

	assert.Equal(t, []int{2056}, PendingTaskIDs(tasks))
}

func TestPendingTaskIDsNeverContainsExcludedTask(t *testing.T) {
	for _, task := range []Task{
		{ResourceID: ExcludedTaskID},
		{ResourceID: ExcludedTaskID, CompletedCount: 3},
		{ResourceID: ExcludedTaskID, CompletedCount: 1, Type: TaskTypeLogin, RemoteStatus: TaskStatusInProgress},
	} {
		assert.NotContains(t, PendingTaskIDs([]Task{task, {ResourceID: 1}}), ExcludedTaskID)
	}
}

func TestPendingTaskIDsKeepsOrderAndCheckInTasks(t *testing.T) {
	tasks := []Task{
		{ResourceID: 3, CompletedCount: 0},
		{ResourceID: 1, CompletedCount: 1, Type: TaskTypeLogin, RemoteStatus: TaskStatusInProgress},
		{ResourceID: 2, CompletedCount: 1, Type: TaskTypeLogin, RemoteStatus: "COMPLETED"},
		{ResourceID: 3, CompletedCount: 0},
	}

	assert.Equal(t, []int{3, 1}, PendingTaskIDs(tasks))
	assert.Equal(t, TaskIncomplete, tasks[1].Status())
	assert.Equal(t, TaskCompleted, tasks[2].Status())
}

func TestRetryExhaustedErrorUnwrapsBoth(t *testing.T) {
	last := &RemoteError{Kind: ErrTransient, Op: "task list", Message: "bad gateway"}
	err := &RetryExhaustedError{Attempts: 3, Last: last}

	require.ErrorIs(t, err, ErrRetryExhausted)
	require.ErrorIs(t, err, ErrTransient)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "task list", remote.Op)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "inverted range", mutate: func(s *Settings) { s.MinPoints, s.MaxPoints = 300, 100 }, wantErr: "exceeds max_points"},
		{name: "negative points", mutate: func(s *Settings) { s.MinPoints = -1 }, wantErr: "must not be negative"},
		{
			name: "restart backoff inverted",
			mutate: func(s *Settings) {
				s.Restart = RestartPolicy{Enabled: true, InitialBackoff: time.Hour, MaxBackoff: time.Minute}
			},
			wantErr: "below restart.initial_backoff",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			settings := DefaultSettings()
			tc.mutate(&settings)
			err := settings.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestAccountValidate(t *testing.T) {
	assert.NoError(t, Account{Name: "alice", Query: "query_id=1"}.Validate())
	assert.NoError(t, Account{Name: "bob", SecretRef: "moonbix://bob/query"}.Validate())
	assert.ErrorContains(t, Account{Name: " "}.Validate(), "name is required")
	assert.ErrorContains(t, Account{Name: "carol"}.Validate(), "query or secret_ref is required")
	assert.ErrorContains(t, Credential{Name: "carol"}.Validate(), "login query is empty")
}
