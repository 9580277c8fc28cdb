package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInviteStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)

	tests := []struct {
		name   string
		invite Invite
		want   InviteStatus
	}{
		{
			name:   "active before expiry",
			invite: Invite{ExpiresAt: now.Add(24 * time.Hour)},
			want:   InviteActive,
		},
		{
			name:   "active exactly at expiry",
			invite: Invite{ExpiresAt: now},
			want:   InviteActive,
		},
		{
			name:   "expired after deadline",
			invite: Invite{ExpiresAt: now.Add(-time.Minute)},
			want:   InviteExpired,
		},
		{
			name:   "accepted wins over expiry",
			invite: Invite{ExpiresAt: now.Add(-24 * time.Hour), AcceptedAt: &accepted},
			want:   InviteAccepted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.Status(now))
		})
	}
}

func TestInviteIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&Invite{ExpiresAt: now}).IsExpired(now))
	assert.False(t, (&Invite{ExpiresAt: now.Add(time.Second)}).IsExpired(now))
	assert.True(t, (&Invite{ExpiresAt: now.Add(-time.Second)}).IsExpired(now))
}

func TestKnownGroupType(t *testing.T) {
	assert.True(t, KnownGroupType("friends"))
	assert.True(t, KnownGroupType("other"))
	assert.False(t, KnownGroupType("legacy-circle"))
	assert.False(t, KnownGroupType(""))
}
