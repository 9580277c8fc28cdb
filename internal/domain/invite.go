package domain

import (
	"context"
	"time"
)

// InviteStatus is the derived state of an invite. It is computed from
// timestamps at query time and never stored, so it cannot drift.
type InviteStatus string

const (
	InviteActive   InviteStatus = "active"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// Invite lets a contact self-update their details via an expiring token.
// swagger:model Invite
type Invite struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"-"`
	ContactEmail string     `json:"contact_email"`
	Token        string     `json:"token"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
}

// Status derives the invite's state at now. Acceptance wins over expiry:
// an invite accepted before its deadline stays accepted after the deadline
// passes.
func (i *Invite) Status(now time.Time) InviteStatus {
	if i.AcceptedAt != nil {
		return InviteAccepted
	}
	if now.After(i.ExpiresAt) {
		return InviteExpired
	}
	return InviteActive
}

// IsExpired reports whether the invite's deadline has passed at now.
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InviteRepository defines storage operations for invites.
type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByID(ctx context.Context, id string) (*Invite, error)
	GetByToken(ctx context.Context, token string) (*Invite, error)
	// ListByOwner returns one page of the owner's invites, newest first,
	// plus the total count.
	ListByOwner(ctx context.Context, ownerID string, p PaginationParams) ([]*Invite, int, error)
	// MarkAccepted sets accepted_at if and only if it is still unset.
	// Returns ErrConflict when the invite was already accepted.
	MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// InviteService defines the invite lifecycle operations.
type InviteService interface {
	Issue(ctx context.Context, ownerID, contactEmail string, expiresAt time.Time) (*Invite, error)
	// Accept marks the invite for token as accepted. Fails with ErrNotFound
	// for an unknown token, ErrConflict when already accepted, ErrExpired
	// when past the deadline.
	Accept(ctx context.Context, token string) (*Invite, error)
	// GetByToken returns the invite for the public invite page.
	GetByToken(ctx context.Context, token string) (*Invite, error)
	Revoke(ctx context.Context, id, ownerID string) error
	List(ctx context.Context, ownerID string, p PaginationParams) ([]*Invite, int, error)
}
