package domain

import (
	"context"
	"time"
)

// GroupTypes is the fixed set of group categories, ending with the "other"
// catch-all. Stored values outside this list (legacy data) are kept as-is and
// remain selectable; they are never rejected on read or re-save.
var GroupTypes = []string{
	"acquaintances",
	"club",
	"cohort",
	"colleagues",
	"friends",
	"family",
	"business",
	"network",
	"team",
	"volunteers",
	"other",
}

// KnownGroupType reports whether t is one of the current GroupTypes.
func KnownGroupType(t string) bool {
	for _, gt := range GroupTypes {
		if gt == t {
			return true
		}
	}
	return false
}

// Group is a named set of contacts.
// swagger:model Group
type Group struct {
	ID          string `json:"id"`
	OwnerID     string `json:"-"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`

	// MemberIDs is the group-side membership list, the authoritative side
	// for add/remove member operations. Readers union it with the
	// contact-side lists (see EffectiveMemberIDs).
	MemberIDs []string `json:"members"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupRepository defines storage operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error

	// AddMember appends contactID to the group's member list if absent.
	// Adding a present member is a no-op success.
	AddMember(ctx context.Context, groupID, contactID string) error
	// RemoveMember removes contactID from the group's member list.
	// Removing an absent member is a no-op success.
	RemoveMember(ctx context.Context, groupID, contactID string) error
}

// GroupDetail is a group with its derived membership views.
type GroupDetail struct {
	Group      *Group     `json:"group"`
	MemberIDs  []string   `json:"member_ids"`
	Members    []*Contact `json:"members"`
	NonMembers []*Contact `json:"non_members"`
}

// GroupService defines the business logic for groups and membership.
type GroupService interface {
	Create(ctx context.Context, ownerID string, group *Group) error
	Get(ctx context.Context, id, ownerID string) (*GroupDetail, error)
	List(ctx context.Context, ownerID string) ([]*Group, error)
	Update(ctx context.Context, ownerID string, group *Group) error
	Delete(ctx context.Context, id, ownerID string) error

	AddMember(ctx context.Context, groupID, contactID, ownerID string) error
	RemoveMember(ctx context.Context, groupID, contactID, ownerID string) error
	BulkAdd(ctx context.Context, groupID, ownerID string, contactIDs []string) (*BulkResult, error)
	BulkRemove(ctx context.Context, groupID, ownerID string, contactIDs []string) (*BulkResult, error)
}
