package domain

import (
	"context"
	"strings"
	"time"
)

// Contact represents a person the user keeps in touch with.
// swagger:model Contact
type Contact struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"-"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	JobTitle  string     `json:"job_title,omitempty"`
	BirthDate *time.Time `json:"date_of_birth,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	City      string     `json:"city,omitempty"`
	Country   string     `json:"country,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	SocialLinks SocialLinks `json:"social_links"`

	// GroupIDs is the contact-side membership list. It is one of two
	// independently updatable views of membership; readers must union it
	// with the group-side member lists (see EffectiveGroupIDs).
	GroupIDs []string `json:"groups"`

	Connection Connection `json:"connection"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialLinks holds the contact's public profile URLs.
type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Connection is a contact's cadence state. Timestamps are absent until the
// first connection is logged. History is newest-first.
type Connection struct {
	FrequencyDays    int                `json:"frequency_days"`
	FirstConnectedAt *time.Time         `json:"first_connected_at,omitempty"`
	LastConnectedAt  *time.Time         `json:"last_connected_at,omitempty"`
	NextConnectDueAt *time.Time         `json:"next_connect_due_at,omitempty"`
	History          []ConnectionEntry  `json:"history"`
}

// ConnectionEntry is one logged connection.
type ConnectionEntry struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
	Note        string    `json:"note,omitempty"`
}

// DisplayName joins the non-empty name parts, or "Unnamed".
func (c *Contact) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return "Unnamed"
	}
	return name
}

// NormalizeID trims an identifier for comparison. Membership IDs may arrive
// embedded in denormalized records; comparisons must treat those and the
// plain ID as equal.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// EffectiveGroupIDs resolves the groups a contact belongs to: the union of
// the contact's own group list and every group whose member list contains the
// contact, deduplicated. Neither side alone is trusted; the two views may
// diverge and are reconciled here at read time.
func EffectiveGroupIDs(contact *Contact, allGroups []*Group) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = NormalizeID(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range contact.GroupIDs {
		add(id)
	}
	contactID := NormalizeID(contact.ID)
	for _, g := range allGroups {
		for _, m := range g.MemberIDs {
			if NormalizeID(m) == contactID {
				add(g.ID)
				break
			}
		}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// EffectiveMemberIDs is the group-side counterpart of EffectiveGroupIDs: the
// union of the group's member list and every contact whose own group list
// names the group.
func EffectiveMemberIDs(group *Group, allContacts []*Contact) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = NormalizeID(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range group.MemberIDs {
		add(id)
	}
	groupID := NormalizeID(group.ID)
	for _, c := range allContacts {
		for _, g := range c.GroupIDs {
			if NormalizeID(g) == groupID {
				add(c.ID)
				break
			}
		}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// NonMembers returns the contacts not present in memberIDs, for the add-member
// pickers. It is recomputed from current inputs on every call; callers must
// not cache the result across mutations.
func NonMembers(allContacts []*Contact, memberIDs []string) []*Contact {
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[NormalizeID(id)] = struct{}{}
	}
	candidates := []*Contact{}
	for _, c := range allContacts {
		if _, ok := members[NormalizeID(c.ID)]; !ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// ContactSortField is a sortable contact list column.
type ContactSortField string

const (
	SortByFirstName ContactSortField = "first_name"
	SortByLastName  ContactSortField = "last_name"
)

// ContactListOptions control contact list filtering and ordering.
type ContactListOptions struct {
	// GroupID filters to effective members of the group when non-empty.
	GroupID    string
	SortField  ContactSortField
	Descending bool
}

// ContactRepository defines storage operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, id string) (*Contact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Contact, error)
	// ListByGroupSet returns contacts whose own group list contains groupID.
	// This is the contact-side half of an effective-membership query.
	ListByGroupSet(ctx context.Context, ownerID, groupID string) ([]*Contact, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id string) error

	// RemoveGroupRef prunes groupID from the contact's own group list.
	// No-op when the list does not contain it.
	RemoveGroupRef(ctx context.Context, contactID, groupID string) error

	// UpdateConnection persists the contact's cadence fields only.
	UpdateConnection(ctx context.Context, contactID string, conn *Connection) error
	// AppendConnectionLog appends one history entry for the contact.
	AppendConnectionLog(ctx context.Context, contactID string, entry *ConnectionEntry) error
	// ListConnectionLog returns the contact's history, newest first.
	ListConnectionLog(ctx context.Context, contactID string) ([]ConnectionEntry, error)
}

// Reminder pairs a contact with its due status for the dashboard list.
type Reminder struct {
	Contact *Contact  `json:"contact"`
	Status  DueStatus `json:"status"`
}

// ContactService defines the business logic for contacts and their cadence.
type ContactService interface {
	Create(ctx context.Context, ownerID string, contact *Contact) error
	Get(ctx context.Context, id, ownerID string) (*Contact, []string, error)
	List(ctx context.Context, ownerID string, opts ContactListOptions) ([]*Contact, error)
	Update(ctx context.Context, ownerID string, contact *Contact) error
	Delete(ctx context.Context, id, ownerID string) error

	SetFrequency(ctx context.Context, contactID, ownerID string, frequencyDays int) (*Contact, error)
	LogConnection(ctx context.Context, contactID, ownerID, note string) (*Contact, error)
	Reminders(ctx context.Context, ownerID string, limit int, now time.Time) ([]*Reminder, error)
}
