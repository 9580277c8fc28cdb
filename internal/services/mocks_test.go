package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"keepintouch/internal/domain"
)

// In-memory repositories for service tests. They copy values on the way in
// and out so tests cannot accidentally share state with the service.

type mockContactRepository struct {
	contacts map[string]*domain.Contact
	logs     map[string][]domain.ConnectionEntry
	nextID   int
	err      error
}

func newMockContactRepository() *mockContactRepository {
	return &mockContactRepository{
		contacts: make(map[string]*domain.Contact),
		logs:     make(map[string][]domain.ConnectionEntry),
	}
}

func (m *mockContactRepository) Create(_ context.Context, contact *domain.Contact) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	contact.ID = fmt.Sprintf("contact-%d", m.nextID)
	cp := *contact
	m.contacts[contact.ID] = &cp
	return nil
}

func (m *mockContactRepository) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockContactRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Contact, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockContactRepository) ListByGroupSet(_ context.Context, ownerID, groupID string) ([]*domain.Contact, error) {
	var out []*domain.Contact
	for _, c := range m.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		for _, gid := range c.GroupIDs {
			if gid == groupID {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *mockContactRepository) Update(_ context.Context, contact *domain.Contact) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.contacts[contact.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *contact
	m.contacts[contact.ID] = &cp
	return nil
}

func (m *mockContactRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *mockContactRepository) RemoveGroupRef(_ context.Context, contactID, groupID string) error {
	c, ok := m.contacts[contactID]
	if !ok {
		return nil
	}
	kept := c.GroupIDs[:0]
	for _, gid := range c.GroupIDs {
		if gid != groupID {
			kept = append(kept, gid)
		}
	}
	c.GroupIDs = kept
	return nil
}

func (m *mockContactRepository) UpdateConnection(_ context.Context, contactID string, conn *domain.Connection) error {
	c, ok := m.contacts[contactID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Connection = *conn
	return nil
}

func (m *mockContactRepository) AppendConnectionLog(_ context.Context, contactID string, entry *domain.ConnectionEntry) error {
	entry.ID = fmt.Sprintf("log-%d", len(m.logs[contactID])+1)
	m.logs[contactID] = append([]domain.ConnectionEntry{*entry}, m.logs[contactID]...)
	return nil
}

func (m *mockContactRepository) ListConnectionLog(_ context.Context, contactID string) ([]domain.ConnectionEntry, error) {
	return append([]domain.ConnectionEntry{}, m.logs[contactID]...), nil
}

type mockGroupRepository struct {
	groups map[string]*domain.Group
	nextID int
	err    error
}

func newMockGroupRepository() *mockGroupRepository {
	return &mockGroupRepository{groups: make(map[string]*domain.Group)}
}

func (m *mockGroupRepository) Create(_ context.Context, group *domain.Group) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	group.ID = fmt.Sprintf("group-%d", m.nextID)
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *mockGroupRepository) GetByID(_ context.Context, id string) (*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	cp.MemberIDs = append([]string{}, g.MemberIDs...)
	return &cp, nil
}

func (m *mockGroupRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Group
	for _, g := range m.groups {
		if g.OwnerID == ownerID {
			cp := *g
			cp.MemberIDs = append([]string{}, g.MemberIDs...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGroupRepository) Update(_ context.Context, group *domain.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *mockGroupRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepository) AddMember(_ context.Context, groupID, contactID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range g.MemberIDs {
		if id == contactID {
			return nil
		}
	}
	g.MemberIDs = append(g.MemberIDs, contactID)
	return nil
}

func (m *mockGroupRepository) RemoveMember(_ context.Context, groupID, contactID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	kept := g.MemberIDs[:0]
	for _, id := range g.MemberIDs {
		if id != contactID {
			kept = append(kept, id)
		}
	}
	g.MemberIDs = kept
	return nil
}

type mockInviteRepository struct {
	invites map[string]*domain.Invite
	nextID  int
	err     error
}

func newMockInviteRepository() *mockInviteRepository {
	return &mockInviteRepository{invites: make(map[string]*domain.Invite)}
}

func (m *mockInviteRepository) Create(_ context.Context, inv *domain.Invite) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	inv.ID = fmt.Sprintf("invite-%d", m.nextID)
	cp := *inv
	m.invites[inv.ID] = &cp
	return nil
}

func (m *mockInviteRepository) GetByID(_ context.Context, id string) (*domain.Invite, error) {
	inv, ok := m.invites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInviteRepository) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	for _, inv := range m.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockInviteRepository) ListByOwner(_ context.Context, ownerID string, p domain.PaginationParams) ([]*domain.Invite, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []*domain.Invite
	for _, inv := range m.invites {
		if inv.OwnerID == ownerID {
			cp := *inv
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	offset := p.Offset()
	if offset >= len(all) {
		return []*domain.Invite{}, total, nil
	}
	end := offset + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockInviteRepository) MarkAccepted(_ context.Context, id string, acceptedAt time.Time) error {
	inv, ok := m.invites[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.AcceptedAt != nil {
		return domain.ErrConflict
	}
	inv.AcceptedAt = &acceptedAt
	return nil
}

func (m *mockInviteRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.invites[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.invites, id)
	return nil
}

type mockUserRepository struct {
	users  map[string]*domain.User
	nextID int
	err    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) Update(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

type mockEmailService struct {
	sent []*domain.InviteEmailData
	err  error
}

func (m *mockEmailService) SendInvite(_ context.Context, data *domain.InviteEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}
