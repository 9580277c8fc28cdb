package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"keepintouch/internal/domain"
)

type contactService struct {
	contactRepo    domain.ContactRepository
	groupRepo      domain.GroupRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewContactService creates a ContactService with the given repositories.
func NewContactService(contactRepo domain.ContactRepository, groupRepo domain.GroupRepository, timeout time.Duration) domain.ContactService {
	return &contactService{
		contactRepo:    contactRepo,
		groupRepo:      groupRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *contactService) Create(ctx context.Context, ownerID string, contact *domain.Contact) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	contact.FirstName = strings.TrimSpace(contact.FirstName)
	contact.LastName = strings.TrimSpace(contact.LastName)
	if contact.FirstName == "" && contact.LastName == "" {
		return fmt.Errorf("%w: provide at least a first or last name", domain.ErrValidation)
	}

	contact.OwnerID = ownerID
	contact.GroupIDs = dedupeIDs(contact.GroupIDs)
	if contact.Connection.FrequencyDays < 1 {
		contact.Connection.FrequencyDays = domain.DefaultFrequencyDays
	}
	now := s.now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *contactService) Get(ctx context.Context, id, ownerID string) (*domain.Contact, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.contactRepo.ListConnectionLog(ctx, contact.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list connection log: %w", err)
	}
	contact.Connection.History = history

	// Effective membership is the union of the contact's own list and the
	// group-side member lists; recomputed on every read, never cached.
	groups, err := s.groupRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list groups: %w", err)
	}
	return contact, domain.EffectiveGroupIDs(contact, groups), nil
}

func (s *contactService) List(ctx context.Context, ownerID string, opts domain.ContactListOptions) ([]*domain.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contacts, err := s.contactRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	if opts.GroupID != "" {
		group, err := s.groupRepo.GetByID(ctx, opts.GroupID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get group: %w", err)
		}
		if group.OwnerID != ownerID {
			return nil, domain.ErrForbidden
		}
		members := domain.EffectiveMemberIDs(group, contacts)
		memberSet := make(map[string]struct{}, len(members))
		for _, id := range members {
			memberSet[id] = struct{}{}
		}
		filtered := contacts[:0]
		for _, c := range contacts {
			if _, ok := memberSet[domain.NormalizeID(c.ID)]; ok {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	sortContacts(contacts, opts)
	return contacts, nil
}

func sortContacts(contacts []*domain.Contact, opts domain.ContactListOptions) {
	key := func(c *domain.Contact) string {
		if opts.SortField == domain.SortByLastName {
			return strings.ToLower(c.LastName)
		}
		return strings.ToLower(c.FirstName)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := key(contacts[i]), key(contacts[j])
		if a == b {
			return contacts[i].ID < contacts[j].ID
		}
		if opts.Descending {
			return a > b
		}
		return a < b
	})
}

func (s *contactService) Update(ctx context.Context, ownerID string, contact *domain.Contact) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.getOwned(ctx, contact.ID, ownerID)
	if err != nil {
		return err
	}

	contact.FirstName = strings.TrimSpace(contact.FirstName)
	contact.LastName = strings.TrimSpace(contact.LastName)
	if contact.FirstName == "" && contact.LastName == "" {
		return fmt.Errorf("%w: provide at least a first or last name", domain.ErrValidation)
	}

	contact.OwnerID = existing.OwnerID
	contact.GroupIDs = dedupeIDs(contact.GroupIDs)
	contact.Connection = existing.Connection
	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = s.now()

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (s *contactService) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (s *contactService) SetFrequency(ctx context.Context, contactID, ownerID string, frequencyDays int) (*domain.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Validation fails fast, before any read or write.
	if frequencyDays < 1 {
		return nil, fmt.Errorf("%w: frequency must be at least 1 day", domain.ErrValidation)
	}

	contact, err := s.getOwned(ctx, contactID, ownerID)
	if err != nil {
		return nil, err
	}

	conn := contact.Connection
	conn.FrequencyDays = frequencyDays
	anchor := s.now()
	if conn.LastConnectedAt != nil {
		anchor = *conn.LastConnectedAt
	}
	due := addDays(anchor, frequencyDays)
	conn.NextConnectDueAt = &due

	if err := s.contactRepo.UpdateConnection(ctx, contactID, &conn); err != nil {
		return nil, fmt.Errorf("update connection: %w", err)
	}
	contact.Connection = conn
	return contact, nil
}

func (s *contactService) LogConnection(ctx context.Context, contactID, ownerID, note string) (*domain.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact, err := s.getOwned(ctx, contactID, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := domain.ConnectionEntry{ConnectedAt: now, Note: strings.TrimSpace(note)}
	if err := s.contactRepo.AppendConnectionLog(ctx, contactID, &entry); err != nil {
		return nil, fmt.Errorf("append connection log: %w", err)
	}

	conn := contact.Connection
	if conn.FrequencyDays < 1 {
		conn.FrequencyDays = domain.DefaultFrequencyDays
	}
	if conn.FirstConnectedAt == nil {
		conn.FirstConnectedAt = &now
	}
	conn.LastConnectedAt = &now
	due := addDays(now, conn.FrequencyDays)
	conn.NextConnectDueAt = &due

	if err := s.contactRepo.UpdateConnection(ctx, contactID, &conn); err != nil {
		return nil, fmt.Errorf("update connection: %w", err)
	}

	history, err := s.contactRepo.ListConnectionLog(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("list connection log: %w", err)
	}
	conn.History = history
	contact.Connection = conn
	return contact, nil
}

func (s *contactService) Reminders(ctx context.Context, ownerID string, limit int, now time.Time) ([]*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contacts, err := s.contactRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	scheduled := []*domain.Contact{}
	for _, c := range contacts {
		if c.Connection.NextConnectDueAt != nil {
			scheduled = append(scheduled, c)
		}
	}
	// Total order: due date ascending, contact ID as the tiebreaker.
	sort.Slice(scheduled, func(i, j int) bool {
		a, b := scheduled[i].Connection.NextConnectDueAt, scheduled[j].Connection.NextConnectDueAt
		if a.Equal(*b) {
			return scheduled[i].ID < scheduled[j].ID
		}
		return a.Before(*b)
	})
	if limit > 0 && len(scheduled) > limit {
		scheduled = scheduled[:limit]
	}

	reminders := make([]*domain.Reminder, len(scheduled))
	for i, c := range scheduled {
		reminders[i] = &domain.Reminder{
			Contact: c,
			Status:  domain.ComputeDueStatus(c.Connection.NextConnectDueAt, now),
		}
	}
	return reminders, nil
}

func (s *contactService) getOwned(ctx context.Context, id, ownerID string) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if contact.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return contact, nil
}

// addDays advances t by whole days; the cadence has no finer granularity.
func addDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := []string{}
	for _, id := range ids {
		id = domain.NormalizeID(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
