package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keepintouch/internal/domain"
)

type groupService struct {
	groupRepo      domain.GroupRepository
	contactRepo    domain.ContactRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewGroupService creates a GroupService with the given repositories.
func NewGroupService(groupRepo domain.GroupRepository, contactRepo domain.ContactRepository, timeout time.Duration) domain.GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		contactRepo:    contactRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *groupService) Create(ctx context.Context, ownerID string, group *domain.Group) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	group.Name = strings.TrimSpace(group.Name)
	if group.Name == "" {
		return fmt.Errorf("%w: group name is required", domain.ErrValidation)
	}
	// Unknown types are kept as-is: legacy values stay selectable.
	group.Type = strings.TrimSpace(group.Type)
	if group.Type == "" {
		group.Type = "other"
	}

	group.OwnerID = ownerID
	group.MemberIDs = dedupeIDs(group.MemberIDs)
	now := s.now()
	group.CreatedAt = now
	group.UpdatedAt = now

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (s *groupService) Get(ctx context.Context, id, ownerID string) (*domain.GroupDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.contactRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	memberIDs := domain.EffectiveMemberIDs(group, contacts)
	memberSet := make(map[string]struct{}, len(memberIDs))
	for _, mid := range memberIDs {
		memberSet[mid] = struct{}{}
	}
	members := []*domain.Contact{}
	for _, c := range contacts {
		if _, ok := memberSet[domain.NormalizeID(c.ID)]; ok {
			members = append(members, c)
		}
	}

	return &domain.GroupDetail{
		Group:      group,
		MemberIDs:  memberIDs,
		Members:    members,
		NonMembers: domain.NonMembers(contacts, memberIDs),
	}, nil
}

func (s *groupService) List(ctx context.Context, ownerID string) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	groups, err := s.groupRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *groupService) Update(ctx context.Context, ownerID string, group *domain.Group) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.getOwned(ctx, group.ID, ownerID)
	if err != nil {
		return err
	}

	group.Name = strings.TrimSpace(group.Name)
	if group.Name == "" {
		return fmt.Errorf("%w: group name is required", domain.ErrValidation)
	}
	group.Type = strings.TrimSpace(group.Type)
	if group.Type == "" {
		group.Type = existing.Type
	}

	group.OwnerID = existing.OwnerID
	group.MemberIDs = existing.MemberIDs
	group.CreatedAt = existing.CreatedAt
	group.UpdatedAt = s.now()

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

func (s *groupService) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, id, ownerID); err != nil {
		return err
	}
	// Members keep their contact records; only the grouping disappears.
	if err := s.groupRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *groupService) AddMember(ctx context.Context, groupID, contactID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, groupID, ownerID); err != nil {
		return err
	}
	if err := s.checkContact(ctx, contactID, ownerID); err != nil {
		return err
	}
	// The group's member list is the authoritative side for this operation;
	// the contact's mirrored list is left alone and the union resolves it on
	// the next read. Adding a present member is a no-op success.
	if err := s.groupRepo.AddMember(ctx, groupID, contactID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *groupService) RemoveMember(ctx context.Context, groupID, contactID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwned(ctx, groupID, ownerID); err != nil {
		return err
	}
	if err := s.checkContact(ctx, contactID, ownerID); err != nil {
		return err
	}
	return s.removeBothSides(ctx, groupID, contactID)
}

// removeBothSides removes the membership edge from the group's member list
// and prunes the contact's mirrored list. Reads resolve membership by union,
// so removing only the authoritative side would let a stale mirror re-grant
// it; this is the one write path that touches both views.
func (s *groupService) removeBothSides(ctx context.Context, groupID, contactID string) error {
	if err := s.groupRepo.RemoveMember(ctx, groupID, contactID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if err := s.contactRepo.RemoveGroupRef(ctx, contactID, groupID); err != nil {
		return fmt.Errorf("remove group ref: %w", err)
	}
	return nil
}

func (s *groupService) BulkAdd(ctx context.Context, groupID, ownerID string, contactIDs []string) (*domain.BulkResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.getOwned(ctx, groupID, ownerID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		present[domain.NormalizeID(id)] = struct{}{}
	}

	// Best effort: each ID is applied independently; a failure never rolls
	// back IDs already applied.
	result := &domain.BulkResult{Changed: []string{}, Failed: []domain.BulkFailure{}}
	for _, contactID := range dedupeIDs(contactIDs) {
		if err := s.checkContact(ctx, contactID, ownerID); err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: contactID, Reason: reason(err)})
			continue
		}
		if err := s.groupRepo.AddMember(ctx, groupID, contactID); err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: contactID, Reason: reason(err)})
			continue
		}
		if _, already := present[contactID]; !already {
			result.Changed = append(result.Changed, contactID)
		}
	}
	return result, nil
}

func (s *groupService) BulkRemove(ctx context.Context, groupID, ownerID string, contactIDs []string) (*domain.BulkResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.getOwned(ctx, groupID, ownerID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		present[domain.NormalizeID(id)] = struct{}{}
	}

	result := &domain.BulkResult{Changed: []string{}, Failed: []domain.BulkFailure{}}
	for _, contactID := range dedupeIDs(contactIDs) {
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil || contact.OwnerID != ownerID {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: contactID, Reason: reason(domain.ErrNotFound)})
			continue
		}
		mirrored := false
		for _, gid := range contact.GroupIDs {
			if domain.NormalizeID(gid) == domain.NormalizeID(groupID) {
				mirrored = true
				break
			}
		}
		if err := s.removeBothSides(ctx, groupID, contactID); err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: contactID, Reason: reason(err)})
			continue
		}
		_, wasMember := present[contactID]
		if wasMember || mirrored {
			result.Changed = append(result.Changed, contactID)
		}
	}
	return result, nil
}

func (s *groupService) getOwned(ctx context.Context, id, ownerID string) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return group, nil
}

// checkContact verifies the contact exists and belongs to the acting user.
// A contact owned by someone else reads as not found.
func (s *groupService) checkContact(ctx context.Context, contactID, ownerID string) error {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get contact: %w", err)
	}
	if contact.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	return nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return err.Error()
	}
}
