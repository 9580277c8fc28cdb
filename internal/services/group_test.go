package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepintouch/internal/domain"
)

func newTestGroupService(groupRepo *mockGroupRepository, contactRepo *mockContactRepository, now time.Time) *groupService {
	return &groupService{
		groupRepo:      groupRepo,
		contactRepo:    contactRepo,
		contextTimeout: time.Second,
		now:            func() time.Time { return now },
	}
}

func seedContact(t *testing.T, repo *mockContactRepository, ownerID, firstName string, groupIDs ...string) *domain.Contact {
	t.Helper()
	c := &domain.Contact{OwnerID: ownerID, FirstName: firstName, GroupIDs: groupIDs}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestGroupCreate(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	groupRepo := newMockGroupRepository()
	svc := newTestGroupService(groupRepo, newMockContactRepository(), now)

	group := &domain.Group{Name: " Friends ", Type: ""}
	require.NoError(t, svc.Create(context.Background(), "owner-1", group))

	assert.Equal(t, "Friends", group.Name)
	assert.Equal(t, "other", group.Type, "empty type defaults to other")
	assert.Equal(t, "owner-1", group.OwnerID)

	// Unknown legacy types are kept, not rejected.
	legacy := &domain.Group{Name: "Old circle", Type: "legacy-circle"}
	require.NoError(t, svc.Create(context.Background(), "owner-1", legacy))
	assert.Equal(t, "legacy-circle", legacy.Type)

	err := svc.Create(context.Background(), "owner-1", &domain.Group{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGroupGetDerivesMembership(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))

	groupSide := seedContact(t, contactRepo, "owner-1", "Ana")
	require.NoError(t, groupRepo.AddMember(ctx, group.ID, groupSide.ID))
	contactSide := seedContact(t, contactRepo, "owner-1", "Bruno", group.ID)
	outsider := seedContact(t, contactRepo, "owner-1", "Carla")

	detail, err := svc.Get(ctx, group.ID, "owner-1")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{groupSide.ID, contactSide.ID}, detail.MemberIDs)
	assert.Len(t, detail.Members, 2)
	require.Len(t, detail.NonMembers, 1)
	assert.Equal(t, outsider.ID, detail.NonMembers[0].ID)
}

func TestGroupAddMemberIdempotent(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))
	contact := seedContact(t, contactRepo, "owner-1", "Ana")

	require.NoError(t, svc.AddMember(ctx, group.ID, contact.ID, "owner-1"))
	require.NoError(t, svc.AddMember(ctx, group.ID, contact.ID, "owner-1"), "re-adding is a no-op success")

	got, err := groupRepo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{contact.ID}, got.MemberIDs)
}

func TestGroupAddMemberChecksOwnership(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))
	theirs := seedContact(t, contactRepo, "owner-2", "Dana")

	// Another user's contact reads as not found, never as forbidden, to
	// avoid leaking its existence.
	err := svc.AddMember(ctx, group.ID, theirs.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.AddMember(ctx, group.ID, "missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupRemoveMemberPrunesBothSides(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))
	// Membership recorded on both sides.
	contact := seedContact(t, contactRepo, "owner-1", "Ana", group.ID)
	require.NoError(t, groupRepo.AddMember(ctx, group.ID, contact.ID))

	require.NoError(t, svc.RemoveMember(ctx, group.ID, contact.ID, "owner-1"))

	gotGroup, err := groupRepo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, gotGroup.MemberIDs)
	gotContact, err := contactRepo.GetByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Empty(t, gotContact.GroupIDs, "stale mirror would re-grant membership through the union")
}

func TestGroupBulkAddPartialFailure(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))
	a := seedContact(t, contactRepo, "owner-1", "Ana")
	b := seedContact(t, contactRepo, "owner-1", "Bruno")
	require.NoError(t, groupRepo.AddMember(ctx, group.ID, b.ID))

	result, err := svc.BulkAdd(ctx, group.ID, "owner-1", []string{a.ID, b.ID, "missing", a.ID})
	require.NoError(t, err)

	// One real change; the already-present member is neither changed nor
	// failed; the unknown ID fails without rolling back the rest.
	assert.Equal(t, []string{a.ID}, result.Changed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].ID)
	assert.Equal(t, "not found", result.Failed[0].Reason)
}

func TestGroupBulkRemove(t *testing.T) {
	groupRepo := newMockGroupRepository()
	contactRepo := newMockContactRepository()
	svc := newTestGroupService(groupRepo, contactRepo, time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends"}
	require.NoError(t, groupRepo.Create(ctx, group))
	groupSide := seedContact(t, contactRepo, "owner-1", "Ana")
	require.NoError(t, groupRepo.AddMember(ctx, group.ID, groupSide.ID))
	mirrorOnly := seedContact(t, contactRepo, "owner-1", "Bruno", group.ID)
	nonMember := seedContact(t, contactRepo, "owner-1", "Carla")

	result, err := svc.BulkRemove(ctx, group.ID, "owner-1", []string{groupSide.ID, mirrorOnly.ID, nonMember.ID, "missing"})
	require.NoError(t, err)

	// Removing a membership held on either side counts as a change; removing
	// a non-member is a silent no-op, not a failure.
	assert.ElementsMatch(t, []string{groupSide.ID, mirrorOnly.ID}, result.Changed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].ID)

	gotContact, err := contactRepo.GetByID(ctx, mirrorOnly.ID)
	require.NoError(t, err)
	assert.Empty(t, gotContact.GroupIDs)
}

func TestGroupUpdatePreservesMembers(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	groupRepo := newMockGroupRepository()
	svc := newTestGroupService(groupRepo, newMockContactRepository(), now)
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-1", Name: "Friends", Type: "friends", MemberIDs: []string{"c1"}, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, groupRepo.Create(ctx, group))

	update := &domain.Group{ID: group.ID, Name: "Close friends", Type: ""}
	require.NoError(t, svc.Update(ctx, "owner-1", update))

	assert.Equal(t, []string{"c1"}, update.MemberIDs, "member list is not touched by a rename")
	assert.Equal(t, "friends", update.Type, "empty type keeps the stored one")
	assert.Equal(t, group.CreatedAt, update.CreatedAt)
}

func TestGroupOwnership(t *testing.T) {
	groupRepo := newMockGroupRepository()
	svc := newTestGroupService(groupRepo, newMockContactRepository(), time.Now())
	ctx := context.Background()

	group := &domain.Group{OwnerID: "owner-2", Name: "Theirs"}
	require.NoError(t, groupRepo.Create(ctx, group))

	_, err := svc.Get(ctx, group.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	err = svc.Delete(ctx, group.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Get(ctx, "missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
