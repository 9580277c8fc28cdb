package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"keepintouch/internal/domain"
)

const inviteTokenBytes = 32

var inviteEmailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type inviteService struct {
	inviteRepo     domain.InviteRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	appOrigin      string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewInviteService creates an InviteService. appOrigin is the public web app
// origin used to build invite links. emailService may be nil to skip sending.
func NewInviteService(inviteRepo domain.InviteRepository, userRepo domain.UserRepository, emailService domain.EmailService, appOrigin string, timeout time.Duration) domain.InviteService {
	return &inviteService{
		inviteRepo:     inviteRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		appOrigin:      strings.TrimSuffix(appOrigin, "/"),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *inviteService) Issue(ctx context.Context, ownerID, contactEmail string, expiresAt time.Time) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contactEmail = strings.TrimSpace(strings.ToLower(contactEmail))
	if !inviteEmailRegexp.MatchString(contactEmail) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrValidation)
	}
	now := s.now()
	if expiresAt.Before(now) {
		return nil, fmt.Errorf("%w: expiry must not be in the past", domain.ErrValidation)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	inv := &domain.Invite{
		OwnerID:      ownerID,
		ContactEmail: contactEmail,
		Token:        token,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	// A failed send does not void the stored invite; the owner can still
	// copy the link from the invite list.
	if s.emailService != nil {
		data := &domain.InviteEmailData{
			Email:      contactEmail,
			OwnerName:  s.ownerName(ctx, ownerID),
			InviteLink: fmt.Sprintf("%s/invite/%s", s.appOrigin, token),
			ExpiresAt:  expiresAt.Format("January 2, 2006"),
		}
		if err := s.emailService.SendInvite(ctx, data); err != nil {
			log.Printf("[INVITE] failed to send invite email to %s: %v", contactEmail, err)
		}
	}
	return inv, nil
}

func (s *inviteService) Accept(ctx context.Context, token string) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	now := s.now()
	// Re-acceptance is rejected, not silently repeated.
	if inv.AcceptedAt != nil {
		return nil, domain.ErrConflict
	}
	if inv.IsExpired(now) {
		return nil, domain.ErrExpired
	}
	if err := s.inviteRepo.MarkAccepted(ctx, inv.ID, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mark accepted: %w", err)
	}
	inv.AcceptedAt = &now
	return inv, nil
}

func (s *inviteService) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

func (s *inviteService) Revoke(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invite: %w", err)
	}
	if inv.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	// Revocation is allowed in any derived state, including accepted and
	// expired; it is a hard delete.
	if err := s.inviteRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

func (s *inviteService) List(ctx context.Context, ownerID string, p domain.PaginationParams) ([]*domain.Invite, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invites, total, err := s.inviteRepo.ListByOwner(ctx, ownerID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list invites: %w", err)
	}
	return invites, total, nil
}

func (s *inviteService) ownerName(ctx context.Context, ownerID string) string {
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil || owner == nil {
		return "Someone you know"
	}
	if name := strings.TrimSpace(owner.Username); name != "" {
		return name
	}
	if owner.Email != "" {
		return owner.Email
	}
	return "Someone you know"
}

func generateInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
