package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"keepintouch/internal/domain"
)

type inviteRepository struct {
	DB *sql.DB
}

// NewInviteRepository returns a domain.InviteRepository implemented with Postgres.
func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	query := `
		INSERT INTO invites (owner_id, contact_email, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.OwnerID, inv.ContactEmail, inv.Token, inv.CreatedAt, inv.ExpiresAt,
	).Scan(&inv.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	query := `
		SELECT id, owner_id, contact_email, token, created_at, expires_at, accepted_at
		FROM invites
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	query := `
		SELECT id, owner_id, contact_email, token, created_at, expires_at, accepted_at
		FROM invites
		WHERE token = $1
	`
	return r.getOne(ctx, query, token)
}

func (r *inviteRepository) getOne(ctx context.Context, query string, arg any) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var accepted sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&inv.ID, &inv.OwnerID, &inv.ContactEmail, &inv.Token,
		&inv.CreatedAt, &inv.ExpiresAt, &accepted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.AcceptedAt = timePtr(accepted)
	return inv, nil
}

func (r *inviteRepository) ListByOwner(ctx context.Context, ownerID string, p domain.PaginationParams) ([]*domain.Invite, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invites WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, owner_id, contact_email, token, created_at, expires_at, accepted_at
		FROM invites
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invites := []*domain.Invite{}
	for rows.Next() {
		inv := &domain.Invite{}
		var accepted sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.OwnerID, &inv.ContactEmail, &inv.Token,
			&inv.CreatedAt, &inv.ExpiresAt, &accepted); err != nil {
			return nil, 0, err
		}
		inv.AcceptedAt = timePtr(accepted)
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invites, total, nil
}

func (r *inviteRepository) MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error {
	// The accepted_at IS NULL guard makes acceptance one-shot at the storage
	// layer too; a second accept matches zero rows.
	query := `
		UPDATE invites SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL
	`
	result, err := r.DB.ExecContext(ctx, query, id, acceptedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var one int
		err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM invites WHERE id = $1`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
