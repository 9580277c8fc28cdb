package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"keepintouch/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

// NewGroupRepository returns a domain.GroupRepository implemented with Postgres.
func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{DB: db}
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (owner_id, name, type, description, member_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		g.OwnerID, g.Name, g.Type, g.Description, pq.Array(g.MemberIDs), g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `
		SELECT id, owner_id, name, type, description, member_ids, created_at, updated_at
		FROM groups
		WHERE id = $1
	`
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Group, error) {
	query := `
		SELECT id, owner_id, name, type, description, member_ids, created_at, updated_at
		FROM groups
		WHERE owner_id = $1
		ORDER BY name, id
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*domain.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) Update(ctx context.Context, g *domain.Group) error {
	query := `
		UPDATE groups SET name = $2, type = $3, description = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, g.ID, g.Name, g.Type, g.Description, g.UpdatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *groupRepository) AddMember(ctx context.Context, groupID, contactID string) error {
	// The guard on member_ids makes a duplicate add a no-op; the guard on id
	// distinguishes "already a member" from "no such group".
	query := `
		UPDATE groups
		SET member_ids = array_append(member_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(member_ids))
	`
	result, err := r.DB.ExecContext(ctx, query, groupID, contactID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.ensureExists(ctx, groupID)
	}
	return nil
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, contactID string) error {
	query := `
		UPDATE groups
		SET member_ids = array_remove(member_ids, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(member_ids)
	`
	result, err := r.DB.ExecContext(ctx, query, groupID, contactID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.ensureExists(ctx, groupID)
	}
	return nil
}

// ensureExists turns a zero-rows membership update into either a no-op
// success (group exists, member set already as requested) or ErrNotFound.
func (r *groupRepository) ensureExists(ctx context.Context, groupID string) error {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM groups WHERE id = $1`, groupID).Scan(&one)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	return err
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	g := &domain.Group{}
	var memberIDs []string
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Type, &g.Description,
		pq.Array(&memberIDs), &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if memberIDs == nil {
		memberIDs = []string{}
	}
	g.MemberIDs = memberIDs
	return g, nil
}
