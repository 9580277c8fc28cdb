package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"keepintouch/internal/domain"
)

type contactRepository struct {
	DB *sql.DB
}

// NewContactRepository returns a domain.ContactRepository implemented with Postgres.
func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepository{DB: db}
}

const contactColumns = `
	id, owner_id, first_name, last_name, job_title, date_of_birth,
	email, phone, city, country, notes,
	linkedin, twitter, github, website,
	group_ids, frequency_days, first_connected_at, last_connected_at, next_connect_due_at,
	created_at, updated_at
`

func (r *contactRepository) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (
			owner_id, first_name, last_name, job_title, date_of_birth,
			email, phone, city, country, notes,
			linkedin, twitter, github, website,
			group_ids, frequency_days, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		c.OwnerID, c.FirstName, c.LastName, c.JobTitle, nullTime(c.BirthDate),
		c.Email, c.Phone, c.City, c.Country, c.Notes,
		c.SocialLinks.LinkedIn, c.SocialLinks.Twitter, c.SocialLinks.GitHub, c.SocialLinks.Website,
		pq.Array(c.GroupIDs), c.Connection.FrequencyDays, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *contactRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 ORDER BY first_name, last_name, id`
	return r.queryContacts(ctx, query, ownerID)
}

func (r *contactRepository) ListByGroupSet(ctx context.Context, ownerID, groupID string) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 AND $2 = ANY(group_ids) ORDER BY first_name, last_name, id`
	return r.queryContacts(ctx, query, ownerID, groupID)
}

func (r *contactRepository) Update(ctx context.Context, c *domain.Contact) error {
	query := `
		UPDATE contacts SET
			first_name = $2, last_name = $3, job_title = $4, date_of_birth = $5,
			email = $6, phone = $7, city = $8, country = $9, notes = $10,
			linkedin = $11, twitter = $12, github = $13, website = $14,
			group_ids = $15, updated_at = $16
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.JobTitle, nullTime(c.BirthDate),
		c.Email, c.Phone, c.City, c.Country, c.Notes,
		c.SocialLinks.LinkedIn, c.SocialLinks.Twitter, c.SocialLinks.GitHub, c.SocialLinks.Website,
		pq.Array(c.GroupIDs), c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contactRepository) RemoveGroupRef(ctx context.Context, contactID, groupID string) error {
	// array_remove on an array without the element is a no-op, which is the
	// idempotence the reconciler wants.
	_, err := r.DB.ExecContext(ctx,
		`UPDATE contacts SET group_ids = array_remove(group_ids, $2) WHERE id = $1`,
		contactID, groupID)
	return err
}

func (r *contactRepository) UpdateConnection(ctx context.Context, contactID string, conn *domain.Connection) error {
	query := `
		UPDATE contacts SET
			frequency_days = $2,
			first_connected_at = $3,
			last_connected_at = $4,
			next_connect_due_at = $5,
			updated_at = now()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query,
		contactID, conn.FrequencyDays,
		nullTime(conn.FirstConnectedAt), nullTime(conn.LastConnectedAt), nullTime(conn.NextConnectDueAt),
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contactRepository) AppendConnectionLog(ctx context.Context, contactID string, entry *domain.ConnectionEntry) error {
	query := `
		INSERT INTO connection_logs (contact_id, connected_at, note)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, contactID, entry.ConnectedAt, entry.Note).Scan(&entry.ID)
}

func (r *contactRepository) ListConnectionLog(ctx context.Context, contactID string) ([]domain.ConnectionEntry, error) {
	query := `
		SELECT id, connected_at, note
		FROM connection_logs
		WHERE contact_id = $1
		ORDER BY connected_at DESC, id DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.ConnectionEntry{}
	for rows.Next() {
		var e domain.ConnectionEntry
		if err := rows.Scan(&e.ID, &e.ConnectedAt, &e.Note); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *contactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]*domain.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	c := &domain.Contact{}
	var (
		birth, first, last, next sql.NullTime
		groupIDs                 []string
	)
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.JobTitle, &birth,
		&c.Email, &c.Phone, &c.City, &c.Country, &c.Notes,
		&c.SocialLinks.LinkedIn, &c.SocialLinks.Twitter, &c.SocialLinks.GitHub, &c.SocialLinks.Website,
		pq.Array(&groupIDs), &c.Connection.FrequencyDays, &first, &last, &next,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if groupIDs == nil {
		groupIDs = []string{}
	}
	c.GroupIDs = groupIDs
	c.BirthDate = timePtr(birth)
	c.Connection.FirstConnectedAt = timePtr(first)
	c.Connection.LastConnectedAt = timePtr(last)
	c.Connection.NextConnectDueAt = timePtr(next)
	c.Connection.History = []domain.ConnectionEntry{}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
