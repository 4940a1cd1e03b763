package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vanshavali/familytree/common/db"
	"github.com/vanshavali/familytree/common/models"
)

// MemberRepository handles family_members in Postgres
type MemberRepository struct {
	db *db.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(database *db.DB) *MemberRepository {
	return &MemberRepository{db: database}
}

// ListByOwner retrieves every member of an owner's tree in fetch order
func (r *MemberRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM family_members
		WHERE owner_id = $1
		ORDER BY generation_id ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// Get retrieves one member
func (r *MemberRepository) Get(ctx context.Context, owner, id uuid.UUID) (*models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM family_members
		WHERE owner_id = $1 AND id = $2
	`

	m, err := scanMember(r.db.QueryRow(ctx, query, owner, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return m, nil
}

// Insert creates a member
func (r *MemberRepository) Insert(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO family_members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	if _, err := r.db.Exec(ctx, query, memberArgs(m)...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s: %w", m.ID, models.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}

	return nil
}

// Update replaces a member's mutable fields and parent
func (r *MemberRepository) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE family_members
		SET parent_id = $3, name = $4, address = $5, mobile = $6, dob = $7, is_alive = $8,
			generation_id = $9, occupation = $10, education = $11, facebook_id = $12,
			relation = $13, photo_url = $14, updated_at = $15
		WHERE owner_id = $1 AND id = $2
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		m.OwnerID,
		m.ID,
		m.ParentID,
		m.Name,
		m.Address,
		m.Mobile,
		m.DOB,
		m.IsAlive,
		m.GenerationID,
		m.Occupation,
		m.Education,
		m.FacebookID,
		string(m.Relation),
		m.PhotoURL,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", m.ID, models.ErrNotFound)
	}

	return nil
}

// Delete removes one member
func (r *MemberRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	query := `DELETE FROM family_members WHERE owner_id = $1 AND id = $2`

	tag, err := r.db.Exec(ctx, query, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// DeleteTree removes every id in one transaction
func (r *MemberRepository) DeleteTree(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = id.String()
		}

		tag, err := tx.Exec(ctx, `DELETE FROM family_members WHERE owner_id = $1 AND id = ANY($2::uuid[])`, owner, keys)
		if err != nil {
			return fmt.Errorf("failed to delete members: %w", err)
		}
		if int(tag.RowsAffected()) != len(ids) {
			return fmt.Errorf("deleted %d of %d members: %w", tag.RowsAffected(), len(ids), models.ErrNotFound)
		}
		return nil
	})
}

// Reparent moves the children of from under to and deletes from
func (r *MemberRepository) Reparent(ctx context.Context, owner, from uuid.UUID, to *uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE family_members SET parent_id = $3, updated_at = now() WHERE owner_id = $1 AND parent_id = $2`,
			owner, from, to,
		); err != nil {
			return fmt.Errorf("failed to reparent children: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM family_members WHERE owner_id = $1 AND id = $2`, owner, from)
		if err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("member %s: %w", from, models.ErrNotFound)
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
