package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vanshavali/familytree/common/db"
	"github.com/vanshavali/familytree/common/models"
)

// SQLiteMemberRepository handles family_members in the embedded store.
// Ids are stored as text.
type SQLiteMemberRepository struct {
	db *db.SQLite
}

// NewSQLiteMemberRepository creates a new member repository
func NewSQLiteMemberRepository(database *db.SQLite) *SQLiteMemberRepository {
	return &SQLiteMemberRepository{db: database}
}

// ListByOwner retrieves every member of an owner's tree in fetch order
func (r *SQLiteMemberRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM family_members
		WHERE owner_id = ?
		ORDER BY generation_id ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
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
func (r *SQLiteMemberRepository) Get(ctx context.Context, owner, id uuid.UUID) (*models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM family_members
		WHERE owner_id = ? AND id = ?
	`

	m, err := scanMember(r.db.QueryRowContext(ctx, query, owner.String(), id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return m, nil
}

// Insert creates a member
func (r *SQLiteMemberRepository) Insert(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO family_members (` + memberColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := memberArgs(m)
	args[0], args[1], args[2] = m.ID.String(), m.OwnerID.String(), nullableID(m.ParentID)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isSQLiteUnique(err) {
			return fmt.Errorf("member %s: %w", m.ID, models.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}

	return nil
}

// Update replaces a member's mutable fields and parent
func (r *SQLiteMemberRepository) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE family_members
		SET parent_id = ?, name = ?, address = ?, mobile = ?, dob = ?, is_alive = ?,
			generation_id = ?, occupation = ?, education = ?, facebook_id = ?,
			relation = ?, photo_url = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		nullableID(m.ParentID),
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
		m.OwnerID.String(),
		m.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	return expectRows(res, 1, m.ID)
}

// Delete removes one member
func (r *SQLiteMemberRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM family_members WHERE owner_id = ? AND id = ?`, owner.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	return expectRows(res, 1, id)
}

// DeleteTree removes every id in one transaction
func (r *SQLiteMemberRepository) DeleteTree(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `DELETE FROM family_members WHERE owner_id = ? AND id = ?`, owner.String(), id.String())
			if err != nil {
				return fmt.Errorf("failed to delete member: %w", err)
			}
			if err := expectRows(res, 1, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reparent moves the children of from under to and deletes from
func (r *SQLiteMemberRepository) Reparent(ctx context.Context, owner, from uuid.UUID, to *uuid.UUID) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE family_members SET parent_id = ?, updated_at = ? WHERE owner_id = ? AND parent_id = ?`,
			nullableID(to), time.Now().UTC(), owner.String(), from.String(),
		); err != nil {
			return fmt.Errorf("failed to reparent children: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM family_members WHERE owner_id = ? AND id = ?`, owner.String(), from.String())
		if err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return expectRows(res, 1, from)
	})
}

func (r *SQLiteMemberRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func expectRows(res sql.Result, want int64, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != want {
		return fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
