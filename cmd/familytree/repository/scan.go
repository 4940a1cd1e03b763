package repository

import (
	"github.com/vanshavali/familytree/common/models"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const memberColumns = `id, owner_id, parent_id, name, address, mobile, dob, is_alive, generation_id,
	occupation, education, facebook_id, relation, photo_url, created_at, updated_at`

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	var relation string
	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.ParentID,
		&m.Name,
		&m.Address,
		&m.Mobile,
		&m.DOB,
		&m.IsAlive,
		&m.GenerationID,
		&m.Occupation,
		&m.Education,
		&m.FacebookID,
		&relation,
		&m.PhotoURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Relation = models.ParseRelation(relation)
	return m, nil
}

// memberArgs lists m in memberColumns order
func memberArgs(m *models.Member) []any {
	return []any{
		m.ID,
		m.OwnerID,
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
		m.CreatedAt,
		m.UpdatedAt,
	}
}
