package mysql

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"tripplanner/internal/domain"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 50
)

// Repo stores plan documents and the per-author plan index.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// etagOf is a weak validator over the stored JSON body.
func etagOf(b []byte) string {
	sum := sha1.Sum(b)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// Save upserts one document and returns its ETag.
func (r *Repo) Save(ctx context.Context, planKey, document string, data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", document, err)
	}
	tag := etagOf(b)
	if _, err := r.db.ExecContext(ctx, upsertDocumentSQL, planKey, document, string(b), tag); err != nil {
		return "", err
	}
	return tag, nil
}

func (r *Repo) Load(ctx context.Context, planKey, document string) ([]byte, string, error) {
	var body []byte
	var tag string
	if err := r.db.QueryRowContext(ctx, getDocumentSQL, planKey, document).Scan(&body, &tag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	return body, tag, nil
}

func (r *Repo) RecordPlan(ctx context.Context, p domain.PlanSummary) error {
	_, err := r.db.ExecContext(ctx, insertPlanSQL,
		p.PlanKey,
		p.Author,
		p.Title,
		p.Region,
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.Days,
	)
	return err
}

func (r *Repo) ListPlans(ctx context.Context, author string, limit int) ([]domain.PlanSummary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.QueryContext(ctx, listPlansSQL, author, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PlanSummary{}
	for rows.Next() {
		var p domain.PlanSummary
		if err := rows.Scan(&p.PlanKey, &p.Author, &p.Title, &p.Region,
			&p.StartDate, &p.EndDate, &p.Days, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
