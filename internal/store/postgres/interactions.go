package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

type interactions struct{ db *sql.DB }

const selectInteractionColumns = `interaction_id, kind, user_id, target_id, text, creation_time`

func scanInteraction(r rowScanner) (*model.Interaction, error) {
	var out model.Interaction
	var kind string
	if err := r.Scan(&out.InteractionID, &kind, &out.UserID, &out.TargetID, &out.Text, &out.CreationTime); err != nil {
		return nil, err
	}
	out.Kind = model.InteractionKind(kind)
	return &out, nil
}

// Add relies on the partial unique index for share, like and follow: a
// conflicting insert is skipped and the existing row is returned instead.
func (i *interactions) Add(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("interaction kind %q: %w", in.Kind, model.ErrValidation)
	}
	id := in.InteractionID
	if id == "" {
		id = uuid.New().String()
	}
	row := i.db.QueryRowContext(ctx, `
        INSERT INTO interactions (interaction_id, kind, user_id, target_id, text)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT DO NOTHING
        RETURNING `+selectInteractionColumns,
		id, string(in.Kind), in.UserID, in.TargetID, in.Text)
	out, err := scanInteraction(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapErr(err, "add "+string(in.Kind))
	}
	row = i.db.QueryRowContext(ctx, `
        SELECT `+selectInteractionColumns+`
        FROM interactions WHERE kind=$1 AND user_id=$2 AND target_id=$3
        ORDER BY creation_time ASC LIMIT 1
    `, string(in.Kind), in.UserID, in.TargetID)
	out, err = scanInteraction(row)
	if err != nil {
		return nil, mapErr(err, "get existing "+string(in.Kind))
	}
	return out, nil
}

func (i *interactions) Remove(ctx context.Context, kind model.InteractionKind, userID, targetID string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM interactions WHERE kind=$1 AND user_id=$2 AND target_id=$3`,
		string(kind), userID, targetID)
	return mapErr(err, "remove "+string(kind))
}

func (i *interactions) RemoveComment(ctx context.Context, commentID string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM interactions WHERE interaction_id=$1 AND kind='comment'`, commentID)
	return mapErr(err, "remove comment")
}

func (i *interactions) Count(ctx context.Context, userID string, kind model.InteractionKind) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, `SELECT count(*) FROM interactions WHERE user_id=$1 AND kind=$2`,
		userID, string(kind)).Scan(&n)
	if err != nil {
		return 0, mapErr(err, "count "+string(kind))
	}
	return n, nil
}

func (i *interactions) List(ctx context.Context, userID string, kind model.InteractionKind, limit int) ([]*model.Interaction, error) {
	q := `SELECT ` + selectInteractionColumns + `
        FROM interactions WHERE user_id=$1 AND kind=$2
        ORDER BY creation_time DESC, interaction_id DESC`
	args := []any{userID, string(kind)}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err, "list "+string(kind))
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, mapErr(rows.Err(), "read rows")
}

func (i *interactions) Matching(ctx context.Context, userID string, kind model.InteractionKind, targetIDs []string) (map[string]bool, error) {
	res := make(map[string]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return res, nil
	}
	rows, err := i.db.QueryContext(ctx, `
        SELECT DISTINCT target_id FROM interactions
        WHERE user_id=$1 AND kind=$2 AND target_id = ANY($3)
    `, userID, string(kind), targetIDs)
	if err != nil {
		return nil, mapErr(err, "match "+string(kind))
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res[id] = true
	}
	return res, mapErr(rows.Err(), "read rows")
}
