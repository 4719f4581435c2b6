package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

type contents struct{ db *sql.DB }

const selectContentColumns = `content_id, creator_id, title, description, body, content_type, categories, tags, creation_time, update_time`

func scanContent(r rowScanner) (*model.Content, error) {
	var out model.Content
	var cats, tags []byte
	var updated *time.Time
	if err := r.Scan(&out.ContentID, &out.CreatorID, &out.Title, &out.Description, &out.Body, &out.ContentType,
		&cats, &tags, &out.CreationTime, &updated); err != nil {
		return nil, err
	}
	var err error
	if out.Categories, err = unmarshalList(cats); err != nil {
		return nil, err
	}
	if out.Tags, err = unmarshalList(tags); err != nil {
		return nil, err
	}
	out.UpdateTime = updated
	return &out, nil
}

func (c *contents) Create(ctx context.Context, m *model.Content) (*model.Content, error) {
	id := m.ContentID
	if id == "" {
		id = uuid.New().String()
	}
	cats, err := marshalList(m.Categories)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(m.Tags)
	if err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
        INSERT INTO contents (content_id, creator_id, title, description, body, content_type, categories, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING `+selectContentColumns,
		id, m.CreatorID, m.Title, m.Description, m.Body, m.ContentType, cats, tags)
	out, err := scanContent(row)
	if err != nil {
		return nil, mapErr(err, "create content")
	}
	if err := writeOutbox(ctx, tx, OpUpsertContent, out.ContentID, out); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr(err, "commit")
	}
	return out, nil
}

func (c *contents) Update(ctx context.Context, m *model.Content) (*model.Content, error) {
	cats, err := marshalList(m.Categories)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(m.Tags)
	if err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
        UPDATE contents
        SET title=$2, description=$3, body=$4, content_type=$5, categories=$6, tags=$7, update_time=now()
        WHERE content_id=$1
        RETURNING `+selectContentColumns,
		m.ContentID, m.Title, m.Description, m.Body, m.ContentType, cats, tags)
	out, err := scanContent(row)
	if err != nil {
		return nil, mapErr(err, "update content "+m.ContentID)
	}
	if err := writeOutbox(ctx, tx, OpUpsertContent, out.ContentID, out); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr(err, "commit")
	}
	return out, nil
}

// Delete removes the content and the share, like and comment records that point at it.
func (c *contents) Delete(ctx context.Context, contentID string) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM contents WHERE content_id=$1`, contentID)
	if err != nil {
		return mapErr(err, "delete content "+contentID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr(sql.ErrNoRows, "delete content "+contentID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE target_id=$1 AND kind <> 'follow'`, contentID); err != nil {
		return mapErr(err, "delete content interactions "+contentID)
	}
	if err := writeOutbox(ctx, tx, OpDeleteContent, contentID, map[string]interface{}{"contentId": contentID}); err != nil {
		return err
	}
	return mapErr(tx.Commit(), "commit")
}

func (c *contents) Get(ctx context.Context, contentID string) (*model.Content, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+selectContentColumns+` FROM contents WHERE content_id=$1`, contentID)
	out, err := scanContent(row)
	if err != nil {
		return nil, mapErr(err, "get content "+contentID)
	}
	return out, nil
}

func (c *contents) GetBatch(ctx context.Context, contentIDs []string) (map[string]*model.Content, error) {
	res := make(map[string]*model.Content, len(contentIDs))
	if len(contentIDs) == 0 {
		return res, nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT `+selectContentColumns+` FROM contents WHERE content_id = ANY($1)`, contentIDs)
	if err != nil {
		return nil, mapErr(err, "get contents")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		res[item.ContentID] = item
	}
	return res, mapErr(rows.Err(), "read rows")
}

func (c *contents) Stats(ctx context.Context, contentIDs []string) (map[string]model.ContentStats, error) {
	res := make(map[string]model.ContentStats, len(contentIDs))
	if len(contentIDs) == 0 {
		return res, nil
	}
	rows, err := c.db.QueryContext(ctx, `
        SELECT target_id, kind, count(*)
        FROM interactions
        WHERE target_id = ANY($1) AND kind IN ('share','like','comment')
        GROUP BY target_id, kind
    `, contentIDs)
	if err != nil {
		return nil, mapErr(err, "content stats")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id, kind string
		var n int
		if err := rows.Scan(&id, &kind, &n); err != nil {
			return nil, err
		}
		st := res[id]
		switch model.InteractionKind(kind) {
		case model.KindShare:
			st.ShareCount = n
		case model.KindLike:
			st.LikeCount = n
		case model.KindComment:
			st.CommentCount = n
		}
		res[id] = st
	}
	return res, mapErr(rows.Err(), "read rows")
}

func (c *contents) List(ctx context.Context, req model.ListContentRequest) ([]*model.Content, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+selectContentColumns+`
        FROM contents WHERE content_id > $1
        ORDER BY content_id ASC LIMIT $2
    `, req.AfterID, limit)
	if err != nil {
		return nil, mapErr(err, "list contents")
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Content
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, mapErr(rows.Err(), "read rows")
}
