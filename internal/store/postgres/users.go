package postgres

import (
	"context"
	"database/sql"
	"slices"

	"github.com/google/uuid"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

type users struct{ db *sql.DB }

const selectUserColumns = `user_id, username, email, preferences, interests, creation_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*model.User, error) {
	var out model.User
	var prefs, interests []byte
	if err := r.Scan(&out.UserID, &out.Username, &out.Email, &prefs, &interests, &out.CreationTime); err != nil {
		return nil, err
	}
	var err error
	if out.Preferences, err = unmarshalList(prefs); err != nil {
		return nil, err
	}
	if out.Interests, err = unmarshalList(interests); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	prefs, err := marshalList(m.Preferences)
	if err != nil {
		return nil, err
	}
	interests, err := marshalList(m.Interests)
	if err != nil {
		return nil, err
	}
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, username, email, preferences, interests)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING `+selectUserColumns, id, m.Username, m.Email, prefs, interests)
	out, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "create user")
	}
	return out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE user_id=$1`, userID)
	out, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "get user "+userID)
	}
	return out, nil
}

func (u *users) GetBatch(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	res := make(map[string]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}
	rows, err := u.db.QueryContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, mapErr(err, "get users")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res[usr.UserID] = usr
	}
	return res, mapErr(rows.Err(), "read rows")
}

func (u *users) AddPreference(ctx context.Context, userID, preference string) (*model.User, error) {
	return u.editList(ctx, userID, "preferences", func(cur []string) []string { return addUnique(cur, preference) })
}

func (u *users) RemovePreference(ctx context.Context, userID, preference string) (*model.User, error) {
	return u.editList(ctx, userID, "preferences", func(cur []string) []string { return removeValue(cur, preference) })
}

func (u *users) AddInterest(ctx context.Context, userID, interest string) (*model.User, error) {
	return u.editList(ctx, userID, "interests", func(cur []string) []string { return addUnique(cur, interest) })
}

func (u *users) RemoveInterest(ctx context.Context, userID, interest string) (*model.User, error) {
	return u.editList(ctx, userID, "interests", func(cur []string) []string { return removeValue(cur, interest) })
}

// editList rewrites one of the jsonb list columns under a row lock.
// column is one of a fixed set of identifiers, never user input.
func (u *users) editList(ctx context.Context, userID, column string, edit func([]string) []string) (*model.User, error) {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	if err := tx.QueryRowContext(ctx, `SELECT `+column+` FROM users WHERE user_id=$1 FOR UPDATE`, userID).Scan(&raw); err != nil {
		return nil, mapErr(err, "get user "+userID)
	}
	cur, err := unmarshalList(raw)
	if err != nil {
		return nil, err
	}
	next, err := marshalList(edit(cur))
	if err != nil {
		return nil, err
	}
	row := tx.QueryRowContext(ctx, `UPDATE users SET `+column+`=$2 WHERE user_id=$1 RETURNING `+selectUserColumns, userID, next)
	out, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "update user "+userID)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr(err, "commit")
	}
	return out, nil
}

func addUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}
