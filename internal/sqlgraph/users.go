package sqlgraph

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/models"
)

// UserExists reports whether a user with login exists.
func (db *DB) UserExists(ctx context.Context, login string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM nodes WHERE label = 'User' AND json_extract(props, '$.login') = ?`,
		login,
	).Scan(&n)
	if err != nil {
		return false, fault("user exists", err)
	}
	return n > 0, nil
}

// GetUser returns the user with login, or nil.
func (db *DB) GetUser(ctx context.Context, login string) (*models.User, error) {
	id, props, err := findUser(ctx, db.conn, login)
	if err != nil {
		return nil, fault("get user", err)
	}
	if id == 0 {
		return nil, nil
	}
	return graph.UserFromProps(props), nil
}

// CreateUser inserts a user. It returns false when the login is taken.
func (db *DB) CreateUser(ctx context.Context, u models.NewUser) (bool, error) {
	hash, err := db.hasher.Hash(u.Password)
	if err != nil {
		return false, fmt.Errorf("sqlgraph: hash password: %w", err)
	}

	created := false
	err = db.withTx(ctx, "create user", func(tx *sql.Tx) error {
		id, _, err := findUser(ctx, tx, u.Login)
		if err != nil || id != 0 {
			return err
		}
		if _, err := insertNode(ctx, tx, graph.LabelUser, graph.NewUserProps(u, hash, db.now())); err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// EditUser overwrites the profile fields of login and bumps updated_at.
func (db *DB) EditUser(ctx context.Context, login string, p models.UserProfile) (bool, error) {
	set := graph.ProfileProps(p)
	set[graph.PropUpdatedAt] = db.now()
	return db.updateUser(ctx, "edit user", login, set)
}

// SetUserStatus sets the status of login and bumps updated_at.
func (db *DB) SetUserStatus(ctx context.Context, login, status string) (bool, error) {
	return db.updateUser(ctx, "set user status", login, map[string]any{
		graph.PropStatus:    status,
		graph.PropUpdatedAt: db.now(),
	})
}

func (db *DB) updateUser(ctx context.Context, op, login string, set map[string]any) (bool, error) {
	found := false
	err := db.withTx(ctx, op, func(tx *sql.Tx) error {
		id, _, err := findUser(ctx, tx, login)
		if err != nil || id == 0 {
			return err
		}
		found = true
		return mergeProps(ctx, tx, id, set)
	})
	return found, err
}

// AuthorizeUser reports whether login exists and password matches its stored credential.
// Legacy plaintext credentials are replaced by a hash on the first successful check.
func (db *DB) AuthorizeUser(ctx context.Context, login, password string) (bool, error) {
	ok := false
	err := db.withTx(ctx, "authorize user", func(tx *sql.Tx) error {
		id, props, err := findUser(ctx, tx, login)
		if err != nil || id == 0 {
			return err
		}
		match, upgrade, err := db.hasher.Verify(password, graph.String(props[graph.PropPassword]))
		if err != nil {
			return fmt.Errorf("verify password: %w", err)
		}
		ok = match
		if !upgrade {
			return nil
		}
		hash, err := db.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		return mergeProps(ctx, tx, id, map[string]any{graph.PropPassword: hash})
	})
	return ok, err
}

// DeleteUser removes login with their announcements, the feedback about those announcements,
// the feedback they wrote and the feedback about them.
func (db *DB) DeleteUser(ctx context.Context, login string) (bool, error) {
	found := false
	err := db.withTx(ctx, "delete user", func(tx *sql.Tx) error {
		uid, _, err := findUser(ctx, tx, login)
		if err != nil || uid == 0 {
			return err
		}
		found = true

		listings, err := ids(ctx, tx,
			`SELECT end_id FROM edges WHERE type = 'Create' AND start_id = ?`, uid)
		if err != nil {
			return err
		}
		doomed := append([]int64(nil), listings...)
		for _, a := range listings {
			fb, err := feedbackAbout(ctx, tx, a)
			if err != nil {
				return err
			}
			doomed = append(doomed, fb...)
		}
		authored, err := ids(ctx, tx,
			`SELECT end_id FROM edges WHERE type = 'Make' AND start_id = ?`, uid)
		if err != nil {
			return err
		}
		received, err := feedbackAbout(ctx, tx, uid)
		if err != nil {
			return err
		}
		doomed = append(doomed, authored...)
		doomed = append(doomed, received...)
		doomed = append(doomed, uid)
		return detachDelete(ctx, tx, doomed...)
	})
	return found, err
}
