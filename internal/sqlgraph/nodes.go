package sqlgraph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findUser returns the node id and properties of the user with login, or id 0.
func findUser(ctx context.Context, q querier, login string) (int64, map[string]any, error) {
	var (
		id  int64
		raw string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, props FROM nodes WHERE label = 'User' AND json_extract(props, '$.login') = ?`,
		login,
	).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	props, err := decodeProps(raw)
	if err != nil {
		return 0, nil, fmt.Errorf("decode user %q: %w", login, err)
	}
	return id, props, nil
}

// findAnnouncement returns the node id of owner's announcement number, or 0.
func findAnnouncement(ctx context.Context, q querier, owner string, number int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT a.id FROM edges c
		JOIN nodes u ON u.id = c.start_id AND u.label = 'User'
		JOIN nodes a ON a.id = c.end_id AND a.label = 'Announcement'
		WHERE c.type = 'Create'
		  AND json_extract(u.props, '$.login') = ?
		  AND json_extract(c.props, '$.number') = ?
	`, owner, number).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func nodeProps(ctx context.Context, q querier, id int64) (map[string]any, error) {
	var raw string
	if err := q.QueryRowContext(ctx, `SELECT props FROM nodes WHERE id = ?`, id).Scan(&raw); err != nil {
		return nil, err
	}
	return decodeProps(raw)
}

func insertNode(ctx context.Context, q querier, label string, props map[string]any) (int64, error) {
	raw, err := encodeProps(props)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `INSERT INTO nodes (label, props) VALUES (?, ?)`, label, raw)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertEdge(ctx context.Context, q querier, typ string, start, end int64, props map[string]any) (int64, error) {
	raw, err := encodeProps(props)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO edges (type, start_id, end_id, props) VALUES (?, ?, ?, ?)`,
		typ, start, end, raw,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// mergeProps overwrites the given keys of node id, keeping the rest.
func mergeProps(ctx context.Context, q querier, id int64, set map[string]any) error {
	props, err := nodeProps(ctx, q, id)
	if err != nil {
		return err
	}
	maps.Copy(props, set)
	raw, err := encodeProps(props)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `UPDATE nodes SET props = ? WHERE id = ?`, raw, id)
	return err
}

// detachDelete removes nodes together with every relationship touching them.
func detachDelete(ctx context.Context, q querier, ids ...int64) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `DELETE FROM edges WHERE start_id = ? OR end_id = ?`, id, id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// feedbackAbout returns the Feedback nodes whose About relationship ends at target.
func feedbackAbout(ctx context.Context, q querier, target int64) ([]int64, error) {
	return ids(ctx, q, `
		SELECT f.id FROM edges ab
		JOIN nodes f ON f.id = ab.start_id AND f.label = 'Feedback'
		WHERE ab.type = 'About' AND ab.end_id = ?
	`, target)
}

func ids(ctx context.Context, q querier, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
