package sqlgraph

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/graph"
)

// IsEmpty reports whether the graph has no nodes.
func (db *DB) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM (SELECT 1 FROM nodes LIMIT 1)`).Scan(&n); err != nil {
		return false, fault("is empty", err)
	}
	return n == 0, nil
}

// Snapshot reads the whole graph ordered by id.
func (db *DB) Snapshot(ctx context.Context) (*graph.Snapshot, error) {
	snap := &graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	err := db.withTx(ctx, "snapshot", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, label, props FROM nodes ORDER BY id`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var (
				n   graph.Node
				lbl string
				raw string
			)
			if err := rows.Scan(&n.ID, &lbl, &raw); err != nil {
				rows.Close()
				return err
			}
			if n.Props, err = decodeProps(raw); err != nil {
				rows.Close()
				return fmt.Errorf("decode node %d: %w", n.ID, err)
			}
			n.Labels = []string{lbl}
			snap.Nodes = append(snap.Nodes, n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		rows, err = tx.QueryContext(ctx, `SELECT id, type, start_id, end_id, props FROM edges ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e   graph.Edge
				raw string
			)
			if err := rows.Scan(&e.ID, &e.Type, &e.Start, &e.End, &raw); err != nil {
				return err
			}
			if e.Props, err = decodeProps(raw); err != nil {
				return fmt.Errorf("decode relationship %d: %w", e.ID, err)
			}
			snap.Edges = append(snap.Edges, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Replace deletes every relationship and node, then recreates s in the same transaction.
// Serialized node ids are resolved to the new rows through an in-memory table.
func (db *DB) Replace(ctx context.Context, s *graph.Snapshot) (graph.ReplaceStats, error) {
	var stats graph.ReplaceStats
	err := db.withTx(ctx, "replace", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return err
		}

		created := make(map[int64]int64, len(s.Nodes))
		for _, n := range s.Nodes {
			if len(n.Labels) != 1 {
				return fmt.Errorf("%w: node %d has %d labels", apperr.ErrCorruptBackup, n.ID, len(n.Labels))
			}
			if _, dup := created[n.ID]; dup {
				return fmt.Errorf("%w: duplicate node id %d", apperr.ErrCorruptBackup, n.ID)
			}
			id, err := insertNode(ctx, tx, n.Labels[0], n.Props)
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: node %d: duplicate login", apperr.ErrCorruptBackup, n.ID)
			}
			if err != nil {
				return err
			}
			created[n.ID] = id
		}

		for _, e := range s.Edges {
			start, ok := created[e.Start]
			if !ok {
				return fmt.Errorf("%w: relationship %d: missing start node %d", apperr.ErrCorruptBackup, e.ID, e.Start)
			}
			end, ok := created[e.End]
			if !ok {
				return fmt.Errorf("%w: relationship %d: missing end node %d", apperr.ErrCorruptBackup, e.ID, e.End)
			}
			if _, err := insertEdge(ctx, tx, e.Type, start, end, e.Props); err != nil {
				return err
			}
		}

		stats = graph.ReplaceStats{Nodes: len(s.Nodes), Edges: len(s.Edges)}
		return nil
	})
	if err != nil {
		return graph.ReplaceStats{}, err
	}
	return stats, nil
}
