package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/graph"
)

// IsEmpty reports whether the graph has no nodes.
func (db *DB) IsEmpty(ctx context.Context) (bool, error) {
	return read(ctx, db, "is empty", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, "MATCH (n) RETURN 1 AS one LIMIT 1", nil)
		return len(records) == 0, err
	})
}

// Snapshot reads the whole graph ordered by internal id.
func (db *DB) Snapshot(ctx context.Context) (*graph.Snapshot, error) {
	return read(ctx, db, "snapshot", func(tx neo4j.ManagedTransaction) (*graph.Snapshot, error) {
		snap := &graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}

		nodes, err := collect(ctx, tx,
			"MATCH (n) RETURN id(n) AS id, labels(n) AS labels, properties(n) AS props ORDER BY id", nil)
		if err != nil {
			return nil, err
		}
		for _, rec := range nodes {
			snap.Nodes = append(snap.Nodes, graph.Node{
				ID:     graph.Int(recordValue(rec, "id")),
				Labels: stringList(recordValue(rec, "labels")),
				Props:  propMap(recordValue(rec, "props")),
			})
		}

		rels, err := collect(ctx, tx, `
			MATCH (a)-[r]->(b)
			RETURN id(r) AS id, type(r) AS type, id(a) AS start, id(b) AS end, properties(r) AS props
			ORDER BY id`, nil)
		if err != nil {
			return nil, err
		}
		for _, rec := range rels {
			snap.Edges = append(snap.Edges, graph.Edge{
				ID:    graph.Int(recordValue(rec, "id")),
				Type:  graph.String(recordValue(rec, "type")),
				Start: graph.Int(recordValue(rec, "start")),
				End:   graph.Int(recordValue(rec, "end")),
				Props: propMap(recordValue(rec, "props")),
			})
		}
		return snap, nil
	})
}

// Replace deletes every relationship and node, then recreates s in the same transaction.
// Nodes are created in batches per label; the element ids the server assigns are kept in an
// in-memory table keyed by serialized id and used to wire the relationships.
func (db *DB) Replace(ctx context.Context, s *graph.Snapshot) (graph.ReplaceStats, error) {
	nodeBatches, err := batchNodes(s.Nodes)
	if err != nil {
		return graph.ReplaceStats{}, err
	}
	for _, e := range s.Edges {
		if !graph.KnownRelType(e.Type) {
			return graph.ReplaceStats{}, fmt.Errorf("%w: relationship %d has unknown type %q", apperr.ErrCorruptBackup, e.ID, e.Type)
		}
	}

	return write(ctx, db, "replace", func(tx neo4j.ManagedTransaction) (graph.ReplaceStats, error) {
		if _, err := collect(ctx, tx, "MATCH ()-[r]->() DELETE r", nil); err != nil {
			return graph.ReplaceStats{}, err
		}
		if _, err := collect(ctx, tx, "MATCH (n) DELETE n", nil); err != nil {
			return graph.ReplaceStats{}, err
		}

		created := make(map[int64]string, len(s.Nodes))
		for _, b := range nodeBatches {
			records, err := collect(ctx, tx,
				fmt.Sprintf("UNWIND $rows AS row CREATE (n:`%s`) SET n = row.props RETURN row.ref AS ref, elementId(n) AS eid", b.key),
				map[string]any{"rows": b.rows})
			if err != nil {
				return graph.ReplaceStats{}, err
			}
			for _, rec := range records {
				created[graph.Int(recordValue(rec, "ref"))] = graph.String(recordValue(rec, "eid"))
			}
		}

		edgeBatches := make(map[string][]any)
		var order []string
		for _, e := range s.Edges {
			start, ok := created[e.Start]
			if !ok {
				return graph.ReplaceStats{}, fmt.Errorf("%w: relationship %d: missing start node %d", apperr.ErrCorruptBackup, e.ID, e.Start)
			}
			end, ok := created[e.End]
			if !ok {
				return graph.ReplaceStats{}, fmt.Errorf("%w: relationship %d: missing end node %d", apperr.ErrCorruptBackup, e.ID, e.End)
			}
			if _, seen := edgeBatches[e.Type]; !seen {
				order = append(order, e.Type)
			}
			edgeBatches[e.Type] = append(edgeBatches[e.Type], map[string]any{
				"start": start,
				"end":   end,
				"props": propsParam(e.Props),
			})
		}
		for _, typ := range order {
			rows := edgeBatches[typ]
			records, err := collect(ctx, tx, fmt.Sprintf(`
				UNWIND $rows AS row
				MATCH (a) WHERE elementId(a) = row.start
				MATCH (b) WHERE elementId(b) = row.end
				CREATE (a)-[r:`+"`%s`"+`]->(b)
				SET r = row.props
				RETURN count(r) AS created`, typ),
				map[string]any{"rows": rows})
			if err != nil {
				return graph.ReplaceStats{}, err
			}
			if len(records) == 0 || graph.Int(recordValue(records[0], "created")) != int64(len(rows)) {
				return graph.ReplaceStats{}, fmt.Errorf("%w: not every %s relationship could be wired", apperr.ErrCorruptBackup, typ)
			}
		}

		return graph.ReplaceStats{Nodes: len(s.Nodes), Edges: len(s.Edges)}, nil
	})
}

type batch struct {
	key  string
	rows []any
}

// batchNodes groups nodes by label in first-seen order and rejects ambiguous input.
func batchNodes(nodes []graph.Node) ([]batch, error) {
	seen := make(map[int64]struct{}, len(nodes))
	index := make(map[string]int)
	var out []batch
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", apperr.ErrCorruptBackup, n.ID)
		}
		seen[n.ID] = struct{}{}
		if len(n.Labels) != 1 || !graph.KnownLabel(n.Labels[0]) {
			return nil, fmt.Errorf("%w: node %d has labels %v", apperr.ErrCorruptBackup, n.ID, n.Labels)
		}
		label := n.Labels[0]
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, batch{key: label})
		}
		out[i].rows = append(out[i].rows, map[string]any{"ref": n.ID, "props": propsParam(n.Props)})
	}
	return out, nil
}

func propsParam(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

func propMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, graph.String(e))
	}
	return out
}
