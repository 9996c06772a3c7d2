package sqlgraph

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/models"
)

// CreateAnnouncement adds an announcement for owner under the next free number.
// ok is false when owner does not exist.
//
// The number is max(counter, highest existing number) + 1; the counter on the User node
// is advanced in the same transaction so numbers of deleted announcements are never reused.
func (db *DB) CreateAnnouncement(ctx context.Context, owner string, a models.AnnouncementAttrs) (int64, bool, error) {
	var number int64
	err := db.withTx(ctx, "create announcement", func(tx *sql.Tx) error {
		uid, uprops, err := findUser(ctx, tx, owner)
		if err != nil || uid == 0 {
			return err
		}

		var top int64
		if err := tx.QueryRowContext(ctx, `
			SELECT coalesce(max(json_extract(props, '$.number')), 0)
			FROM edges WHERE type = 'Create' AND start_id = ?
		`, uid).Scan(&top); err != nil {
			return err
		}
		number = max(graph.Int(uprops[graph.PropAnnouncementSeq]), top) + 1
		if err := mergeProps(ctx, tx, uid, map[string]any{graph.PropAnnouncementSeq: number}); err != nil {
			return err
		}

		now := db.now()
		props := graph.AnnouncementProps(a)
		props[graph.PropCreatedAt] = now
		props[graph.PropUpdatedAt] = now
		aid, err := insertNode(ctx, tx, graph.LabelAnnouncement, props)
		if err != nil {
			return err
		}
		_, err = insertEdge(ctx, tx, graph.RelAuthored, uid, aid, map[string]any{graph.PropNumber: number})
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return number, number > 0, nil
}

// GetAnnouncement returns owner's announcement number, or nil.
func (db *DB) GetAnnouncement(ctx context.Context, owner string, number int64) (*models.Announcement, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx, `
		SELECT a.props FROM edges c
		JOIN nodes u ON u.id = c.start_id AND u.label = 'User'
		JOIN nodes a ON a.id = c.end_id AND a.label = 'Announcement'
		WHERE c.type = 'Create'
		  AND json_extract(u.props, '$.login') = ?
		  AND json_extract(c.props, '$.number') = ?
	`, owner, number).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fault("get announcement", err)
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, fault("get announcement", err)
	}
	out := graph.AnnouncementFromProps(props, owner, number)
	return &out, nil
}

// GetAnnouncements returns every announcement matching f, ordered by owner and number.
func (db *DB) GetAnnouncements(ctx context.Context, f listing.Filter) ([]models.Announcement, error) {
	where, args, err := renderFilter(listing.Build(f))
	if err != nil {
		return nil, fault("get announcements", err)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.props, a.props, c.props FROM edges c
		JOIN nodes u ON u.id = c.start_id AND u.label = 'User'
		JOIN nodes a ON a.id = c.end_id AND a.label = 'Announcement'
		WHERE c.type = 'Create' AND `+where+`
		ORDER BY json_extract(u.props, '$.login'), json_extract(c.props, '$.number')
	`, args...)
	if err != nil {
		return nil, fault("get announcements", err)
	}
	defer rows.Close()

	out := []models.Announcement{}
	for rows.Next() {
		var rawUser, rawAnn, rawEdge string
		if err := rows.Scan(&rawUser, &rawAnn, &rawEdge); err != nil {
			return nil, fault("get announcements", err)
		}
		user, err := decodeProps(rawUser)
		if err != nil {
			return nil, fault("get announcements", err)
		}
		ann, err := decodeProps(rawAnn)
		if err != nil {
			return nil, fault("get announcements", err)
		}
		edge, err := decodeProps(rawEdge)
		if err != nil {
			return nil, fault("get announcements", err)
		}
		out = append(out, graph.AnnouncementFromProps(ann, graph.String(user[graph.PropLogin]), graph.Int(edge[graph.PropNumber])))
	}
	if err := rows.Err(); err != nil {
		return nil, fault("get announcements", err)
	}
	return out, nil
}

// EditAnnouncement overwrites the attributes of owner's announcement number and bumps updated_at.
func (db *DB) EditAnnouncement(ctx context.Context, owner string, number int64, a models.AnnouncementAttrs) (bool, error) {
	found := false
	err := db.withTx(ctx, "edit announcement", func(tx *sql.Tx) error {
		id, err := findAnnouncement(ctx, tx, owner, number)
		if err != nil || id == 0 {
			return err
		}
		found = true
		set := graph.AnnouncementProps(a)
		set[graph.PropUpdatedAt] = db.now()
		return mergeProps(ctx, tx, id, set)
	})
	return found, err
}

// DeleteAnnouncement removes owner's announcement number and all feedback about it.
func (db *DB) DeleteAnnouncement(ctx context.Context, owner string, number int64) (bool, error) {
	found := false
	err := db.withTx(ctx, "delete announcement", func(tx *sql.Tx) error {
		id, err := findAnnouncement(ctx, tx, owner, number)
		if err != nil || id == 0 {
			return err
		}
		found = true
		feedback, err := feedbackAbout(ctx, tx, id)
		if err != nil {
			return err
		}
		return detachDelete(ctx, tx, append(feedback, id)...)
	})
	return found, err
}
