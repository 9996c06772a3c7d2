package sqlgraph

import (
	"context"
	"database/sql"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/models"
)

// CreateUserFeedback records a review by sender about recipient.
// It returns false when either user does not exist.
func (db *DB) CreateUserFeedback(ctx context.Context, sender, recipient, text string, estimation int64) (bool, error) {
	created := false
	err := db.withTx(ctx, "create user feedback", func(tx *sql.Tx) error {
		sid, _, err := findUser(ctx, tx, sender)
		if err != nil || sid == 0 {
			return err
		}
		rid, _, err := findUser(ctx, tx, recipient)
		if err != nil || rid == 0 {
			return err
		}
		if err := insertFeedback(ctx, tx, sid, rid, text, map[string]any{graph.PropEstimation: estimation}); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// GetUserFeedback returns the reviews about login in creation order. found is false when
// the user does not exist.
func (db *DB) GetUserFeedback(ctx context.Context, login string) ([]models.UserFeedback, bool, error) {
	var (
		out   []models.UserFeedback
		found bool
	)
	err := db.withTx(ctx, "get user feedback", func(tx *sql.Tx) error {
		uid, _, err := findUser(ctx, tx, login)
		if err != nil || uid == 0 {
			return err
		}
		found = true
		rows, err := tx.QueryContext(ctx, `
			SELECT json_extract(s.props, '$.login'), f.props, ab.props
			FROM edges ab
			JOIN nodes f ON f.id = ab.start_id AND f.label = 'Feedback'
			JOIN edges mk ON mk.end_id = f.id AND mk.type = 'Make'
			JOIN nodes s ON s.id = mk.start_id AND s.label = 'User'
			WHERE ab.type = 'About' AND ab.end_id = ?
			ORDER BY f.id
		`, uid)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []models.UserFeedback{}
		for rows.Next() {
			var author, rawFeedback, rawAbout string
			if err := rows.Scan(&author, &rawFeedback, &rawAbout); err != nil {
				return err
			}
			fb, err := decodeProps(rawFeedback)
			if err != nil {
				return err
			}
			about, err := decodeProps(rawAbout)
			if err != nil {
				return err
			}
			out = append(out, models.UserFeedback{
				Author:     author,
				Text:       graph.String(fb[graph.PropText]),
				Estimation: graph.Int(about[graph.PropEstimation]),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

// DeleteUserFeedback removes every review by sender about recipient.
// It returns false when there was none.
func (db *DB) DeleteUserFeedback(ctx context.Context, sender, recipient string) (bool, error) {
	deleted := false
	err := db.withTx(ctx, "delete user feedback", func(tx *sql.Tx) error {
		sid, _, err := findUser(ctx, tx, sender)
		if err != nil || sid == 0 {
			return err
		}
		rid, _, err := findUser(ctx, tx, recipient)
		if err != nil || rid == 0 {
			return err
		}
		doomed, err := feedbackBetween(ctx, tx, sid, rid)
		if err != nil || len(doomed) == 0 {
			return err
		}
		deleted = true
		return detachDelete(ctx, tx, doomed...)
	})
	return deleted, err
}

// CreateAnnouncementFeedback records a comment by sender about owner's announcement number.
// It returns false when the sender or the announcement does not exist.
func (db *DB) CreateAnnouncementFeedback(ctx context.Context, sender, owner string, number int64, text string) (bool, error) {
	created := false
	err := db.withTx(ctx, "create announcement feedback", func(tx *sql.Tx) error {
		sid, _, err := findUser(ctx, tx, sender)
		if err != nil || sid == 0 {
			return err
		}
		aid, err := findAnnouncement(ctx, tx, owner, number)
		if err != nil || aid == 0 {
			return err
		}
		if err := insertFeedback(ctx, tx, sid, aid, text, nil); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// GetAnnouncementFeedback returns the comments about owner's announcement number in creation
// order. found is false when the announcement does not exist.
func (db *DB) GetAnnouncementFeedback(ctx context.Context, owner string, number int64) ([]models.AnnouncementFeedback, bool, error) {
	var (
		out   []models.AnnouncementFeedback
		found bool
	)
	err := db.withTx(ctx, "get announcement feedback", func(tx *sql.Tx) error {
		aid, err := findAnnouncement(ctx, tx, owner, number)
		if err != nil || aid == 0 {
			return err
		}
		found = true
		rows, err := tx.QueryContext(ctx, `
			SELECT json_extract(s.props, '$.login'), f.props
			FROM edges ab
			JOIN nodes f ON f.id = ab.start_id AND f.label = 'Feedback'
			JOIN edges mk ON mk.end_id = f.id AND mk.type = 'Make'
			JOIN nodes s ON s.id = mk.start_id AND s.label = 'User'
			WHERE ab.type = 'About' AND ab.end_id = ?
			ORDER BY f.id
		`, aid)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []models.AnnouncementFeedback{}
		for rows.Next() {
			var author, rawFeedback string
			if err := rows.Scan(&author, &rawFeedback); err != nil {
				return err
			}
			fb, err := decodeProps(rawFeedback)
			if err != nil {
				return err
			}
			out = append(out, models.AnnouncementFeedback{Author: author, Text: graph.String(fb[graph.PropText])})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

// DeleteAnnouncementFeedback removes every comment by sender about owner's announcement number.
// It returns false when there was none.
func (db *DB) DeleteAnnouncementFeedback(ctx context.Context, sender, owner string, number int64) (bool, error) {
	deleted := false
	err := db.withTx(ctx, "delete announcement feedback", func(tx *sql.Tx) error {
		sid, _, err := findUser(ctx, tx, sender)
		if err != nil || sid == 0 {
			return err
		}
		aid, err := findAnnouncement(ctx, tx, owner, number)
		if err != nil || aid == 0 {
			return err
		}
		doomed, err := feedbackBetween(ctx, tx, sid, aid)
		if err != nil || len(doomed) == 0 {
			return err
		}
		deleted = true
		return detachDelete(ctx, tx, doomed...)
	})
	return deleted, err
}

// insertFeedback creates a Feedback node wired author -Make-> feedback -About-> target.
func insertFeedback(ctx context.Context, q querier, author, target int64, text string, aboutProps map[string]any) error {
	fid, err := insertNode(ctx, q, graph.LabelFeedback, map[string]any{graph.PropText: text})
	if err != nil {
		return err
	}
	if _, err := insertEdge(ctx, q, graph.RelAuthoredFeedback, author, fid, nil); err != nil {
		return err
	}
	_, err = insertEdge(ctx, q, graph.RelAbout, fid, target, aboutProps)
	return err
}

// feedbackBetween returns the Feedback nodes written by author about target.
func feedbackBetween(ctx context.Context, q querier, author, target int64) ([]int64, error) {
	return ids(ctx, q, `
		SELECT f.id FROM edges mk
		JOIN nodes f ON f.id = mk.end_id AND f.label = 'Feedback'
		JOIN edges ab ON ab.start_id = f.id AND ab.type = 'About'
		WHERE mk.type = 'Make' AND mk.start_id = ? AND ab.end_id = ?
	`, author, target)
}
