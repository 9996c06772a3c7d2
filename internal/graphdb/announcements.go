package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/models"
)

// createAnnouncementCypher advances the owner's counter and links the new node in one statement.
// Writing announcement_seq takes the owner's write lock, so concurrent creations queue on it.
const createAnnouncementCypher = `
MATCH (u:User {login: $login})
OPTIONAL MATCH (u)-[c:Create]->(:Announcement)
WITH u, coalesce(max(c.number), 0) AS top
SET u.announcement_seq = CASE WHEN coalesce(u.announcement_seq, 0) > top THEN u.announcement_seq ELSE top END + 1
CREATE (u)-[e:Create {number: u.announcement_seq}]->(a:Announcement)
SET a = $props
RETURN e.number AS number`

// CreateAnnouncement adds an announcement for owner under the next free number.
// ok is false when owner does not exist.
func (db *DB) CreateAnnouncement(ctx context.Context, owner string, a models.AnnouncementAttrs) (int64, bool, error) {
	now := db.now()
	props := graph.AnnouncementProps(a)
	props[graph.PropCreatedAt] = now
	props[graph.PropUpdatedAt] = now

	number, err := write(ctx, db, "create announcement", func(tx neo4j.ManagedTransaction) (int64, error) {
		records, err := collect(ctx, tx, createAnnouncementCypher, map[string]any{"login": owner, "props": props})
		if err != nil || len(records) == 0 {
			return 0, err
		}
		return graph.Int(recordValue(records[0], "number")), nil
	})
	if err != nil {
		return 0, false, err
	}
	return number, number > 0, nil
}

// GetAnnouncement returns owner's announcement number, or nil.
func (db *DB) GetAnnouncement(ctx context.Context, owner string, number int64) (*models.Announcement, error) {
	return read(ctx, db, "get announcement", func(tx neo4j.ManagedTransaction) (*models.Announcement, error) {
		records, err := collect(ctx, tx, `
			MATCH (u:User {login: $login})-[c:Create {number: $number}]->(a:Announcement)
			RETURN a, u.login AS master, c.number AS number`,
			map[string]any{"login": owner, "number": number})
		if err != nil || len(records) == 0 {
			return nil, err
		}
		out, err := announcementFromRecord(records[0])
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// GetAnnouncements returns every announcement matching f, ordered by owner and number.
func (db *DB) GetAnnouncements(ctx context.Context, f listing.Filter) ([]models.Announcement, error) {
	cypher, params, err := listAnnouncementsCypher(listing.Build(f))
	if err != nil {
		return nil, fault("get announcements", err)
	}
	return read(ctx, db, "get announcements", func(tx neo4j.ManagedTransaction) ([]models.Announcement, error) {
		records, err := collect(ctx, tx, cypher, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.Announcement, 0, len(records))
		for _, rec := range records {
			a, err := announcementFromRecord(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
		return out, nil
	})
}

// EditAnnouncement overwrites the attributes of owner's announcement number and bumps updated_at.
func (db *DB) EditAnnouncement(ctx context.Context, owner string, number int64, a models.AnnouncementAttrs) (bool, error) {
	props := graph.AnnouncementProps(a)
	props[graph.PropUpdatedAt] = db.now()
	return write(ctx, db, "edit announcement", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (:User {login: $login})-[:Create {number: $number}]->(a:Announcement)
			SET a += $props
			RETURN 1 AS updated`,
			map[string]any{"login": owner, "number": number, "props": props})
		return len(records) > 0, err
	})
}

// DeleteAnnouncement removes owner's announcement number and all feedback about it.
func (db *DB) DeleteAnnouncement(ctx context.Context, owner string, number int64) (bool, error) {
	return write(ctx, db, "delete announcement", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (:User {login: $login})-[:Create {number: $number}]->(a:Announcement)
			OPTIONAL MATCH (f:Feedback)-[:About]->(a)
			WITH a, collect(f) AS feedback
			FOREACH (x IN feedback | DETACH DELETE x)
			DETACH DELETE a
			RETURN 1 AS deleted`,
			map[string]any{"login": owner, "number": number})
		return len(records) > 0, err
	})
}

func announcementFromRecord(rec *neo4j.Record) (models.Announcement, error) {
	node, ok := nodeValue(rec, "a")
	if !ok {
		return models.Announcement{}, fmt.Errorf("announcement record holds %T", recordValue(rec, "a"))
	}
	master := graph.String(recordValue(rec, "master"))
	number := graph.Int(recordValue(rec, "number"))
	return graph.AnnouncementFromProps(node.Props, master, number), nil
}
