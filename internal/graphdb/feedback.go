package graphdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/models"
)

// CreateUserFeedback records a review by sender about recipient.
// It returns false when either user does not exist.
func (db *DB) CreateUserFeedback(ctx context.Context, sender, recipient, text string, estimation int64) (bool, error) {
	return write(ctx, db, "create user feedback", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (s:User {login: $sender}), (r:User {login: $recipient})
			CREATE (s)-[:Make]->(f:Feedback {text: $text})-[:About {estimation: $estimation}]->(r)
			RETURN 1 AS created`,
			map[string]any{"sender": sender, "recipient": recipient, "text": text, "estimation": estimation})
		return len(records) > 0, err
	})
}

// GetUserFeedback returns the reviews about login in creation order. found is false when
// the user does not exist.
func (db *DB) GetUserFeedback(ctx context.Context, login string) ([]models.UserFeedback, bool, error) {
	type result struct {
		list  []models.UserFeedback
		found bool
	}
	res, err := read(ctx, db, "get user feedback", func(tx neo4j.ManagedTransaction) (result, error) {
		records, err := collect(ctx, tx, `
			MATCH (r:User {login: $login})
			OPTIONAL MATCH (s:User)-[:Make]->(f:Feedback)-[ab:About]->(r)
			RETURN s.login AS author, f.text AS text, ab.estimation AS estimation
			ORDER BY id(f)`,
			map[string]any{"login": login})
		if err != nil || len(records) == 0 {
			return result{}, err
		}
		out := result{list: []models.UserFeedback{}, found: true}
		for _, rec := range records {
			author := recordValue(rec, "author")
			if author == nil {
				continue
			}
			out.list = append(out.list, models.UserFeedback{
				Author:     graph.String(author),
				Text:       graph.String(recordValue(rec, "text")),
				Estimation: graph.Int(recordValue(rec, "estimation")),
			})
		}
		return out, nil
	})
	return res.list, res.found, err
}

// DeleteUserFeedback removes every review by sender about recipient.
// It returns false when there was none.
func (db *DB) DeleteUserFeedback(ctx context.Context, sender, recipient string) (bool, error) {
	return write(ctx, db, "delete user feedback", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (:User {login: $sender})-[:Make]->(f:Feedback)-[:About]->(:User {login: $recipient})
			DETACH DELETE f
			RETURN count(*) AS deleted`,
			map[string]any{"sender": sender, "recipient": recipient})
		if err != nil || len(records) == 0 {
			return false, err
		}
		return graph.Int(recordValue(records[0], "deleted")) > 0, nil
	})
}

// CreateAnnouncementFeedback records a comment by sender about owner's announcement number.
// It returns false when the sender or the announcement does not exist.
func (db *DB) CreateAnnouncementFeedback(ctx context.Context, sender, owner string, number int64, text string) (bool, error) {
	return write(ctx, db, "create announcement feedback", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (s:User {login: $sender})
			MATCH (:User {login: $owner})-[:Create {number: $number}]->(a:Announcement)
			CREATE (s)-[:Make]->(f:Feedback {text: $text})-[:About]->(a)
			RETURN 1 AS created`,
			map[string]any{"sender": sender, "owner": owner, "number": number, "text": text})
		return len(records) > 0, err
	})
}

// GetAnnouncementFeedback returns the comments about owner's announcement number in creation
// order. found is false when the announcement does not exist.
func (db *DB) GetAnnouncementFeedback(ctx context.Context, owner string, number int64) ([]models.AnnouncementFeedback, bool, error) {
	type result struct {
		list  []models.AnnouncementFeedback
		found bool
	}
	res, err := read(ctx, db, "get announcement feedback", func(tx neo4j.ManagedTransaction) (result, error) {
		records, err := collect(ctx, tx, `
			MATCH (:User {login: $owner})-[:Create {number: $number}]->(a:Announcement)
			OPTIONAL MATCH (s:User)-[:Make]->(f:Feedback)-[:About]->(a)
			RETURN s.login AS author, f.text AS text
			ORDER BY id(f)`,
			map[string]any{"owner": owner, "number": number})
		if err != nil || len(records) == 0 {
			return result{}, err
		}
		out := result{list: []models.AnnouncementFeedback{}, found: true}
		for _, rec := range records {
			author := recordValue(rec, "author")
			if author == nil {
				continue
			}
			out.list = append(out.list, models.AnnouncementFeedback{
				Author: graph.String(author),
				Text:   graph.String(recordValue(rec, "text")),
			})
		}
		return out, nil
	})
	return res.list, res.found, err
}

// DeleteAnnouncementFeedback removes every comment by sender about owner's announcement number.
// It returns false when there was none.
func (db *DB) DeleteAnnouncementFeedback(ctx context.Context, sender, owner string, number int64) (bool, error) {
	return write(ctx, db, "delete announcement feedback", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, `
			MATCH (:User {login: $owner})-[:Create {number: $number}]->(a:Announcement)
			MATCH (:User {login: $sender})-[:Make]->(f:Feedback)-[:About]->(a)
			DETACH DELETE f
			RETURN count(*) AS deleted`,
			map[string]any{"sender": sender, "owner": owner, "number": number})
		if err != nil || len(records) == 0 {
			return false, err
		}
		return graph.Int(recordValue(records[0], "deleted")) > 0, nil
	})
}
