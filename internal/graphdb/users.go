package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/models"
)

// findUser loads the User node with login, or returns nil.
func findUser(ctx context.Context, tx neo4j.ManagedTransaction, login string) (*neo4j.Node, error) {
	cypher, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", graph.LabelUser).WithProperties(map[string]any{graph.PropLogin: login})).
		Return("u").
		Build()
	if err != nil {
		return nil, fmt.Errorf("build user lookup: %w", err)
	}
	records, err := collect(ctx, tx, cypher, params)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	node, ok := nodeValue(records[0], "u")
	if !ok {
		return nil, fmt.Errorf("user lookup returned %T", recordValue(records[0], "u"))
	}
	return &node, nil
}

// setUser overwrites properties of the User node with login and reports whether it exists.
func setUser(ctx context.Context, tx neo4j.ManagedTransaction, login string, props map[string]any) (bool, error) {
	set := make(map[string]any, len(props))
	for k, v := range props {
		set["u."+k] = v
	}
	cypher, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", graph.LabelUser).WithProperties(map[string]any{graph.PropLogin: login})).
		Set(set).
		Return("u").
		Build()
	if err != nil {
		return false, fmt.Errorf("build user update: %w", err)
	}
	records, err := collect(ctx, tx, cypher, params)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// UserExists reports whether a user with login exists.
func (db *DB) UserExists(ctx context.Context, login string) (bool, error) {
	return read(ctx, db, "user exists", func(tx neo4j.ManagedTransaction) (bool, error) {
		node, err := findUser(ctx, tx, login)
		return node != nil, err
	})
}

// GetUser returns the user with login, or nil.
func (db *DB) GetUser(ctx context.Context, login string) (*models.User, error) {
	return read(ctx, db, "get user", func(tx neo4j.ManagedTransaction) (*models.User, error) {
		node, err := findUser(ctx, tx, login)
		if err != nil || node == nil {
			return nil, err
		}
		return graph.UserFromProps(node.Props), nil
	})
}

// CreateUser inserts a user. It returns false when the login is taken.
func (db *DB) CreateUser(ctx context.Context, u models.NewUser) (bool, error) {
	hash, err := db.hasher.Hash(u.Password)
	if err != nil {
		return false, fmt.Errorf("graphdb: hash password: %w", err)
	}
	props := graph.NewUserProps(u, hash, db.now())

	created, err := write(ctx, db, "create user", func(tx neo4j.ManagedTransaction) (bool, error) {
		node, err := findUser(ctx, tx, u.Login)
		if err != nil || node != nil {
			return false, err
		}
		if _, err := collect(ctx, tx, "CREATE (u:User) SET u = $props", map[string]any{"props": props}); err != nil {
			return false, err
		}
		return true, nil
	})
	if isConstraintViolation(err) {
		return false, nil
	}
	return created, err
}

// EditUser overwrites the profile fields of login and bumps updated_at.
func (db *DB) EditUser(ctx context.Context, login string, p models.UserProfile) (bool, error) {
	props := graph.ProfileProps(p)
	props[graph.PropUpdatedAt] = db.now()
	return write(ctx, db, "edit user", func(tx neo4j.ManagedTransaction) (bool, error) {
		return setUser(ctx, tx, login, props)
	})
}

// SetUserStatus sets the status of login and bumps updated_at.
func (db *DB) SetUserStatus(ctx context.Context, login, status string) (bool, error) {
	props := map[string]any{graph.PropStatus: status, graph.PropUpdatedAt: db.now()}
	return write(ctx, db, "set user status", func(tx neo4j.ManagedTransaction) (bool, error) {
		return setUser(ctx, tx, login, props)
	})
}

// AuthorizeUser reports whether login exists and password matches its stored credential.
// Legacy plaintext credentials are replaced by a hash on the first successful check.
func (db *DB) AuthorizeUser(ctx context.Context, login, password string) (bool, error) {
	return write(ctx, db, "authorize user", func(tx neo4j.ManagedTransaction) (bool, error) {
		node, err := findUser(ctx, tx, login)
		if err != nil || node == nil {
			return false, err
		}
		match, upgrade, err := db.hasher.Verify(password, graph.String(node.Props[graph.PropPassword]))
		if err != nil {
			return false, fmt.Errorf("verify password: %w", err)
		}
		if upgrade {
			hash, err := db.hasher.Hash(password)
			if err != nil {
				return false, fmt.Errorf("hash password: %w", err)
			}
			if _, err := setUser(ctx, tx, login, map[string]any{graph.PropPassword: hash}); err != nil {
				return false, err
			}
		}
		return match, nil
	})
}

const deleteUserCypher = `
MATCH (u:User {login: $login})
OPTIONAL MATCH (u)-[:Create]->(a:Announcement)
OPTIONAL MATCH (af:Feedback)-[:About]->(a)
WITH u, collect(DISTINCT a) AS listings, collect(DISTINCT af) AS listingFeedback
OPTIONAL MATCH (u)-[:Make]->(mf:Feedback)
WITH u, listings, listingFeedback, collect(DISTINCT mf) AS authored
OPTIONAL MATCH (rf:Feedback)-[:About]->(u)
WITH u, listings, listingFeedback, authored, collect(DISTINCT rf) AS received
FOREACH (x IN listings + listingFeedback + authored + received | DETACH DELETE x)
DETACH DELETE u
RETURN 1 AS deleted`

// DeleteUser removes login with their announcements, the feedback about those announcements,
// the feedback they wrote and the feedback about them.
func (db *DB) DeleteUser(ctx context.Context, login string) (bool, error) {
	return write(ctx, db, "delete user", func(tx neo4j.ManagedTransaction) (bool, error) {
		records, err := collect(ctx, tx, deleteUserCypher, map[string]any{"login": login})
		return len(records) > 0, err
	})
}
