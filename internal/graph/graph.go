package graph

import (
	"context"

	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/models"
)

// Node is one node of a graph snapshot. ID is engine-assigned and only meaningful inside the snapshot.
type Node struct {
	ID     int64
	Labels []string
	Props  map[string]any
}

// Edge is one directed relationship of a graph snapshot.
type Edge struct {
	ID    int64
	Type  string
	Start int64
	End   int64
	Props map[string]any
}

// Snapshot is the whole graph at rest.
type Snapshot struct {
	Nodes []Node
	Edges []Edge
}

// ReplaceStats reports what a Replace created.
type ReplaceStats struct {
	Nodes int
	Edges int
}

// Store is the domain contract over users, announcements and feedback.
//
// Missing entities are reported through bool results, nil records or found flags.
// Returned errors are faults of the underlying engine.
type Store interface {
	UserExists(ctx context.Context, login string) (bool, error)
	GetUser(ctx context.Context, login string) (*models.User, error)
	CreateUser(ctx context.Context, u models.NewUser) (bool, error)
	EditUser(ctx context.Context, login string, p models.UserProfile) (bool, error)
	SetUserStatus(ctx context.Context, login, status string) (bool, error)
	AuthorizeUser(ctx context.Context, login, password string) (bool, error)
	DeleteUser(ctx context.Context, login string) (bool, error)

	CreateAnnouncement(ctx context.Context, owner string, a models.AnnouncementAttrs) (number int64, ok bool, err error)
	GetAnnouncement(ctx context.Context, owner string, number int64) (*models.Announcement, error)
	GetAnnouncements(ctx context.Context, f listing.Filter) ([]models.Announcement, error)
	EditAnnouncement(ctx context.Context, owner string, number int64, a models.AnnouncementAttrs) (bool, error)
	DeleteAnnouncement(ctx context.Context, owner string, number int64) (bool, error)

	CreateUserFeedback(ctx context.Context, sender, recipient, text string, estimation int64) (bool, error)
	GetUserFeedback(ctx context.Context, login string) ([]models.UserFeedback, bool, error)
	DeleteUserFeedback(ctx context.Context, sender, recipient string) (bool, error)
	CreateAnnouncementFeedback(ctx context.Context, sender, owner string, number int64, text string) (bool, error)
	GetAnnouncementFeedback(ctx context.Context, owner string, number int64) ([]models.AnnouncementFeedback, bool, error)
	DeleteAnnouncementFeedback(ctx context.Context, sender, owner string, number int64) (bool, error)
}

// Engine exposes the raw graph for backup and restore.
type Engine interface {
	// Snapshot reads every node and relationship in one read transaction.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Replace removes the whole graph and recreates s in one write transaction.
	// Relationship endpoints refer to Node.ID values of s.
	Replace(ctx context.Context, s *Snapshot) (ReplaceStats, error)
	// IsEmpty reports whether the graph has no nodes.
	IsEmpty(ctx context.Context) (bool, error)
}

// Backend is a complete storage engine.
type Backend interface {
	Store
	Engine
	Ping(ctx context.Context) error
	Close() error
}

// PasswordHasher turns passwords into stored credentials and checks them.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify reports whether plain matches stored, and whether stored should be replaced by a fresh hash.
	Verify(plain, stored string) (match, upgrade bool, err error)
}
