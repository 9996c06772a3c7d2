// Package marketservice implements the marketplace use cases over a graph store.
package marketservice

import (
	"context"
	"log/slog"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/auth/token"
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/models"
)

// Change event kinds.
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventAnnouncementCreated = "announcement.created"
	EventAnnouncementUpdated = "announcement.updated"
	EventAnnouncementDeleted = "announcement.deleted"
	EventFeedbackCreated     = "feedback.created"
	EventFeedbackDeleted     = "feedback.deleted"
	EventBackupRestored      = "backup.restored"
)

// Publisher receives change notifications after a successful write.
type Publisher interface {
	PublishChange(kind string, data map[string]any)
}

// Session is the result of a successful login.
type Session struct {
	Login    string `json:"login"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Token    string `json:"token,omitempty"`
}

// Service coordinates the graph store, the backup codec and change events.
type Service struct {
	store  graph.Store
	codec  *backup.Codec
	tokens *token.Manager
	events Publisher
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokens makes Login issue bearer tokens.
func WithTokens(m *token.Manager) Option {
	return func(s *Service) { s.tokens = m }
}

// WithPublisher routes change events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a new marketplace service.
func New(store graph.Store, codec *backup.Codec, opts ...Option) *Service {
	s := &Service{store: store, codec: codec, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(kind string, data map[string]any) {
	if s.events != nil {
		s.events.PublishChange(kind, data)
	}
}

// CreateUser registers a user and returns the stored record.
func (s *Service) CreateUser(ctx context.Context, u models.NewUser) (*models.User, error) {
	if err := validateNewUser(u); err != nil {
		return nil, err
	}
	ok, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrAlreadyExists
	}
	s.publish(EventUserCreated, map[string]any{"login": u.Login})
	return s.GetUser(ctx, u.Login)
}

// GetUser returns the user with the given login.
func (s *Service) GetUser(ctx context.Context, login string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

// EditUser replaces the profile fields of a user.
func (s *Service) EditUser(ctx context.Context, login string, p models.UserProfile) (*models.User, error) {
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	ok, err := s.store.EditUser(ctx, login, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	s.publish(EventUserUpdated, map[string]any{"login": login})
	return s.GetUser(ctx, login)
}

// SetUserStatus blocks or unblocks a user.
func (s *Service) SetUserStatus(ctx context.Context, login, status string) (*models.User, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	ok, err := s.store.SetUserStatus(ctx, login, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	s.publish(EventUserUpdated, map[string]any{"login": login, "status": status})
	return s.GetUser(ctx, login)
}

// DeleteUser removes a user together with their announcements and every review touching them.
func (s *Service) DeleteUser(ctx context.Context, login string) error {
	ok, err := s.store.DeleteUser(ctx, login)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventUserDeleted, map[string]any{"login": login})
	return nil
}

// Login checks credentials and opens a session. Blocked users are refused.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	if login == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}
	ok, err := s.store.AuthorizeUser(ctx, login, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	u, err := s.GetUser(ctx, login)
	if err != nil {
		return nil, err
	}
	if u.Status == models.StatusBlocked {
		return nil, apperr.ErrForbidden
	}

	sess := &Session{Login: u.Login, Role: u.Role, FullName: u.FullName}
	if s.tokens != nil {
		raw, _, err := s.tokens.Issue(u.Login, u.Role)
		if err != nil {
			return nil, err
		}
		sess.Token = raw
	}
	s.logger.Debug("login", slog.String("login", login))
	return sess, nil
}

// CreateAnnouncement publishes a new listing for owner and returns it with its assigned number.
func (s *Service) CreateAnnouncement(ctx context.Context, owner string, a models.AnnouncementAttrs) (*models.Announcement, error) {
	if err := validateLogin(owner); err != nil {
		return nil, err
	}
	if err := validateAttrs(a); err != nil {
		return nil, err
	}
	number, ok, err := s.store.CreateAnnouncement(ctx, owner, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	s.publish(EventAnnouncementCreated, map[string]any{"master": owner, "number": number})
	return s.GetAnnouncement(ctx, owner, number)
}

// GetAnnouncement returns announcement number of owner.
func (s *Service) GetAnnouncement(ctx context.Context, owner string, number int64) (*models.Announcement, error) {
	a, err := s.store.GetAnnouncement(ctx, owner, number)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

// ListAnnouncements returns every announcement matching f.
func (s *Service) ListAnnouncements(ctx context.Context, f listing.Filter) ([]models.Announcement, error) {
	list, err := s.store.GetAnnouncements(ctx, f)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(list), nil
}

// EditAnnouncement replaces the attributes of an announcement.
func (s *Service) EditAnnouncement(ctx context.Context, owner string, number int64, a models.AnnouncementAttrs) (*models.Announcement, error) {
	if err := validateAttrs(a); err != nil {
		return nil, err
	}
	ok, err := s.store.EditAnnouncement(ctx, owner, number, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	s.publish(EventAnnouncementUpdated, map[string]any{"master": owner, "number": number})
	return s.GetAnnouncement(ctx, owner, number)
}

// DeleteAnnouncement removes an announcement and the comments about it.
func (s *Service) DeleteAnnouncement(ctx context.Context, owner string, number int64) error {
	ok, err := s.store.DeleteAnnouncement(ctx, owner, number)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventAnnouncementDeleted, map[string]any{"master": owner, "number": number})
	return nil
}

// CreateUserFeedback records a review of recipient written by sender.
func (s *Service) CreateUserFeedback(ctx context.Context, sender, recipient, text string, estimation int64) error {
	if err := validateLogin(sender); err != nil {
		return err
	}
	if err := validateReview(text, estimation); err != nil {
		return err
	}
	ok, err := s.store.CreateUserFeedback(ctx, sender, recipient, text, estimation)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventFeedbackCreated, map[string]any{"author": sender, "user": recipient})
	return nil
}

// UserFeedback lists the reviews about login.
func (s *Service) UserFeedback(ctx context.Context, login string) ([]models.UserFeedback, error) {
	list, found, err := s.store.GetUserFeedback(ctx, login)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(list), nil
}

// DeleteUserFeedback removes the reviews sender wrote about recipient.
func (s *Service) DeleteUserFeedback(ctx context.Context, sender, recipient string) error {
	ok, err := s.store.DeleteUserFeedback(ctx, sender, recipient)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventFeedbackDeleted, map[string]any{"author": sender, "user": recipient})
	return nil
}

// CreateAnnouncementFeedback records a comment by sender on an announcement.
func (s *Service) CreateAnnouncementFeedback(ctx context.Context, sender, owner string, number int64, text string) error {
	if err := validateLogin(sender); err != nil {
		return err
	}
	if err := validateText(text); err != nil {
		return err
	}
	ok, err := s.store.CreateAnnouncementFeedback(ctx, sender, owner, number, text)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventFeedbackCreated, map[string]any{"author": sender, "master": owner, "number": number})
	return nil
}

// AnnouncementFeedback lists the comments on an announcement.
func (s *Service) AnnouncementFeedback(ctx context.Context, owner string, number int64) ([]models.AnnouncementFeedback, error) {
	list, found, err := s.store.GetAnnouncementFeedback(ctx, owner, number)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.ErrNotFound
	}
	return nonNilSlice(list), nil
}

// DeleteAnnouncementFeedback removes the comments sender left on an announcement.
func (s *Service) DeleteAnnouncementFeedback(ctx context.Context, sender, owner string, number int64) error {
	ok, err := s.store.DeleteAnnouncementFeedback(ctx, sender, owner, number)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventFeedbackDeleted, map[string]any{"author": sender, "master": owner, "number": number})
	return nil
}

// ExportBackup captures the whole graph.
func (s *Service) ExportBackup(ctx context.Context) (*backup.Document, error) {
	return s.codec.Export(ctx)
}

// ImportBackup replaces the whole graph with d.
func (s *Service) ImportBackup(ctx context.Context, d *backup.Document) (backup.Report, error) {
	rep, err := s.codec.Import(ctx, d)
	if err != nil {
		return backup.Report{}, err
	}
	s.publish(EventBackupRestored, map[string]any{
		"nodes_created":         rep.NodesCreated,
		"relationships_created": rep.RelationshipsCreated,
	})
	return rep, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
