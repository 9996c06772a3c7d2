package marketservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/auth/token"
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/models"
	"github.com/starford/offcuts/internal/temporal"
	"github.com/starford/offcuts/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) PublishChange(kind string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.kinds) == 0 {
		return ""
	}
	return r.kinds[len(r.kinds)-1]
}

type testEnv struct {
	svc    *marketservice.Service
	events *recorder
	tokens *token.Manager
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestGraph(t)
	codec := backup.New(db, temporal.New(graph.IsTemporalKey), nil)
	rec := &recorder{}
	tm := token.New("test-secret", "offcuts-test", time.Hour)
	svc := marketservice.New(db, codec, marketservice.WithPublisher(rec), marketservice.WithTokens(tm))
	return &testEnv{svc: svc, events: rec, tokens: tm}
}

func alice() models.NewUser {
	return models.NewUser{Login: "alice", Password: "s3cret", Role: models.RoleMaster, FullName: "Alice Carpenter", Age: 41}
}

func bob() models.NewUser {
	return models.NewUser{Login: "bob", Password: "hunter2", Role: models.RoleBuyer, FullName: "Bob Builder", Age: 30}
}

var oak = models.AnnouncementAttrs{
	Name: "Oak offcuts", Width: 10, Height: 5, Length: 5, Weight: 2, Amount: 50, Price: 1.5, Address: "Plant 3",
}

func TestCreateUser(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	u, err := env.svc.CreateUser(ctx, alice())
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Status != models.StatusActive || u.PhotoURL != graph.DefaultPhotoURL || u.CreatedAt == "" {
		t.Errorf("defaults not applied: %+v", u)
	}
	if env.events.last() != marketservice.EventUserCreated {
		t.Errorf("last event = %q", env.events.last())
	}

	dup := alice()
	dup.FullName = "Impostor"
	if _, err := env.svc.CreateUser(ctx, dup); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("duplicate CreateUser err = %v, want ErrAlreadyExists", err)
	}
	got, err := env.svc.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.FullName != "Alice Carpenter" {
		t.Errorf("duplicate create changed user: %+v", got)
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	env := setupService(t)
	cases := map[string]func(*models.NewUser){
		"empty login":  func(u *models.NewUser) { u.Login = "" },
		"slash login":  func(u *models.NewUser) { u.Login = "a/b" },
		"no password":  func(u *models.NewUser) { u.Password = "" },
		"unknown role": func(u *models.NewUser) { u.Role = "overlord" },
		"no full name": func(u *models.NewUser) { u.FullName = "" },
		"negative age": func(u *models.NewUser) { u.Age = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			u := alice()
			mutate(&u)
			if _, err := env.svc.CreateUser(context.Background(), u); !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("CreateUser err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := setupService(t)
	if _, err := env.svc.GetUser(context.Background(), "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetUser err = %v, want ErrNotFound", err)
	}
}

func TestEditUser(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	if _, err := env.svc.CreateUser(ctx, alice()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := env.svc.EditUser(ctx, "alice", models.UserProfile{
		FullName: "Alice C.", Age: 42, Description: "joiner", Education: "guild", PhotoURL: "alice.png",
	})
	if err != nil {
		t.Fatalf("EditUser: %v", err)
	}
	if u.FullName != "Alice C." || u.Age != 42 || u.Role != models.RoleMaster || u.PhotoURL != "alice.png" {
		t.Errorf("EditUser result = %+v", u)
	}
	if _, err := env.svc.EditUser(ctx, "ghost", models.UserProfile{FullName: "G"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("EditUser(ghost) err = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.EditUser(ctx, "alice", models.UserProfile{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("EditUser(empty) err = %v, want ErrInvalidInput", err)
	}
}

func TestLogin(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	if _, err := env.svc.CreateUser(ctx, alice()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	sess, err := env.svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Role != models.RoleMaster || sess.FullName != "Alice Carpenter" {
		t.Errorf("session = %+v", sess)
	}
	claims, err := env.tokens.Parse(sess.Token)
	if err != nil {
		t.Fatalf("Parse token: %v", err)
	}
	if claims.Login != "alice" || claims.Role != models.RoleMaster {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := env.svc.Login(ctx, "alice", "wrong"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := env.svc.Login(ctx, "nobody", "s3cret"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}

	if _, err := env.svc.SetUserStatus(ctx, "alice", models.StatusBlocked); err != nil {
		t.Fatalf("SetUserStatus: %v", err)
	}
	if _, err := env.svc.Login(ctx, "alice", "s3cret"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("blocked user err = %v, want ErrForbidden", err)
	}
}

func TestLogin_WithoutTokens(t *testing.T) {
	db := testutil.TestGraph(t)
	svc := marketservice.New(db, backup.New(db, temporal.New(graph.IsTemporalKey), nil))
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, bob()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	sess, err := svc.Login(ctx, "bob", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "" {
		t.Errorf("token issued with auth disabled: %q", sess.Token)
	}
}

func TestSetUserStatus_Invalid(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	if _, err := env.svc.CreateUser(ctx, alice()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := env.svc.SetUserStatus(ctx, "alice", "sleeping"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("SetUserStatus err = %v, want ErrInvalidInput", err)
	}
	if _, err := env.svc.SetUserStatus(ctx, "ghost", models.StatusBlocked); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("SetUserStatus(ghost) err = %v, want ErrNotFound", err)
	}
}

func TestAnnouncementLifecycle(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	if _, err := env.svc.CreateUser(ctx, alice()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	a, err := env.svc.CreateAnnouncement(ctx, "alice", oak)
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if a.Number != 1 || a.Master != "alice" || a.Price != 1.5 {
		t.Errorf("created = %+v", a)
	}

	list, err := env.svc.ListAnnouncements(ctx, listing.Filter{Price: listing.Range[float64]{Min: 1.0}})
	if err != nil || len(list) != 1 {
		t.Fatalf("List(price_min=1) = %v, %v", list, err)
	}
	list, err = env.svc.ListAnnouncements(ctx, listing.Filter{Price: listing.Range[float64]{Min: 2.0}})
	if err != nil || len(list) != 0 {
		t.Fatalf("List(price_min=2) = %v, %v", list, err)
	}
	if list == nil {
		t.Error("empty listing should be a non-nil slice")
	}

	edited := oak
	edited.Price = 3
	a, err = env.svc.EditAnnouncement(ctx, "alice", 1, edited)
	if err != nil || a.Price != 3 {
		t.Fatalf("EditAnnouncement = %+v, %v", a, err)
	}

	if err := env.svc.DeleteAnnouncement(ctx, "alice", 1); err != nil {
		t.Fatalf("DeleteAnnouncement: %v", err)
	}
	if _, err := env.svc.GetAnnouncement(ctx, "alice", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetAnnouncement after delete err = %v", err)
	}
	if err := env.svc.DeleteAnnouncement(ctx, "alice", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if env.events.last() != marketservice.EventAnnouncementDeleted {
		t.Errorf("last event = %q", env.events.last())
	}
}

func TestCreateAnnouncement_UnknownOwner(t *testing.T) {
	env := setupService(t)
	if _, err := env.svc.CreateAnnouncement(context.Background(), "ghost", oak); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	bad := oak
	bad.Name = ""
	if _, err := env.svc.CreateAnnouncement(context.Background(), "ghost", bad); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUserFeedback(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	for _, u := range []models.NewUser{alice(), bob()} {
		if _, err := env.svc.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	if err := env.svc.CreateUserFeedback(ctx, "bob", "alice", "Great seller", 5); err != nil {
		t.Fatalf("CreateUserFeedback: %v", err)
	}
	fb, err := env.svc.UserFeedback(ctx, "alice")
	if err != nil {
		t.Fatalf("UserFeedback: %v", err)
	}
	if len(fb) != 1 || fb[0] != (models.UserFeedback{Author: "bob", Text: "Great seller", Estimation: 5}) {
		t.Fatalf("UserFeedback = %+v", fb)
	}

	if err := env.svc.CreateUserFeedback(ctx, "bob", "alice", "meh", 9); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("estimation 9 err = %v, want ErrInvalidInput", err)
	}
	if err := env.svc.CreateUserFeedback(ctx, "bob", "ghost", "hi", 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown recipient err = %v, want ErrNotFound", err)
	}

	if err := env.svc.DeleteUserFeedback(ctx, "bob", "alice"); err != nil {
		t.Fatalf("DeleteUserFeedback: %v", err)
	}
	fb, err = env.svc.UserFeedback(ctx, "alice")
	if err != nil || len(fb) != 0 || fb == nil {
		t.Fatalf("UserFeedback after delete = %#v, %v", fb, err)
	}
	if _, err := env.svc.UserFeedback(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("UserFeedback(ghost) err = %v", err)
	}
}

func TestAnnouncementFeedback(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	for _, u := range []models.NewUser{alice(), bob()} {
		if _, err := env.svc.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	if _, err := env.svc.CreateAnnouncement(ctx, "alice", oak); err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}

	if err := env.svc.CreateAnnouncementFeedback(ctx, "bob", "alice", 1, "Is it dry?"); err != nil {
		t.Fatalf("CreateAnnouncementFeedback: %v", err)
	}
	if err := env.svc.CreateAnnouncementFeedback(ctx, "bob", "alice", 7, "?"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown announcement err = %v", err)
	}
	fb, err := env.svc.AnnouncementFeedback(ctx, "alice", 1)
	if err != nil || len(fb) != 1 || fb[0].Author != "bob" {
		t.Fatalf("AnnouncementFeedback = %+v, %v", fb, err)
	}
	if err := env.svc.DeleteAnnouncementFeedback(ctx, "bob", "alice", 1); err != nil {
		t.Fatalf("DeleteAnnouncementFeedback: %v", err)
	}
	if err := env.svc.DeleteAnnouncementFeedback(ctx, "bob", "alice", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := env.svc.AnnouncementFeedback(ctx, "alice", 9); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("AnnouncementFeedback(9) err = %v", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	for _, u := range []models.NewUser{alice(), bob()} {
		if _, err := env.svc.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	if _, err := env.svc.CreateAnnouncement(ctx, "alice", oak); err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if err := env.svc.CreateUserFeedback(ctx, "alice", "bob", "paid on time", 5); err != nil {
		t.Fatalf("CreateUserFeedback: %v", err)
	}

	if err := env.svc.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	list, err := env.svc.ListAnnouncements(ctx, listing.Filter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("announcements after DeleteUser = %v, %v", list, err)
	}
	fb, err := env.svc.UserFeedback(ctx, "bob")
	if err != nil || len(fb) != 0 {
		t.Fatalf("bob's feedback after author deleted = %v, %v", fb, err)
	}
	if err := env.svc.DeleteUser(ctx, "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteUser err = %v", err)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	if _, err := env.svc.CreateUser(ctx, alice()); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	doc, err := env.svc.ExportBackup(ctx)
	if err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}

	if err := env.svc.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	rep, err := env.svc.ImportBackup(ctx, doc)
	if err != nil {
		t.Fatalf("ImportBackup: %v", err)
	}
	if rep.NodesCreated != 1 || rep.RelationshipsCreated != 0 {
		t.Errorf("report = %+v", rep)
	}
	if _, err := env.svc.Login(ctx, "alice", "s3cret"); err != nil {
		t.Errorf("Login after restore: %v", err)
	}
	if env.events.last() != marketservice.EventBackupRestored {
		t.Errorf("last event = %q", env.events.last())
	}
}
