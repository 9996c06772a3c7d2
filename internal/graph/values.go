package graph

import (
	"time"

	"github.com/starford/offcuts/internal/models"
	"github.com/starford/offcuts/internal/temporal"
)

// Int coerces a stored numeric property to int64.
func Int(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		return int64(x)
	}
	return 0
}

// Float coerces a stored numeric property to float64.
func Float(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case float32:
		return float64(x)
	}
	return 0
}

// String returns v if it is a string, "" otherwise.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// UserFromProps builds the public user record from User node properties.
func UserFromProps(p map[string]any) *models.User {
	return &models.User{
		Login:       String(p[PropLogin]),
		Role:        String(p[PropRole]),
		FullName:    String(p[PropFullName]),
		Age:         Int(p[PropAge]),
		Status:      String(p[PropStatus]),
		Description: String(p[PropDescription]),
		Education:   String(p[PropEducation]),
		PhotoURL:    String(p[PropPhotoURL]),
		CreatedAt:   temporal.Text(p[PropCreatedAt]),
		UpdatedAt:   temporal.Text(p[PropUpdatedAt]),
	}
}

// AnnouncementFromProps builds the public announcement record from node properties,
// the owner's login and the number carried by the authoring relationship.
func AnnouncementFromProps(p map[string]any, master string, number int64) models.Announcement {
	return models.Announcement{
		Master:      master,
		Number:      number,
		Name:        String(p[PropName]),
		Width:       Float(p[PropWidth]),
		Height:      Float(p[PropHeight]),
		Length:      Float(p[PropLength]),
		Weight:      Float(p[PropWeight]),
		Amount:      Int(p[PropAmount]),
		Price:       Float(p[PropPrice]),
		Address:     String(p[PropAddress]),
		Description: String(p[PropDescription]),
		PhotoURL:    String(p[PropPhotoURL]),
		CreatedAt:   temporal.Text(p[PropCreatedAt]),
		UpdatedAt:   temporal.Text(p[PropUpdatedAt]),
	}
}

// NewUserProps returns the properties of a freshly created User node.
// hash is the stored credential; now stamps both timestamps.
func NewUserProps(u models.NewUser, hash string, now time.Time) map[string]any {
	photo := u.PhotoURL
	if photo == "" {
		photo = DefaultPhotoURL
	}
	return map[string]any{
		PropLogin:       u.Login,
		PropPassword:    hash,
		PropRole:        u.Role,
		PropFullName:    u.FullName,
		PropAge:         u.Age,
		PropStatus:      DefaultStatus,
		PropDescription: u.Description,
		PropEducation:   u.Education,
		PropPhotoURL:    photo,
		PropCreatedAt:   now,
		PropUpdatedAt:   now,
	}
}

// ProfileProps returns the User properties an edit overwrites, without updated_at.
func ProfileProps(p models.UserProfile) map[string]any {
	return map[string]any{
		PropFullName:    p.FullName,
		PropAge:         p.Age,
		PropDescription: p.Description,
		PropEducation:   p.Education,
		PropPhotoURL:    p.PhotoURL,
	}
}

// AnnouncementProps returns the Announcement properties written on create and edit, without timestamps.
func AnnouncementProps(a models.AnnouncementAttrs) map[string]any {
	photo := a.PhotoURL
	if photo == "" {
		photo = DefaultPhotoURL
	}
	return map[string]any{
		PropName:        a.Name,
		PropWidth:       a.Width,
		PropHeight:      a.Height,
		PropLength:      a.Length,
		PropWeight:      a.Weight,
		PropAmount:      a.Amount,
		PropPrice:       a.Price,
		PropAddress:     a.Address,
		PropDescription: a.Description,
		PropPhotoURL:    photo,
	}
}
