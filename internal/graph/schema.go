// Package graph describes the fixed labeled property graph behind the marketplace:
// node labels, relationship types, property keys and the contracts storage engines implement.
package graph

// Node labels.
const (
	LabelUser         = "User"
	LabelAnnouncement = "Announcement"
	LabelFeedback     = "Feedback"
)

// Relationship types. The names are part of the backup file format.
const (
	// RelAuthored links a User to an Announcement they own and carries PropNumber.
	RelAuthored = "Create"
	// RelAuthoredFeedback links a User to a Feedback they wrote.
	RelAuthoredFeedback = "Make"
	// RelAbout links a Feedback to the User (with PropEstimation) or Announcement it is about.
	RelAbout = "About"
)

// Property keys.
const (
	PropLogin           = "login"
	PropPassword        = "password"
	PropRole            = "role"
	PropFullName        = "full_name"
	PropAge             = "age"
	PropStatus          = "status"
	PropDescription     = "description"
	PropEducation       = "education"
	PropPhotoURL        = "photo_url"
	PropCreatedAt       = "created_at"
	PropUpdatedAt       = "updated_at"
	PropAnnouncementSeq = "announcement_seq"

	PropName    = "name"
	PropWidth   = "width"
	PropHeight  = "height"
	PropLength  = "length"
	PropWeight  = "weight"
	PropAmount  = "amount"
	PropPrice   = "price"
	PropAddress = "address"

	PropText       = "text"
	PropNumber     = "number"
	PropEstimation = "estimation"
)

// Defaults applied on creation.
const (
	DefaultStatus   = "active"
	DefaultPhotoURL = "no_photo.png"
)

// endpoints lists the (start, end) label pairs each relationship type may connect.
var endpoints = map[string][][2]string{
	RelAuthored:         {{LabelUser, LabelAnnouncement}},
	RelAuthoredFeedback: {{LabelUser, LabelFeedback}},
	RelAbout:            {{LabelFeedback, LabelUser}, {LabelFeedback, LabelAnnouncement}},
}

// temporalKeys are the properties stored as native timestamps.
var temporalKeys = map[string]struct{}{
	PropCreatedAt: {},
	PropUpdatedAt: {},
}

// KnownLabel reports whether label is one of the schema's node labels.
func KnownLabel(label string) bool {
	switch label {
	case LabelUser, LabelAnnouncement, LabelFeedback:
		return true
	}
	return false
}

// KnownRelType reports whether typ is one of the schema's relationship types.
func KnownRelType(typ string) bool {
	_, ok := endpoints[typ]
	return ok
}

// ValidEndpoints reports whether a relationship of type typ may run from startLabel to endLabel.
func ValidEndpoints(typ, startLabel, endLabel string) bool {
	for _, pair := range endpoints[typ] {
		if pair[0] == startLabel && pair[1] == endLabel {
			return true
		}
	}
	return false
}

// IsTemporalKey reports whether the property key holds a timestamp.
func IsTemporalKey(key string) bool {
	_, ok := temporalKeys[key]
	return ok
}
