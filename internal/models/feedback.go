package models

// UserFeedback is a review left by Author about a user.
type UserFeedback struct {
	Author     string `json:"author"`
	Text       string `json:"text"`
	Estimation int64  `json:"estimation"`
}

// AnnouncementFeedback is a comment left by Author about an announcement.
type AnnouncementFeedback struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}
