package models

// Announcement is a listing of surplus material together with its owner and per-owner number.
type Announcement struct {
	Master      string  `json:"master"`
	Number      int64   `json:"number"`
	Name        string  `json:"name"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Length      float64 `json:"length"`
	Weight      float64 `json:"weight"`
	Amount      int64   `json:"amount"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	PhotoURL    string  `json:"photo_url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// AnnouncementAttrs are the writable attributes of an announcement.
type AnnouncementAttrs struct {
	Name        string  `json:"name"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Length      float64 `json:"length"`
	Weight      float64 `json:"weight"`
	Amount      int64   `json:"amount"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	PhotoURL    string  `json:"photo_url"`
}
