package types

import "time"

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// UserResponse is the caller's own account, with every field present.
type UserResponse struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	Nickname      string    `json:"nickname"`
	RealName      string    `json:"real_name"`
	BirthDate     string    `json:"birth_date"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	City          string    `json:"city,omitempty"`
	Country       string    `json:"country,omitempty"`
	PostalAddress string    `json:"postal_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileResponse is another user's profile after privacy filtering. Hidden
// fields are omitted.
type ProfileResponse struct {
	ID            uint    `json:"id"`
	Nickname      string  `json:"nickname"`
	RealName      string  `json:"real_name"`
	ProfileImage  string  `json:"profile_image,omitempty"`
	Email         *string `json:"email,omitempty"`
	Age           *int    `json:"age,omitempty"`
	City          *string `json:"city,omitempty"`
	Country       *string `json:"country,omitempty"`
	PostalAddress *string `json:"postal_address,omitempty"`
	IsContact     bool    `json:"is_contact"`
	IsPublic      bool    `json:"is_public"`
	CanView       bool    `json:"can_view"`
}

// UserSummary is the compact form used in lists and search results.
type UserSummary struct {
	ID           uint   `json:"id"`
	Nickname     string `json:"nickname"`
	RealName     string `json:"real_name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// WishResponse hides reservation state from the wish owner: IsReserved and
// ReservedByMe are only set for other viewers.
type WishResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Link         string    `json:"link,omitempty"`
	Position     int       `json:"position"`
	IsReserved   *bool     `json:"is_reserved,omitempty"`
	ReservedByMe *bool     `json:"reserved_by_me,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReservedWishResponse is a wish the caller holds a reservation on.
type ReservedWishResponse struct {
	WishResponse
	Owner      UserSummary `json:"owner"`
	ReservedAt *time.Time  `json:"reserved_at,omitempty"`
}

type ContactResponse struct {
	ID        uint        `json:"id"`
	Status    string      `json:"status"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

type BirthdayResponse struct {
	User      UserSummary `json:"user"`
	Date      string      `json:"date"`
	DaysUntil int         `json:"days_until"`
	TurnsAge  *int        `json:"turns_age,omitempty"`
}

type ReputationResponse struct {
	UserID   uint  `json:"user_id"`
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Score    int64 `json:"score"`
}
