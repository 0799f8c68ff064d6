package models

// User is an account that owns tasks and goals. The ADHD profile fields are
// typed columns rather than a free-form map so business logic can read them.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	DisplayName        string `json:"displayName"`
	Timezone           string `json:"timezone"`
	OverwhelmThreshold int    `json:"overwhelmThreshold"`
	CurrentEnergyLevel int    `json:"currentEnergyLevel"`
	CreatedAt          int64  `json:"createdAt"`
	UpdatedAt          int64  `json:"updatedAt"`
	DeletedAt          *int64 `json:"-"`
}

// DefaultOverwhelmThreshold is the admission-control threshold applied when a
// user has not configured one.
const DefaultOverwhelmThreshold = 6

// DefaultEnergyLevel is the assumed current energy when none has been reported.
const DefaultEnergyLevel = 5

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Email              string `json:"email"`
	DisplayName        string `json:"displayName"`
	Timezone           string `json:"timezone"`
	OverwhelmThreshold int    `json:"overwhelmThreshold"`
	CurrentEnergyLevel int    `json:"currentEnergyLevel"`
}

// UpdateUserRequest is the payload for PATCH /users/{id}. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	DisplayName        *string `json:"displayName,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	OverwhelmThreshold *int    `json:"overwhelmThreshold,omitempty"`
	CurrentEnergyLevel *int    `json:"currentEnergyLevel,omitempty"`
}
