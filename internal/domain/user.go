package domain

// UsersTarget is the storage target for user records
const UsersTarget = "users"

// User is the public representation of a user record
type User struct {
	ID        any    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UserInput is the body accepted when creating a user
type UserInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,max=254"`
}

// UserFromRecord maps a stored record onto a User
func UserFromRecord(rec Record) User {
	u := User{ID: rec.ID}
	if v, ok := rec.Data["username"].(string); ok {
		u.Username = v
	}
	if v, ok := rec.Data["email"].(string); ok {
		u.Email = v
	}
	if v, ok := rec.Data["created_at"].(string); ok {
		u.CreatedAt = v
	}
	return u
}
