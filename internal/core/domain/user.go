package domain

import "time"

const (
	RoleAdmin = "admin"
	// RoleOperator may view and sync shipments but not approve, edit or cancel them.
	RoleOperator = "operator"
)

// User is a back-office account allowed to use the admin API.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
