package entity

import "time"

// UserRole gates access to the worker.
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleOG        UserRole = "og"
	UserRoleNormie    UserRole = "normie"
	UserRoleSuspended UserRole = "suspended"
)

// UserProfile is the billing view of a user. The worker reads it for
// authorization and mutates Balance only through the ledger.
type UserProfile struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:varchar(191)" json:"userId"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email"`
	Balance   float64   `gorm:"column:balance;not null;default:0" json:"balance"`
	Role      UserRole  `gorm:"column:role;type:varchar(32);index;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the default table name.
func (UserProfile) TableName() string {
	return "user_profiles"
}
