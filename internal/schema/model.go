// Package schema defines the validated target model for migrated users and
// the mapping between model fields and the relational table's columns.
package schema

import "time"

// Status is the account status enum stored in the target table.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBanned   Status = "BANNED"
)

// Default values applied when the source carries nothing usable.
const (
	DefaultProvider = "CREDENTIALS"
	ProviderGoogle  = "google.com"
)

// User is one validated record ready for loading. Every User that reaches
// the loader has passed the transformer's required-field checks; the
// identifier may still be rewritten by conflict resolution.
type User struct {
	ID            string     `db:"id"`
	Email         string     `db:"email"`
	EmailVerified bool       `db:"email_verified"`
	Password      *string    `db:"password"`
	UID           *string    `db:"uid"`
	Provider      string     `db:"provider"`
	ProfilePic    *string    `db:"profile_pic"`
	PhoneNumber   *string    `db:"phone_number"`
	PhoneVerified bool       `db:"phone_verified"`
	Name          *string    `db:"name"`
	City          *string    `db:"city"`
	Birthdate     *time.Time `db:"birthdate"`
	Photo         *string    `db:"photo"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	Status        Status     `db:"status"`
	Interests     []string   `db:"interests"`
	LastConnexion *time.Time `db:"last_connexion"`
}

// Columns is the target table's column order used for COPY and INSERT.
var Columns = []string{
	"id",
	"email",
	"email_verified",
	"password",
	"uid",
	"provider",
	"profile_pic",
	"phone_number",
	"phone_verified",
	"name",
	"city",
	"birthdate",
	"photo",
	"created_at",
	"updated_at",
	"status",
	"interests",
	"last_connexion",
}

// ColumnMapping translates the source's camelCase field names to the target
// table's snake_case columns. Resolved once at load time; fields absent from
// the map keep their name as-is.
var ColumnMapping = map[string]string{
	"emailVerified": "email_verified",
	"profilePic":    "profile_pic",
	"phoneNumber":   "phone_number",
	"phoneVerified": "phone_verified",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"lastConnexion": "last_connexion",
}

// Row lays the user out in Columns order. Optional fields become nil so the
// driver binds SQL NULL. Interests are passed through as-is; the loader is
// responsible for serializing them to the table's representation.
func (u *User) Row() []any {
	return []any{
		u.ID,
		u.Email,
		u.EmailVerified,
		ptrVal(u.Password),
		ptrVal(u.UID),
		u.Provider,
		ptrVal(u.ProfilePic),
		ptrVal(u.PhoneNumber),
		u.PhoneVerified,
		ptrVal(u.Name),
		ptrVal(u.City),
		timeVal(u.Birthdate),
		ptrVal(u.Photo),
		u.CreatedAt,
		u.UpdatedAt,
		string(u.Status),
		u.Interests,
		timeVal(u.LastConnexion),
	}
}

func ptrVal(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeVal(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
