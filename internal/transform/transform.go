// Package transform turns raw source records into validated schema.User
// values. It is the sole gate between the loosely-typed extraction output and
// the loader: every User it emits satisfies the target's required-field and
// type constraints.
//
// Failure never crosses the package boundary as a panic or error return from
// a batch: a record that cannot be transformed becomes a RecordError in the
// report and the batch continues.
package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"usermigrate/internal/idgen"
	"usermigrate/internal/normalize"
	"usermigrate/internal/nullness"
	"usermigrate/internal/schema"
	"usermigrate/pkg/records"
)

// Field aliases: primary spelling first, then the alternate spellings seen in
// source exports.
var (
	aliasProfilePic    = []string{"profilePic", "profile_pic"}
	aliasPhoneNumber   = []string{"phoneNumber", "phone_number"}
	aliasName          = []string{"name", "displayName"}
	aliasBirthdate     = []string{"birthDate", "birth_date"}
	aliasPhoto         = []string{"photo", "photoURL"}
	aliasCreatedAt     = []string{"createdAt", "created_at"}
	aliasUpdatedAt     = []string{"updatedAt", "updated_at"}
	aliasLastConnexion = []string{"lastConnexion", "last_connexion"}
)

// NowFunc supplies the timestamp used when createdAt/updatedAt are missing
// or unparseable. Injected so tests stay deterministic.
type NowFunc func() time.Time

// Record transforms one raw record. On success the returned error descriptor
// is nil; on failure the User is nil and the descriptor carries the rejection
// context.
func Record(raw records.Record, now NowFunc) (*schema.User, *RecordError) {
	id := normalize.CleanString(valueOf(raw, "id"))
	email := normalize.CleanString(valueOf(raw, "email"))
	provider := normalize.CleanString(valueOf(raw, "provider"))

	// Users federated through the identity provider may have no email at
	// all; synthesize a stable placeholder so the unique constraint holds.
	if email == "" && raw.String("provider") == schema.ProviderGoogle {
		uid := normalize.CleanString(valueOf(raw, "uid"))
		if uid == "" {
			uid = "unknown"
		}
		email = fmt.Sprintf("google_user_%s@placeholder.com", uid)
	}

	if id == "" {
		id = idgen.New()
	}
	if email == "" {
		return nil, reject(raw, "email is required but missing")
	}
	if provider == "" {
		provider = schema.DefaultProvider
	}

	createdAt := normalize.Datetime(firstOf(raw, aliasCreatedAt))
	if createdAt == nil {
		t := now()
		createdAt = &t
	}
	updatedAt := normalize.Datetime(firstOf(raw, aliasUpdatedAt))
	if updatedAt == nil {
		t := now()
		updatedAt = &t
	}

	user := &schema.User{
		ID:            id,
		Email:         email,
		EmailVerified: asBool(raw["emailVerified"]),
		Password:      optString(valueOf(raw, "password")),
		UID:           optString(valueOf(raw, "uid")),
		Provider:      provider,
		ProfilePic:    optString(firstOf(raw, aliasProfilePic)),
		PhoneNumber:   optString(firstOf(raw, aliasPhoneNumber)),
		PhoneVerified: asBool(raw["phoneVerified"]),
		Name:          optString(firstOf(raw, aliasName)),
		City:          optString(valueOf(raw, "city")),
		Birthdate:     normalize.Datetime(firstOf(raw, aliasBirthdate)),
		Photo:         optString(firstOf(raw, aliasPhoto)),
		CreatedAt:     *createdAt,
		UpdatedAt:     *updatedAt,
		Status:        normalize.Status(valueOf(raw, "status")),
		Interests:     normalize.Interests(valueOf(raw, "interests")),
		LastConnexion: normalize.Datetime(firstOf(raw, aliasLastConnexion)),
	}
	return user, nil
}

func reject(raw records.Record, reason string) *RecordError {
	userID := normalize.CleanString(valueOf(raw, "id"))
	if userID == "" {
		userID = "unknown"
	}
	provider := normalize.CleanString(valueOf(raw, "provider"))
	if provider == "" {
		provider = "unknown"
	}
	keys := raw.Keys()
	sort.Strings(keys)
	return &RecordError{
		UserID:   userID,
		Err:      reason,
		Provider: provider,
		HasEmail: !nullness.IsEmpty(valueOf(raw, "email")),
		RawKeys:  keys,
	}
}

func valueOf(r records.Record, key string) any {
	v, _ := r.Get(key)
	return v
}

func firstOf(r records.Record, aliases []string) any {
	for _, k := range aliases {
		if v, ok := r.Get(k); ok && !nullness.IsEmpty(v) {
			return v
		}
	}
	return nil
}

// optString cleans v and returns a pointer, nil when the cleaned value is
// empty.
func optString(v any) *string {
	s := normalize.CleanString(v)
	if s == "" {
		return nil
	}
	return &s
}

// asBool interprets the loosely-typed verification flags. Anything that does
// not clearly assert true stays false.
func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case float64:
		return t != 0 && !nullness.IsEmpty(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return false
	}
}
