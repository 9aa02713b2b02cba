package model

import "time"

// Role gates which operations a signed-in identity may perform.
type Role string

const (
    RoleNew    Role = "new"    // signed in, waiting for an admin to approve
    RoleWorker Role = "worker" // approved; manages their own video records
    RoleAdmin  Role = "admin"  // manages every record and the team
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleNew, RoleWorker, RoleAdmin:
        return true
    }
    return false
}

// Account is an identity known to the identity provider (the `accounts`
// table). It is separate from the UserProfile: the account proves who the
// caller is, the profile decides what they may do.
//
// Fields:
//  ID           – stable identity id (UUID) used as the profile key.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  Name, Phone  – details captured at registration, copied into the profile.
//  CreatedAt    – timestamp of creation.
type Account struct {
    ID           string
    Email        string
    PasswordHash string
    Name         string
    Phone        string
    CreatedAt    time.Time
}

// UserProfile mirrors a document in the `users` collection. Exactly one
// profile exists per identity; it is created lazily on first sign-in with
// RoleNew and Suspended=false.
type UserProfile struct {
    UID       string    `json:"id"`
    Email     string    `json:"email"`
    Name      string    `json:"name"`
    Phone     string    `json:"phone,omitempty"`
    Role      Role      `json:"role"`
    Suspended bool      `json:"suspended"`
    Approved  bool      `json:"approved"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    UserID    string
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}
