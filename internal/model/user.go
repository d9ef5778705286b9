package model

import "time"

// User represents a registered account as stored in the `users` table.
// The email is the login identity and carries a unique index; the username
// is display-only and deliberately not unique. PasswordHash is only ever
// written through bcrypt, never assigned from plaintext.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – display name (letters, digits, underscore).
//  Email        – unique email address, normalized to lower case.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update (bumped on password changes).
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
