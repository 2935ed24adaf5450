// Package user defines the user record model shared by the credential
// store backends and the snapshot file format.
package user

// User is a single stored account record. The JSON tags define the snapshot
// file format and must stay stable across releases.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	// It is generated at insertion time and never reused or mutated.
	ID string `json:"id"`

	// Name is the display name supplied at signup.
	Name string `json:"name"`

	// Email is the unique, case-sensitive lookup key of the record.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the signup password. The plaintext
	// is never stored.
	PasswordHash string `json:"hashedPassword"`
}
