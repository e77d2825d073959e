package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Organizers create trips and may reset purchases; passengers
// hold and buy seats.  Handlers define separate response types with
// JSON tags, so none are present here.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Email        – unique email address; purchase confirmations go here.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (ORGANIZER or PASSENGER).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
