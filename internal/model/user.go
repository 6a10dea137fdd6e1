package model

import "time"

// Roles recognised by the JWT middleware.
const (
    RoleAdmin    = "ADMIN"
    RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  Admins manage the back office; customers only see
// their own bookings.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, also the link to booking snapshots.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or CUSTOMER.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64
    Email        string
    PasswordHash string
    Role         string
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// Preferences holds the per-user back office UI settings.
type Preferences struct {
    SidebarCollapsed bool `json:"sidebar_collapsed"`
}
