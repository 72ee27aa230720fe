package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusUnverified Status = "Unverified"
	StatusActive     Status = "Active"
	StatusBlocked    Status = "Blocked"
)

// User is the account record. Instances must be produced through New;
// state changes go through the mutator methods so the lifecycle rules
// (Unverified -> Active via confirmation, Active <-> Blocked via admin
// action) have a single home.
type User struct {
	ID                     uuid.UUID  `gorm:"primaryKey;type:uuid" json:"id"`
	FirstName              string     `gorm:"not null" json:"firstName"`
	LastName               string     `gorm:"not null" json:"lastName"`
	Email                  string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash           string     `gorm:"not null" json:"-"`
	Status                 Status     `gorm:"not null" json:"status"`
	LastLoginTime          *time.Time `gorm:"index" json:"lastLoginTime"`
	RegistrationTime       time.Time  `gorm:"not null" json:"registrationTime"`
	EmailConfirmationToken *string    `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// New creates an account in the Unverified state with a fresh id and a
// fresh single-use confirmation token.
func New(firstName, lastName, email, passwordHash string) *User {
	token := newConfirmationToken()
	return &User{
		ID:                     uuid.New(),
		FirstName:              firstName,
		LastName:               lastName,
		Email:                  email,
		PasswordHash:           passwordHash,
		Status:                 StatusUnverified,
		RegistrationTime:       time.Now().UTC(),
		EmailConfirmationToken: &token,
	}
}

func newConfirmationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Block applies regardless of the current status; blocking an already
// blocked or still unverified account is allowed.
func (u *User) Block() {
	u.Status = StatusBlocked
}

// Unblock always yields Active, even if the account never confirmed its
// email. It is not an inverse of the prior state.
func (u *User) Unblock() {
	u.Status = StatusActive
}

// ConfirmEmail activates the account and consumes the confirmation token.
func (u *User) ConfirmEmail() {
	u.Status = StatusActive
	u.EmailConfirmationToken = nil
}

func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLoginTime = &now
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
