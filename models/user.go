package models

import "time"

// User is the traveler profile owned by the mobile app.
type User struct {
	ID          string     `bson:"_id" json:"id"`
	FirstName   string     `bson:"firstName" json:"firstName"`
	LastName    string     `bson:"lastName" json:"lastName"`
	Email       string     `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber string     `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	PhotoURL    string     `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// UserUpdate carries profile edits made by an operator while booking.
type UserUpdate struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"phone"`
}
