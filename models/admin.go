package models

import (
	"errors"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Admin is a customer-service dashboard operator.
type Admin struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"unique;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Name      string     `json:"name" gorm:"not null"`
	Email     string     `json:"email" gorm:"unique"`
	Role      string     `json:"role" gorm:"default:admin"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RevokedToken backs token revocation when Redis is not configured.
type RevokedToken struct {
	ID        string    `gorm:"primaryKey;size:64"`
	RevokedAt time.Time `gorm:"not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// HashPassword replaces the plain password with its bcrypt hash.
func (a *Admin) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// ValidatePassword checks if the provided password matches the hashed password
func (a *Admin) ValidatePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// GetAdminByUsername retrieves an active admin by username
func GetAdminByUsername(username string) (*Admin, error) {
	var admin Admin
	result := database.DB.Where("username = ? AND is_active = ?", username, true).First(&admin)
	if result.Error != nil {
		return nil, result.Error
	}
	return &admin, nil
}

// GetAdminByID retrieves an admin regardless of status.
func GetAdminByID(id int64) (*Admin, error) {
	var admin Admin
	if err := database.DB.First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// TouchLastLogin records a successful sign-in.
func TouchLastLogin(id int64) error {
	return database.DB.Model(&Admin{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}

// EnsureBootstrapAdmin creates the first operator account when it does not
// exist yet. It returns true when an account was created.
func EnsureBootstrapAdmin(db *gorm.DB, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	var existing Admin
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	admin := &Admin{Username: username, Password: password, Name: username, Email: username + "@local", Role: "admin", IsActive: true}
	if err := admin.HashPassword(); err != nil {
		return false, err
	}
	if err := db.Create(admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
