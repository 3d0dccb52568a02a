// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name         string   `json:"name" gorm:"type:varchar(255);not null"`
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:varchar(255);not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);default:'customer'"`

	Licenses []License `json:"licenses,omitempty" gorm:"foreignKey:OwnerID"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
