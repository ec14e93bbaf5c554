package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Admin is the single operator account allowed to read the debug and stats
// endpoints. Password holds a bcrypt hash.
type Admin struct {
	Username string
	Password string
}

// HashPassword replaces the plain password with its bcrypt hash.
func (a *Admin) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

func (a *Admin) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(candidate))
	return err == nil
}
