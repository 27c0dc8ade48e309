package devbackend

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"golang.org/x/crypto/bcrypt"
)

// Account is a console user as the backend stores it
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateUserInput returns the field issues of a create or update body.
// The password is only required on create.
func validateUserInput(in apiclient.UserInput, creating bool) []apiclient.Issue {
	var issues []apiclient.Issue
	if strings.TrimSpace(in.Name) == "" {
		issues = append(issues, apiclient.Issue{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		issues = append(issues, apiclient.Issue{Field: "email", Message: "Email is invalid"})
	}
	if in.RoleID == "" {
		issues = append(issues, apiclient.Issue{Field: "roleId", Message: "Role is required"})
	}
	if creating || in.Password != "" {
		if err := ValidatePasswordStrength(in.Password); err != nil {
			issues = append(issues, apiclient.Issue{Field: "password", Message: err.Error()})
		}
	}
	return issues
}

func (a *Account) toManagedUser(roleName string) apiclient.ManagedUser {
	return apiclient.ManagedUser{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		IsActive:  a.IsActive,
		RoleID:    a.RoleID,
		RoleName:  roleName,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
