package enrollmentService

import (
	"errors"
	"strings"

	"tutorhub/apperr"
	"tutorhub/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StudentResolver decides who an enrollment is for. It runs inside the enrollment
// transaction and must only use tx.
type StudentResolver interface {
	ResolveStudent(tx *gorm.DB) (*models.User, error)
}

// ByUserID resolves an existing student account, e.g. the session user or a student
// picked by an admin.
type ByUserID struct {
	UserID uint
}

func (r ByUserID) ResolveStudent(tx *gorm.DB) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, r.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, apperr.Internal("Failed to load student!", err)
	}
	if user.Role != models.RoleStudent {
		return nil, ErrNotAStudent
	}
	return &user, nil
}

// ByContact resolves the student from enrollment request contact details. An unknown
// email gets a new STUDENT account with an unusable random password; the student sets
// a real one when an admin resets it.
type ByContact struct {
	Name         string
	Email        string
	Phone        string
	HashPassword func(string) (string, error)
}

func (r ByContact) ResolveStudent(tx *gorm.DB) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(r.Email))

	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != models.RoleStudent {
			return nil, ErrNotAStudent
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("Failed to load student!", err)
	}

	hash := r.HashPassword
	if hash == nil {
		hash = BcryptHash(bcrypt.DefaultCost)
	}
	password, err := hash(uuid.NewString())
	if err != nil {
		return nil, apperr.Internal("Failed to create student account!", err)
	}

	user = models.User{
		Name:     strings.TrimSpace(r.Name),
		Email:    email,
		Phone:    strings.TrimSpace(r.Phone),
		Role:     models.RoleStudent,
		Password: password,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, apperr.Internal("Failed to create student account!", err)
	}
	return &user, nil
}

// BcryptHash returns a password hasher with the given cost.
func BcryptHash(cost int) func(string) (string, error) {
	return func(password string) (string, error) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
}
