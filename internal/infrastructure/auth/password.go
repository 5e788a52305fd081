package auth

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/order-backend/pkg/e"
	"golang.org/x/crypto/bcrypt"
)

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher: cost <= 0 означает bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", e.Wrap("BcryptHasher.Hash", err)
	}

	return string(hash), nil
}

func (b *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return e.ErrInvalidCredentials
		}

		return fmt.Errorf("%w: %v", e.ErrInvalidCredentials, err)
	}

	return nil
}
