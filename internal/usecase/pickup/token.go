package pickup

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

const tokenBytes = 32

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сгенерировать код выдачи")
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить код выдачи")
	}
	return string(hash), nil
}

func tokenMatches(hash, token string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждён хэш кода выдачи")
}
