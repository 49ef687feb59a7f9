package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

const testSecret = "test-secret-0123456789abcdef0123"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret)
	actor := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff}

	token, err := m.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(testSecret)
	issuedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue(valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower}, time.Minute)
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("another-secret").Issue(valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsBadClaims(t *testing.T) {
	m := NewTokenManager(testSecret)
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]jwt.MapClaims{
		"неизвестная роль": {"sub": uuid.NewString(), "role": "ROOT", "exp": exp},
		"без sub":          {"role": "STAFF", "exp": exp},
		"sub не uuid":      {"sub": "42", "role": "STAFF", "exp": exp},
		"нулевой uuid":     {"sub": uuid.Nil.String(), "role": "STAFF", "exp": exp},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseAccess(sign(claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := m.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
