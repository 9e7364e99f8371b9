package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: 15 * time.Minute,
		Issuer:     "test-issuer",
	})
}

func studentSubject() Subject {
	sid := uuid.New()
	return Subject{
		UserID:     uuid.New(),
		Identifier: "2021001",
		Role:       "mahasiswa",
		StudentID:  &sid,
	}
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s"})
	assert.Equal(t, 24*time.Hour, svc.Expiration())
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	tok, err := svc.GenerateAccessToken(studentSubject())

	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 5*time.Second)
}

func TestGenerateAccessToken_RequiresSubject(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.GenerateAccessToken(Subject{Role: "admin"})
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = svc.GenerateAccessToken(Subject{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	sub := studentSubject()

	tok, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(tok.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, sub.UserID.String(), claims.UserID)
	assert.Equal(t, sub.UserID.String(), claims.Subject)
	assert.Equal(t, "2021001", claims.Identifier)
	assert.Equal(t, "mahasiswa", claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	uid, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, uid)

	sid, err := claims.GetStudentUUID()
	require.NoError(t, err)
	require.NotNil(t, sid)
	assert.Equal(t, *sub.StudentID, *sid)
}

func TestValidateAccessToken_AdminHasNoStudent(t *testing.T) {
	svc := newTestJWTService()

	tok, err := svc.GenerateAccessToken(Subject{UserID: uuid.New(), Identifier: "198001", Role: "admin"})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(tok.AccessToken)
	require.NoError(t, err)

	sid, err := claims.GetStudentUUID()
	require.NoError(t, err)
	assert.Nil(t, sid)
}

func TestGenerateAccessToken_UniqueJTI(t *testing.T) {
	svc := newTestJWTService()
	sub := studentSubject()

	a, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)
	b, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)

	ca, err := svc.ValidateAccessToken(a.AccessToken)
	require.NoError(t, err)
	cb, err := svc.ValidateAccessToken(b.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	tok, err := svc.GenerateAccessToken(studentSubject())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(tok.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	tok, err := svc.GenerateAccessToken(studentSubject())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(tok.AccessToken)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateAccessToken_Malformed(t *testing.T) {
	_, err := newTestJWTService().ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	tok, err := newTestJWTService().GenerateAccessToken(studentSubject())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-chars!!", Expiration: time.Minute})
	_, err = other.ValidateAccessToken(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           uuid.NewString(),
		Role:             "admin",
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_MissingRole(t *testing.T) {
	svc := newTestJWTService()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestGetRemainingTTL(t *testing.T) {
	svc := newTestJWTService()

	tok, err := svc.GenerateAccessToken(studentSubject())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(tok.AccessToken)
	require.NoError(t, err)

	ttl := svc.GetRemainingTTL(claims)
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)

	assert.Zero(t, svc.GetRemainingTTL(nil))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, svc.GetRemainingTTL(claims))
}
