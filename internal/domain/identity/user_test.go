package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestNewStudentUser(t *testing.T) {
	sid := uuid.New()

	u, err := NewStudentUser(sid, " 21ti001 ", "Siti")

	require.NoError(t, err)
	assert.Equal(t, "21TI001", u.Identifier)
	assert.Equal(t, RoleStudent, u.Role)
	require.NotNil(t, u.StudentID)
	assert.Equal(t, sid, *u.StudentID)
	// the initial password is the NIM as typed
	assert.True(t, u.VerifyPassword(" 21ti001 "))
	assert.False(t, u.VerifyPassword("21TI002"))
}

func TestNewStudentUser_RequiresStudent(t *testing.T) {
	_, err := NewStudentUser(uuid.Nil, "21TI001", "Siti")
	assert.Error(t, err)
}

func TestNewAdminUser(t *testing.T) {
	u, err := NewAdminUser("198001012005011001", "Admin", "s3cret-pass")

	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Nil(t, u.StudentID)
	assert.True(t, u.VerifyPassword("s3cret-pass"))

	_, err = NewAdminUser("", "Admin", "x")
	assert.Error(t, err)
	_, err = NewAdminUser("123", "Admin", "")
	assert.Error(t, err)
}

func TestUser_LoginFailures(t *testing.T) {
	u, err := NewAdminUser("123456", "Admin", "password1")
	require.NoError(t, err)

	assert.False(t, u.RecordLoginFailure(3, time.Minute))
	assert.False(t, u.RecordLoginFailure(3, time.Minute))
	assert.True(t, u.RecordLoginFailure(3, time.Minute))
	assert.True(t, u.IsLocked())

	u.RecordLoginSuccess()
	assert.False(t, u.IsLocked())
	assert.Equal(t, 0, u.FailedAttempts)
	assert.NotNil(t, u.LastLoginAt)
}

func TestUser_SetPassword(t *testing.T) {
	u, err := NewAdminUser("123456", "Admin", "password1")
	require.NoError(t, err)

	require.NoError(t, u.SetPassword("password2"))
	assert.True(t, u.VerifyPassword("password2"))
	assert.False(t, u.VerifyPassword("password1"))
}
