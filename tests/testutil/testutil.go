// Package testutil provides common test utilities for the points backend.
// It contains in-memory repositories, principals for the two roles, gin test
// contexts and polling assertions.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContextWithRequest(t, httptest.NewRequest(http.MethodGet, "/", nil))
}

// NewTestContextWithRequest creates a Gin test context around req.
func NewTestContextWithRequest(t *testing.T, req *http.Request) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// SetRequestID sets the request ID read by handlers and the logger.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(logger.RequestIDKey, id)
}

// SetPrincipal authenticates the request as p.
func (tc *TestContext) SetPrincipal(p *access.Principal) {
	tc.Context.Request = tc.Context.Request.WithContext(access.WithPrincipal(tc.Context.Request.Context(), p))
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// AdminPrincipal returns a staff principal
func AdminPrincipal() *access.Principal {
	return &access.Principal{
		SubjectID:  NewTestUUID("test-admin"),
		Role:       identity.RoleAdmin,
		Identifier: "198001012010011001",
	}
}

// StudentPrincipal returns the principal of the student with the given ID
func StudentPrincipal(studentID uuid.UUID) *access.Principal {
	sid := studentID
	return &access.Principal{
		SubjectID:  NewTestUUID("user-" + studentID.String()),
		Role:       identity.RoleStudent,
		StudentID:  &sid,
		Identifier: studentID.String(),
	}
}

// AsPrincipal is a middleware that authenticates every request as p. A nil
// p leaves the request anonymous.
func AsPrincipal(p *access.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}

// RequireEventually is like AssertEventually but fails immediately.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
