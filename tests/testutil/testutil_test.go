package testutil

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t)
	require.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	assert.Equal(t, "req-123", tc.Context.GetString(logger.RequestIDKey))

	tc.SetHeader("Authorization", "Bearer token")
	assert.Equal(t, "Bearer token", tc.Context.Request.Header.Get("Authorization"))

	p := AdminPrincipal()
	tc.SetPrincipal(p)
	assert.Same(t, p, access.FromContext(tc.Context.Request.Context()))

	tc.Recorder.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed-1"), NewTestUUID("seed-2"))
}

func TestPrincipals(t *testing.T) {
	admin := AdminPrincipal()
	assert.Equal(t, identity.RoleAdmin, admin.Role)
	assert.Nil(t, admin.StudentID)

	sid := uuid.New()
	st := StudentPrincipal(sid)
	assert.Equal(t, identity.RoleStudent, st.Role)
	require.NotNil(t, st.StudentID)
	assert.Equal(t, sid, *st.StudentID)
}

func TestAsPrincipal(t *testing.T) {
	engine := gin.New()
	engine.Use(AsPrincipal(AdminPrincipal()))
	engine.GET("/who", func(c *gin.Context) {
		c.String(http.StatusOK, string(access.FromContext(c.Request.Context()).Role))
	})

	w := Serve(engine, JSONRequest(t, http.MethodGet, "/who", nil))
	assert.Equal(t, "admin", w.Body.String())
}

func TestMultipartRequest(t *testing.T) {
	req := MultipartRequest(t, http.MethodPost, "/upload",
		map[string]string{"nim": "2101"},
		FormFile{Field: "foto", Filename: "a.png", ContentType: "image/png", Data: []byte("png")})

	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.Equal(t, "2101", req.FormValue("nim"))

	f, fh, err := req.FormFile("foto")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", fh.Header.Get("Content-Type"))
}

func TestRequireEventually(t *testing.T) {
	start := time.Now()
	RequireEventually(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestRunHTTPTestCases(t *testing.T) {
	handler := func(c *gin.Context) {
		if c.GetHeader("X-Fail") != "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_VALIDATION"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{
			Name:           "ok",
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]any{"success": true},
		},
		{
			Name:           "failure",
			Headers:        map[string]string{"X-Fail": "1"},
			ExpectedStatus: http.StatusBadRequest,
			Validate: func(t *testing.T, tc *TestContext) {
				AssertErrorResponse(t, tc.Recorder, "ERR_VALIDATION")
			},
		},
	})
}
