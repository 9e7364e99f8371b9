package router

import (
	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the points API
type Handlers struct {
	Auth         *handler.AuthHandler
	Claim        *handler.ClaimHandler
	Student      *handler.StudentHandler
	ActivityType *handler.ActivityTypeHandler
	Import       *handler.ImportHandler
	System       *handler.SystemHandler
}

// PointsRoutes builds the domain groups of the API. loginGuard runs in front
// of the login route only, e.g. a stricter rate limit.
func PointsRoutes(h Handlers, loginGuard ...gin.HandlerFunc) []*DomainGroup {
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", append(loginGuard, h.Auth.Login)...)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)
	authRoutes.PUT("/password", h.Auth.ChangePassword)

	claimRoutes := NewDomainGroup("claims", "/claims")
	claimRoutes.GET("", h.Claim.List)
	claimRoutes.POST("", h.Claim.Create)
	claimRoutes.POST("/import", h.Import.ImportClaims)
	claimRoutes.GET("/export", h.Import.ExportClaims)
	claimRoutes.GET("/:id", h.Claim.Get)
	claimRoutes.PUT("/:id", h.Claim.Resubmit)
	claimRoutes.PATCH("/:id", h.Claim.Review)
	claimRoutes.PATCH("/:id/status", h.Claim.Review)
	claimRoutes.DELETE("/:id", h.Claim.Delete)
	claimRoutes.GET("/:id/evidence", h.Claim.Evidence)

	studentRoutes := NewDomainGroup("students", "/students")
	studentRoutes.GET("", h.Student.List)
	studentRoutes.POST("", h.Student.Create)
	studentRoutes.GET("/me", h.Student.Me)
	studentRoutes.POST("/import", h.Import.ImportStudents)
	studentRoutes.GET("/export", h.Import.ExportStudents)
	studentRoutes.GET("/:id", h.Student.Get)
	studentRoutes.PUT("/:id", h.Student.Update)
	studentRoutes.DELETE("/:id", h.Student.Delete)
	studentRoutes.GET("/:id/photo", h.Student.Photo)
	studentRoutes.GET("/:id/cv", h.Student.CV)
	studentRoutes.GET("/:id/cv/pdf", h.Student.CVPDF)
	studentRoutes.GET("/:id/points/verify", h.Student.VerifyPoints)

	activityTypeRoutes := NewDomainGroup("activity-types", "/activity-types")
	activityTypeRoutes.GET("", h.ActivityType.List)
	activityTypeRoutes.POST("", h.ActivityType.Create)
	activityTypeRoutes.POST("/import", h.Import.ImportActivityTypes)
	activityTypeRoutes.GET("/export", h.Import.ExportActivityTypes)
	activityTypeRoutes.GET("/:id", h.ActivityType.Get)
	activityTypeRoutes.PUT("/:id", h.ActivityType.Update)
	activityTypeRoutes.DELETE("/:id", h.ActivityType.Delete)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{authRoutes, claimRoutes, studentRoutes, activityTypeRoutes, systemRoutes}
}
