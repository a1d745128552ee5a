package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/auth"
	"orderdesk/internal/importer"
	"orderdesk/internal/middleware"
	"orderdesk/internal/notify"
	"orderdesk/internal/services"
)

// Server wires handlers to the stores, the import pipeline, the session
// manager and the notifier. Everything is injected; no globals.
type Server struct {
	DB       *sql.DB
	Schemas  *services.SchemaService
	Orders   *services.OrderService
	OTP      *services.OTPService
	Importer *importer.Pipeline
	Sessions *auth.Manager
	Notifier *notify.Notifier
	Log      logrus.FieldLogger
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.CORS())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches handlers to the gin engine.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/otp/request", s.handleOTPRequest)
		authGroup.POST("/otp/verify", s.handleOTPVerify)
	}

	secured := router.Group("/api/v1")
	secured.Use(middleware.RequireSession(s.Sessions))
	{
		secured.POST("/imports", s.handleImport)
		secured.POST("/imports/auto-detect", s.handleAutoDetect)
		secured.POST("/imports/upload", s.handleImportUpload)

		secured.POST("/schemas", s.handleCreateSchema)
		secured.GET("/schemas", s.handleListSchemas)
		secured.GET("/schemas/:id/fields", s.handleListFields)

		secured.GET("/orders", s.handleListOrders)
		secured.POST("/orders", s.handleCreateOrder)
		secured.POST("/orders/:id/advance", s.handleAdvanceOrder)
		secured.DELETE("/orders/:id", s.handleDeleteOrder)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	payload := gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)}
	if s.DB != nil {
		if err := s.DB.PingContext(c.Request.Context()); err != nil {
			payload["database"] = gin.H{"status": "unavailable", "error": err.Error()}
		} else {
			payload["database"] = gin.H{"status": "ok"}
		}
	}
	c.JSON(http.StatusOK, payload)
}

// currentMerchant returns the authenticated merchant id set by the session
// middleware, or empty when the route is unprotected.
func currentMerchant(c *gin.Context) string {
	if sessionAny, ok := c.Get(middleware.ContextSessionKey); ok {
		if session, ok := sessionAny.(*auth.Session); ok {
			return session.MerchantID
		}
	}
	return ""
}
