package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/spoolgate/backend/internal/interfaces/http/middleware"
	"github.com/spoolgate/backend/internal/interfaces/http/router"
)

// RouteMiddleware holds the middleware the route groups are assembled with.
// Nil entries are skipped.
type RouteMiddleware struct {
	Auth        gin.HandlerFunc
	JSONLimit   gin.HandlerFunc // body cap for JSON endpoints
	UploadLimit gin.HandlerFunc // body cap for multipart uploads
	LoginLimit  gin.HandlerFunc // rate limit on the login endpoint
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// AuthRoutes creates the route group for login, logout and identity
func AuthRoutes(h *AuthHandler, mw RouteMiddleware) *router.DomainGroup {
	group := router.NewDomainGroup("auth", "/auth")
	group.Use(chain(mw.Auth)...)

	group.POST("/login", chain(mw.LoginLimit, mw.JSONLimit, h.Login)...)
	group.POST("/logout", h.Logout)
	group.GET("/me", h.Me)
	return group
}

// PrintRoutes creates the route group for the print workflow
func PrintRoutes(h *PrintHandler, mw RouteMiddleware) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")
	group.Use(chain(mw.Auth)...)

	group.POST("/upload", chain(mw.UploadLimit, h.Upload)...)
	group.GET("/preview", h.Preview)
	group.DELETE("/files/:id", h.Discard)

	group.GET("/status", h.Status)
	group.GET("/printers", h.Printers)
	group.GET("/printers/:name/options", h.Options)

	group.POST("/jobs", chain(mw.JSONLimit, h.SubmitJob)...)
	return group
}

// AdminRoutes creates the admin-only route group
func AdminRoutes(h *AdminHandler, mw RouteMiddleware) *router.DomainGroup {
	group := router.NewDomainGroup("admin", "/admin")
	group.Use(chain(mw.Auth, middleware.RequireAdmin())...)

	group.POST("/sweep", h.Sweep)
	return group
}

// RegisterSystemRoutes mounts the unauthenticated health endpoints at the root
func RegisterSystemRoutes(engine gin.IRoutes, h *SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/health/live", h.Live)
	engine.GET("/health/ready", h.Ready)
}
