package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smansa-dev/portal-api/internal/middleware"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Events        *EventHandler
	Announcements *AnnouncementHandler
	ClassGroups   *ClassGroupHandler
	Attachments   *AttachmentHandler
	Summary       *SummaryHandler
}

// RegisterRoutes mounts public and admin endpoints under the API prefix.
// The auth middleware guards the admin group; role enforcement happens both
// here and in the services.
func RegisterRoutes(r gin.IRouter, apiPrefix string, auth gin.HandlerFunc, h Handlers) {
	api := r.Group(apiPrefix)

	if h.Events != nil {
		api.GET("/events", h.Events.List)
		api.GET("/events/:id", h.Events.Get)
	}
	if h.Announcements != nil {
		api.GET("/announcements", h.Announcements.List)
		api.GET("/announcements/:id", h.Announcements.Get)
	}
	if h.ClassGroups != nil {
		api.GET("/class-groups", h.ClassGroups.List)
		api.GET("/class-groups/:id", h.ClassGroups.Get)
	}
	if h.Summary != nil {
		api.GET("/summary", h.Summary.Get)
	}
	if h.Attachments != nil {
		api.GET("/attachments/:id/download", h.Attachments.Download)
	}

	admin := api.Group("/admin")
	if auth != nil {
		admin.Use(auth)
	}
	admin.Use(middleware.RequireAdmin())

	if h.Events != nil {
		admin.GET("/events", h.Events.AdminList)
		admin.GET("/events/export", h.Events.Export)
		admin.GET("/events/:id", h.Events.AdminGet)
		admin.POST("/events", h.Events.Create)
		admin.PATCH("/events/:id", h.Events.Update)
		admin.PATCH("/events/:id/toggle", h.Events.Toggle)
		admin.DELETE("/events/:id", h.Events.Delete)
	}
	if h.Announcements != nil {
		admin.GET("/announcements", h.Announcements.AdminList)
		admin.GET("/announcements/export", h.Announcements.Export)
		admin.GET("/announcements/:id", h.Announcements.AdminGet)
		admin.POST("/announcements", h.Announcements.Create)
		admin.PATCH("/announcements/:id", h.Announcements.Update)
		admin.PATCH("/announcements/:id/toggle", h.Announcements.Toggle)
		admin.DELETE("/announcements/:id", h.Announcements.Delete)
	}
	if h.ClassGroups != nil {
		admin.GET("/class-groups", h.ClassGroups.AdminList)
		admin.GET("/class-groups/export", h.ClassGroups.Export)
		admin.GET("/class-groups/:id", h.ClassGroups.AdminGet)
		admin.POST("/class-groups", h.ClassGroups.Create)
		admin.PATCH("/class-groups/:id", h.ClassGroups.Update)
		admin.PATCH("/class-groups/:id/toggle", h.ClassGroups.Toggle)
		admin.DELETE("/class-groups/:id", h.ClassGroups.Delete)
	}
	if h.Attachments != nil {
		admin.GET("/attachments/:id/url", h.Attachments.DownloadURL)
	}
}
