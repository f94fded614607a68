package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/taskflow/internal/handlers"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Projects      *handlers.ProjectHandler
	Tasks         *handlers.TaskHandler
	Comments      *handlers.CommentHandler
	Notifications *handlers.NotificationHandler
	Realtime      *handlers.RealtimeHandler
	WebSocket     *handlers.WebSocketHandler
}

func APIEndpoints(r *gin.Engine, h Handlers, authMW gin.HandlerFunc) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", authMW, h.Auth.Logout)
	}

	// Рукопожатие проверяет токен само, после upgrade
	r.GET("/ws", h.WebSocket.HandleWebSocket)

	api := r.Group("/api", authMW)
	{
		api.GET("/me", h.Users.GetMe)
		api.GET("/users/:id", h.Users.GetUser)

		api.POST("/projects", h.Projects.Create)
		api.GET("/projects", h.Projects.List)
		api.GET("/projects/:id", h.Projects.Get)
		api.DELETE("/projects/:id", h.Projects.Delete)
		api.POST("/projects/:id/members", h.Projects.AddMember)
		api.DELETE("/projects/:id/members/:userId", h.Projects.RemoveMember)
		api.GET("/projects/:id/online", h.Projects.Online)

		api.GET("/projects/:id/tasks", h.Tasks.List)
		api.POST("/projects/:id/tasks", h.Tasks.Create)
		api.PATCH("/tasks/:id", h.Tasks.Update)
		api.POST("/tasks/:id/move", h.Tasks.Move)
		api.DELETE("/tasks/:id", h.Tasks.Delete)

		api.GET("/tasks/:id/comments", h.Comments.List)
		api.POST("/tasks/:id/comments", h.Comments.Create)

		api.GET("/notifications", h.Notifications.List)
		api.GET("/notifications/unread-count", h.Notifications.UnreadCount)
		api.PATCH("/notifications/:id/read", h.Notifications.MarkRead)
		api.POST("/notifications/read-all", h.Notifications.MarkAllRead)
		api.DELETE("/notifications/:id", h.Notifications.Delete)

		api.POST("/realtime/refresh", h.Realtime.Refresh)
	}
}
