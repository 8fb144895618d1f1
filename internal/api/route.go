package api

import (
	"EdVix/internal/api/handler"
	"EdVix/internal/api/middleware"
	"EdVix/internal/model"
	"EdVix/internal/pkg/logger"
	"EdVix/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, allowedOrigins ...string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS & Session
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(allowedOrigins...))
	r.Use(middleware.SessionMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		otpGroup := apiGroup.Group("/auth/otp")
		{
			otpGroup.POST("/start", group.AuthHandler.Start)
			otpGroup.POST("/resend", group.AuthHandler.Resend)
			otpGroup.POST("/verify", group.AuthHandler.Verify)
			otpGroup.POST("/reset", group.AuthHandler.Reset)
			otpGroup.GET("/status", group.AuthHandler.Status)
		}

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/email/send", group.UserHandler.SendEmailCode)
			userGroup.POST("/login/email", group.UserHandler.LoginByEmailCode)
			userGroup.GET("/list", group.UserHandler.ListByRole)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
				authGroup.POST("/avatar", group.UserHandler.UploadAvatar)
				authGroup.GET("/notice/:key", group.UserHandler.GetNoticeFlag)
				authGroup.PUT("/notice/:key", group.UserHandler.MarkNoticeSeen)
			}
		}

		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(middleware.AuthMiddleware())
		registerChatRoutes(chatGroup, group.ChatHandler)

		// 学生端与导师端看板，仅对应角色可访问
		studentGroup := apiGroup.Group("/students")
		studentGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(model.RoleStudent))
		registerChatRoutes(studentGroup, group.ChatHandler)

		tutorGroup := apiGroup.Group("/tutors")
		tutorGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(model.RoleTutor))
		registerChatRoutes(tutorGroup, group.ChatHandler)

		sysBoxGroup := apiGroup.Group("/sysbox")
		sysBoxGroup.Use(middleware.AuthMiddleware())
		{
			sysBoxGroup.GET("/list", group.SysBoxHandler.GetNotificationList)
			sysBoxGroup.GET("/unread", group.SysBoxHandler.GetUnreadCount)
			sysBoxGroup.POST("/read", group.SysBoxHandler.MarkRead)
			sysBoxGroup.POST("/read/all", group.SysBoxHandler.MarkAllRead)
		}
	}

	return r
}

func registerChatRoutes(g *gin.RouterGroup, h *handler.ChatHandler) {
	g.GET("/conversations", h.List)
	g.POST("/conversations", h.Start)
	g.GET("/conversations/:id", h.Get)
	g.GET("/conversations/:id/messages", h.Messages)
	g.POST("/conversations/:id/messages", h.Send)
	g.POST("/conversations/:id/read", h.MarkRead)
	g.GET("/conversations/:id/unread", h.Unread)
	g.GET("/unread", h.TotalUnread)
}
