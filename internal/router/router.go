package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/auth"
	"github.com/monocle-dev/wishlist/internal/config"
	"github.com/monocle-dev/wishlist/internal/handlers"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/middleware"
	"gorm.io/gorm"
)

type Options struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  logging.Logger
	Issuer  *auth.Issuer
	Handler *handlers.Handler
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger))

	r.MaxMultipartMemory = opts.Config.MaxUploadBytes

	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := opts.Handler
	requireAuth := middleware.AuthMiddleware(opts.DB, opts.Issuer, opts.Logger)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.CreateUser)
			auth.POST("/login", h.LoginUser)
			auth.POST("/logout", h.LogoutUser)
			auth.GET("/me", requireAuth, h.Me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/search", h.SearchUsers)
			users.PUT("/me", h.UpdateUser)
			users.DELETE("/me", h.DeleteUser)
			users.POST("/me/avatar", h.UploadAvatar)
			users.GET("/me/birthdays", h.UpcomingBirthdays)
			users.GET("/:userId", h.GetUserProfile)
			users.GET("/:userId/wishes", h.GetUserWishes)
			users.GET("/:userId/contacts", h.GetUserContacts)
			users.GET("/:userId/reputation", h.GetReputation)
		}

		wishes := api.Group("/wishes", requireAuth)
		{
			wishes.GET("", h.ListWishes)
			wishes.POST("", h.CreateWish)
			wishes.GET("/reserved", h.ReservedWishes)
			wishes.PUT("/reorder", h.ReorderWishes)
			wishes.GET("/:wishId", h.GetWish)
			wishes.PUT("/:wishId", h.UpdateWish)
			wishes.DELETE("/:wishId", h.DeleteWish)
			wishes.POST("/:wishId/image", h.UploadWishImage)
			wishes.POST("/:wishId/reserve", h.ReserveWish)
			wishes.POST("/:wishId/cancel", h.CancelReservation)
		}

		contacts := api.Group("/contacts", requireAuth)
		{
			contacts.GET("", h.ListContacts)
			contacts.POST("", h.CreateContact)
			contacts.GET("/requests", h.IncomingRequests)
			contacts.GET("/sent", h.SentRequests)
			contacts.POST("/block", h.BlockUser)
			contacts.PUT("/:contactId/accept", h.AcceptContact)
			contacts.PUT("/:contactId/reject", h.RejectContact)
			contacts.DELETE("/:contactId", h.DeleteContact)
		}

		notifications := api.Group("/notifications", requireAuth)
		{
			notifications.GET("", h.ListNotifications)
			notifications.DELETE("", h.ClearNotifications)
			notifications.GET("/unread-count", h.UnreadCount)
			notifications.PUT("/read-all", h.MarkAllNotificationsRead)
			notifications.PUT("/:notificationId/read", h.MarkNotificationRead)
			notifications.DELETE("/:notificationId", h.DeleteNotification)

			if opts.Config.EnableTestEndpoints {
				notifications.POST("/test", h.CreateTestNotification)
			}
		}

		privacy := api.Group("/privacy", requireAuth)
		{
			privacy.GET("", h.GetPrivacy)
			privacy.PUT("", h.UpdatePrivacy)
		}

		reputation := api.Group("/reputation", requireAuth)
		{
			reputation.POST("/votes", h.CreateVote)
		}
	}

	return r
}
