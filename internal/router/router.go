package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/handler"
	"UEvents/internal/middleware"
)

type Handlers struct {
	User     *handler.UserHandler
	Club     *handler.ClubHandler
	Event    *handler.EventHandler
	Relation *handler.RelationHandler
	Feed     *handler.FeedHandler
}

// InitRouter wires every route. CORS is skipped when corsOrigins is empty.
func InitRouter(h Handlers, auth middleware.Authenticator, log *zap.Logger, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logger(log))

	if len(corsOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = corsOrigins
		corsConfig.AddAllowHeaders("Authorization", "Accept-Language")
		corsHandler := cors.New(corsConfig)
		r.Use(corsHandler)
		r.OPTIONS("/*any", corsHandler)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(auth)
	maybeAuth := middleware.MaybeAuth(auth)

	// account
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", h.User.Register)
		userGroup.POST("/login", h.User.Login)
	}

	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", h.User.TokenRefresh)
	}

	meGroup := r.Group("/api/me")
	meGroup.Use(requireAuth)
	{
		meGroup.GET("", h.User.Me)
		meGroup.PATCH("", h.User.UpdateMe)
		meGroup.POST("/logout", h.User.Logout)
		meGroup.GET("/follows", h.User.Follows)
		meGroup.GET("/saved-events", h.Feed.Saved)
		meGroup.GET("/rsvps", h.Feed.Going)
	}

	// clubs: public reads use optional auth, everything else needs a session
	clubPublic := r.Group("/api/clubs")
	clubPublic.Use(maybeAuth)
	{
		clubPublic.GET("/:slug", h.Club.Get)
		clubPublic.GET("/:slug/events/public", h.Feed.ClubPublic)
		clubPublic.GET("/:slug/followers/count", h.Relation.FollowerCount)
		clubPublic.GET("/:slug/follow/status", h.Relation.FollowStatus)
	}

	clubGroup := r.Group("/api/clubs")
	clubGroup.Use(requireAuth)
	{
		clubGroup.POST("", h.Club.Create)
		clubGroup.GET("/mine", h.Club.Mine)
		clubGroup.PATCH("/:slug", h.Club.Update)
		clubGroup.POST("/:slug/follow", h.Relation.Follow())
		clubGroup.DELETE("/:slug/follow", h.Relation.Unfollow())
		clubGroup.GET("/:slug/events", h.Feed.ClubOwned)
		clubGroup.POST("/:slug/events", h.Event.Create)
	}

	// events
	eventPublic := r.Group("/api/events")
	eventPublic.Use(maybeAuth)
	{
		eventPublic.GET("", h.Feed.Day)
		eventPublic.GET("/search", h.Feed.Search)
		eventPublic.GET("/:id", h.Event.Get)
		eventPublic.GET("/:id/rsvp/status", h.Relation.EventStatus)
		eventPublic.GET("/:id/rsvp/count", h.Relation.RSVPCount)
	}

	eventGroup := r.Group("/api/events")
	eventGroup.Use(requireAuth)
	{
		eventGroup.PATCH("/:id", h.Event.Update)
		eventGroup.DELETE("/:id", h.Event.Delete)
		eventGroup.PATCH("/:id/publish", h.Event.Publish)
		eventGroup.PATCH("/:id/unpublish", h.Event.Unpublish)
		eventGroup.GET("/:id/validate", h.Event.Validate)
		eventGroup.PUT("/:id/translations/:lang", h.Event.PutTranslation)
		eventGroup.DELETE("/:id/translations/:lang", h.Event.DeleteTranslation)
		eventGroup.POST("/:id/save", h.Relation.Save())
		eventGroup.DELETE("/:id/save", h.Relation.Unsave())
		eventGroup.POST("/:id/rsvp", h.Relation.RSVP())
		eventGroup.DELETE("/:id/rsvp", h.Relation.CancelRSVP())
		eventGroup.GET("/:id/rsvps", h.Relation.ListRSVPs)
	}

	feedGroup := r.Group("/api/feed")
	feedGroup.Use(requireAuth)
	{
		feedGroup.GET("/events", h.Feed.Following)
	}

	return r
}
