package router

import (
	"log/slog"
	"net/http"
	"time"

	"finsignal/internal/handlers"
	"finsignal/internal/middleware"
	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Lifecycle         *services.Lifecycle
	Queue             *services.QueueService
	Strategy          *services.StrategyService
	Health            *services.HealthService
	Influencers       *services.InfluencerService
	Feeds             *services.FeedService
	Analytics         *services.AnalyticsService
	OperatorTokenHash string
	Logger            *slog.Logger
	Clock             func() time.Time
}

// New builds the engine with recovery and request logging.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Logger != nil {
		r.Use(middleware.RequestLogger(d.Logger))
	}
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	postHandler := handlers.NewPostHandler(d.Queue, d.Lifecycle)
	commentHandler := handlers.NewCommentHandler(d.Queue, d.Lifecycle)
	connectionHandler := handlers.NewConnectionHandler(d.Queue, d.Lifecycle)
	influencerHandler := handlers.NewInfluencerHandler(d.Influencers)
	strategyHandler := handlers.NewStrategyHandler(d.Strategy, d.Health)
	slotHandler := handlers.NewSlotHandler(d.Clock)
	feedHandler := handlers.NewFeedHandler(d.Feeds)
	analyticsHandler := handlers.NewAnalyticsHandler(d.Analytics)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// Read-only routes
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get)
	api.GET("/posts/:id/preview", postHandler.Preview)
	api.GET("/comments", commentHandler.List)
	api.GET("/connections", connectionHandler.List)
	api.GET("/influencers", influencerHandler.List)
	api.GET("/feeds", feedHandler.List)
	api.GET("/slots", slotHandler.List)
	api.GET("/slots/format", slotHandler.Format)
	api.GET("/strategy", strategyHandler.Get)
	api.GET("/strategy/topics", strategyHandler.Topics)
	api.GET("/strategy/health", strategyHandler.Health)

	// Operator routes
	operator := api.Group("/")
	operator.Use(middleware.OperatorAuth(d.OperatorTokenHash))
	{
		operator.PUT("/posts/:id", postHandler.Edit)
		operator.DELETE("/posts/:id", postHandler.Delete)
		operator.POST("/posts/:id/transitions", postHandler.Transition)

		operator.PUT("/comments/:id", commentHandler.Edit)
		operator.POST("/comments/:id/transitions", commentHandler.Transition)

		operator.POST("/connections/:id/transitions", connectionHandler.Transition)

		operator.POST("/influencers", influencerHandler.Create)
		operator.PUT("/influencers/:id/relationship", influencerHandler.SetRelationship)
		operator.POST("/influencers/:id/interactions", influencerHandler.LogInteraction)

		operator.POST("/feeds", feedHandler.Create)
		operator.PUT("/feeds/:id", feedHandler.Update)
		operator.PUT("/feeds/:id/toggle", feedHandler.Toggle)
		operator.DELETE("/feeds/:id", feedHandler.Delete)

		operator.POST("/analytics/score-post", analyticsHandler.ScorePost)

		operator.PUT("/strategy", strategyHandler.Update)
		operator.PUT("/strategy/topics", strategyHandler.ReplaceTopics)
		operator.POST("/strategy/topics/rebalance", strategyHandler.Rebalance)
	}
}
