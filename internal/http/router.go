package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-grading/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-grading/internal/http/middleware"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    string
	AuthMiddleware *httpMW.AuthMiddleware

	GradingHandler *httpH.GradingHandler
	MasteryHandler *httpH.MasteryHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthcheck"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Grading
		if cfg.GradingHandler != nil {
			protected.POST("/grading/submissions/:id", cfg.GradingHandler.GradeOne)
			protected.GET("/grading/submissions/:id", cfg.GradingHandler.GetGrading)
			protected.PUT("/grading/submissions/:id/feedback", cfg.GradingHandler.ReviewFeedback)
			protected.POST("/grading/assignments/:id/batch", cfg.GradingHandler.GradeBatch)
			protected.GET("/grading/assignments/:id/tiers", cfg.GradingHandler.GetTiers)
			protected.GET("/grading/assignments/:id/analytics", cfg.GradingHandler.GetAnalytics)
			protected.POST("/submissions/:id/resubmit", cfg.GradingHandler.Resubmit)
		}

		// Mastery
		if cfg.MasteryHandler != nil {
			protected.GET("/mastery/students/:id", cfg.MasteryHandler.GetStudentMastery)
			protected.GET("/mastery/classes/:id", cfg.MasteryHandler.GetClassMastery)
			protected.GET("/mastery/classes/:id/gaps", cfg.MasteryHandler.GetClassGaps)
		}
	}

	return r
}
