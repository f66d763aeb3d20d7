package app

import (
	"github.com/yungbote/neurobridge-grading/internal/http"
	httpH "github.com/yungbote/neurobridge-grading/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-grading/internal/http/middleware"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, svc Services, metrics *observability.Metrics, db httpH.Pinger) *http.Server {
	log.Info("Wiring handlers...")
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
		HealthHandler:  httpH.NewHealthHandler(db),
		GradingHandler: httpH.NewGradingHandler(svc.Grading),
		MasteryHandler: httpH.NewMasteryHandler(svc.MasteryViews),
	})
}
