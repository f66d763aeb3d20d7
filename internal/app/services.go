package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-grading/internal/data/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/modules/grading"
	"github.com/yungbote/neurobridge-grading/internal/modules/mastery"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	"github.com/yungbote/neurobridge-grading/internal/services"
)

type Services struct {
	Aggregate    domainagg.SubmissionGradingAggregate
	Orchestrator *grading.Orchestrator
	Coordinator  *grading.Coordinator
	Mastery      *mastery.Aggregator

	Grading      services.GradingService
	MasteryViews services.MasteryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	agg := aggregates.NewSubmissionGradingAggregate(aggregates.SubmissionGradingAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)},
		Submissions: set.Submissions,
		Scores:      set.CriterionScores,
		Drafts:      set.FeedbackDrafts,
	})

	tones := grading.Tones(log)
	orch := grading.NewOrchestrator(grading.OrchestratorDeps{
		Log:              log,
		Aggregate:        agg,
		Generator:        grading.NewOpenAIGenerator(clients.OpenAI, tones, log),
		Locker:           clients.Locker,
		Metrics:          metrics,
		GeneratorTimeout: cfg.GeneratorTimeout,
	})
	recorder := mastery.NewAggregator(mastery.AggregatorDeps{
		Log:     log,
		Records: set.MasteryRecords,
		Scores:  set.CriterionScores,
		Metrics: metrics,
	})
	coord := grading.NewCoordinator(grading.CoordinatorDeps{
		Log:          log,
		Orchestrator: orch,
		Aggregate:    agg,
		Assignments:  set.Assignments,
		Rubrics:      set.Rubrics,
		Submissions:  set.Submissions,
		Cache:        clients.Cache,
		CacheTTL:     cfg.CacheTTL,
		Concurrency:  cfg.BatchConcurrency,
		Metrics:      metrics,
		AfterGrade:   services.MasteryAfterGrade(recorder),
	})
	advisor := mastery.NewOpenAIAdvisor(clients.OpenAI, log)

	return Services{
		Aggregate:    agg,
		Orchestrator: orch,
		Coordinator:  coord,
		Mastery:      recorder,
		Grading: services.NewGradingService(services.GradingServiceDeps{
			Log:          log,
			Repos:        set,
			Aggregate:    agg,
			Orchestrator: orch,
			Coordinator:  coord,
			Mastery:      recorder,
			Advisor:      advisor,
			Tones:        tones,
		}),
		MasteryViews: services.NewMasteryService(services.MasteryServiceDeps{
			Log:     log,
			Repos:   set,
			Advisor: advisor,
		}),
	}
}
