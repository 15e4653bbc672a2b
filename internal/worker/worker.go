package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/domain/webhookevent"
	"github.com/makkenzo/checkout-service-api/internal/tasks"
	"go.uber.org/zap"
)

// RunWorkers starts the asynq server and scheduler and blocks until ctx is
// canceled, then shuts both down.
func RunWorkers(ctx context.Context, cfg *config.Config, events webhookevent.Repository, logger *zap.Logger) error {
	redisConnOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(
		redisConnOpts,
		asynq.Config{
			Concurrency: 2,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log := logger.Named("AsynqServerErrorHandler")
				log.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	mux := asynq.NewServeMux()

	pruneHandler := tasks.NewWebhookEventPruneHandler(events, logger)
	mux.HandleFunc(tasks.TypeWebhookEventPrune, pruneHandler.ProcessTask)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("asynq server start failed: %w", err)
	}

	scheduler := asynq.NewScheduler(
		redisConnOpts,
		&asynq.SchedulerOpts{
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqScheduler")),
		},
	)

	pruneTask, err := tasks.NewWebhookEventPruneTask(cfg.Worker.EventRetention)
	if err != nil {
		srv.Shutdown()
		return fmt.Errorf("scheduler task creation error: %w", err)
	}

	entryID, err := scheduler.Register(cfg.Worker.PruneSchedule, pruneTask)
	if err != nil {
		srv.Shutdown()
		return fmt.Errorf("scheduler registration error: %w", err)
	}
	logger.Info("Registered periodic webhook event prune",
		zap.String("entry_id", entryID),
		zap.String("schedule", cfg.Worker.PruneSchedule),
	)

	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("asynq scheduler start failed: %w", err)
	}

	<-ctx.Done()

	logger.Info("Shutting down Asynq Scheduler...")
	scheduler.Shutdown()
	logger.Info("Shutting down Asynq Server...")
	srv.Shutdown()

	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
