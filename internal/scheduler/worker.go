package scheduler

import (
	"context"
	"fmt"

	"leadtriage_backend/internal/events"
	"leadtriage_backend/platform/config"
	"leadtriage_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadStatusReader is the narrow repository view the worker needs to
// decide whether a scheduled follow-up is still relevant.
type LeadStatusReader interface {
	GetLeadStatus(ctx context.Context, leadID uuid.UUID) (string, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadStatusReader
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadStatusReader, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leads,
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskNurtureFollowUp, w.handleNurtureFollowUp)

	return w, nil
}

func (w *Worker) handleNurtureFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNurtureFollowUpPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	if w.leads != nil {
		status, err := w.leads.GetLeadStatus(ctx, leadID)
		if err != nil {
			return err
		}
		// An agent picked the lead up after the follow-up was queued.
		if status == "assigned" {
			return nil
		}
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.NurtureFollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		SessionID: payload.SessionID,
		LeadName:  payload.LeadName,
		LeadEmail: payload.LeadEmail,
	})
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
