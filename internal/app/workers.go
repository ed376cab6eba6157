package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/mediscribe/mediscribe_backend/internal/schema"
	"github.com/mediscribe/mediscribe_backend/pkg/events"
)

// WorkerModule registers the NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	NC  *nats.Conn `optional:"true"`
	Log *slog.Logger
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		p.Log.Debug("NATS not configured, event workers disabled")
		return
	}
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return startOutcomeWorker(p.NC, p.Log)
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// outcome_worker
// ---------------------------------------------------------------------------

// startOutcomeWorker logs every prescription that reaches a final status.
func startOutcomeWorker(nc *nats.Conn, log *slog.Logger) error {
	for _, status := range []schema.Status{schema.StatusCompleted, schema.StatusFailed} {
		if _, err := nc.Subscribe(events.Wildcard(status.String()), func(msg *nats.Msg) {
			handleOutcome(log, msg.Subject, msg.Data)
		}); err != nil {
			return err
		}
	}
	return nil
}

func handleOutcome(log *slog.Logger, subject string, data []byte) {
	ev, err := events.Decode(subject, data)
	if err != nil {
		log.Warn("outcome_worker: undecodable event", "subject", subject, "err", err)
		return
	}
	status := schema.Status(ev.Status)
	if !status.Terminal() {
		return
	}
	if status == schema.StatusFailed {
		log.Warn("prescription failed", "unique_id", ev.UniqueID, "stage", ev.Stage, "error", ev.Error)
		return
	}
	log.Info("prescription completed", "unique_id", ev.UniqueID)
}
