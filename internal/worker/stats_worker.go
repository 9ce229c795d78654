package worker

import (
	"context"

	"github.com/rs/zerolog"

	"opinex/internal/metrics"
)

type EventKind string

const (
	EventCreated       EventKind = "created"
	EventUpdated       EventKind = "updated"
	EventStatusChanged EventKind = "status_changed"
	EventVoted         EventKind = "voted"
	EventCommented     EventKind = "commented"
	EventReported      EventKind = "reported"
)

type SurveyEvent struct {
	Kind     EventKind
	SurveyID string
}

// RankingInvalidator drops cached featured and latest lists. The lists hold
// whole survey documents, so every event kind invalidates them.
type RankingInvalidator interface {
	InvalidateRankings(ctx context.Context) error
}

type StatsWorker struct {
	Ch    <-chan SurveyEvent
	cache RankingInvalidator
	log   zerolog.Logger
}

func NewStatsWorker(ch <-chan SurveyEvent, cache RankingInvalidator, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{Ch: ch, cache: cache, log: log.With().Str("component", "stats_worker").Logger()}
}

func (w *StatsWorker) Run(ctx context.Context) {
	w.log.Info().Msg("stats worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stats worker stopped")
			return
		case ev, ok := <-w.Ch:
			if !ok {
				w.log.Info().Msg("event channel closed")
				return
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *StatsWorker) handle(ctx context.Context, ev SurveyEvent) {
	metrics.IncSurveyEvent(string(ev.Kind))
	w.log.Debug().Str("kind", string(ev.Kind)).Str("survey_id", ev.SurveyID).Msg("processing survey event")

	if w.cache == nil {
		return
	}
	if err := w.cache.InvalidateRankings(ctx); err != nil {
		w.log.Warn().Err(err).Str("survey_id", ev.SurveyID).Msg("ranking cache invalidation failed")
	}
}

// Publish hands ev to the worker without blocking; it reports false when the
// buffer is full and the event was dropped.
func Publish(ch chan<- SurveyEvent, ev SurveyEvent) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
