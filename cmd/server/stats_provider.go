package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/powertimer"
)

type StatsProvider interface {
	Stats(context.Context) (powertimer.Stats, error)
	RecentSessions(ctx context.Context, limit int) ([]powertimer.ExistingSessionRecord, error)
}

type statsProvider struct {
	sessions powertimer.SessionRepo
	l        *log.Logger
	now      func() time.Time
}

func NewStatsProvider(sessions powertimer.SessionRepo, logger *log.Logger) StatsProvider {
	return &statsProvider{
		sessions: sessions,
		l:        logger,
		now:      time.Now,
	}
}

func (p *statsProvider) Stats(ctx context.Context) (powertimer.Stats, error) {
	existing, err := p.sessions.GetSessions(ctx, powertimer.StatsSessionLimit)
	if err != nil {
		return powertimer.Stats{}, err
	}
	if len(existing) == powertimer.StatsSessionLimit {
		p.l.Warn("stats truncated to most recent sessions", "limit", powertimer.StatsSessionLimit)
	}
	p.l.Debug("computing stats", "sessions", len(existing), "limit", powertimer.StatsSessionLimit)

	records := make([]powertimer.SessionRecord, 0, len(existing))
	for _, s := range existing {
		records = append(records, s.SessionRecord)
	}
	return powertimer.ComputeStats(records, p.now()), nil
}

func (p *statsProvider) RecentSessions(ctx context.Context, limit int) ([]powertimer.ExistingSessionRecord, error) {
	if limit <= 0 || limit > powertimer.StatsSessionLimit {
		limit = powertimer.StatsSessionLimit
	}
	p.l.Debug("listing sessions", "limit", limit)
	return p.sessions.GetSessions(ctx, limit)
}
