package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type SchedulerConfig struct {
	UsageResetSchedule   string
	NodeSweepSchedule    string
	NodeHeartbeatTimeout time.Duration
}

// Scheduler runs the periodic maintenance jobs: the daily token usage reset
// and the sweep of nodes that stopped sending heartbeats.
type Scheduler struct {
	cron  *cron.Cron
	usage *UsageService
	nodes *NodeService
	cfg   SchedulerConfig
}

func NewScheduler(usage *UsageService, nodes *NodeService, cfg SchedulerConfig) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		usage: usage,
		nodes: nodes,
		cfg:   cfg,
	}
	if _, err := s.cron.AddFunc(cfg.UsageResetSchedule, s.resetUsage); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.NodeSweepSchedule, s.sweepNodes); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("Scheduler stop timed out")
	}
}

func (s *Scheduler) resetUsage() {
	if _, err := s.usage.ResetDaily(context.Background(), time.Now()); err != nil {
		log.Error().Err(err).Msg("Daily usage reset failed")
	}
}

func (s *Scheduler) sweepNodes() {
	if _, err := s.nodes.SweepInactive(context.Background(), time.Now(), s.cfg.NodeHeartbeatTimeout); err != nil {
		log.Error().Err(err).Msg("Node sweep failed")
	}
}
