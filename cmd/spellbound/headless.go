package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/spellbound/engine"
	"github.com/nathoo/spellbound/engine/interp"
	"github.com/nathoo/spellbound/relay"
	"github.com/nathoo/spellbound/types"
)

// headless advances the engine on a wall-clock tick with no terminal. Relay
// clients are the only source of requests and the only audience.
type headless struct {
	eng *engine.Engine
	hub *relay.Hub
	log *zap.Logger
}

func runHeadless(ctx context.Context, eng *engine.Engine, hub *relay.Hub, rate time.Duration, log *zap.Logger) error {
	h := &headless{eng: eng, hub: hub, log: log}
	if hub == nil {
		log.Warn("headless mode without a relay address; nothing can reach the engine")
	} else {
		eng.OnEffects = hub.Broadcast
	}
	if err := eng.Begin(); err != nil {
		return err
	}

	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	log.Info("headless playback started", zap.Duration("tick_rate", rate))

	for {
		select {
		case <-ctx.Done():
			log.Info("headless playback stopped", zap.Int("tick", eng.State.Tick))
			return nil
		case <-ticker.C:
			h.step()
		}
	}
}

// step applies queued requests, then advances playback if a scenario is
// active. The world clock only moves while something plays.
func (h *headless) step() {
	if h.hub != nil {
		h.logOutput(h.hub.Drain(h.eng))
	}
	if h.eng.Driver.Status() == interp.Idle {
		return
	}
	h.logOutput(h.eng.Tick())
}

func (h *headless) logOutput(result types.Result) {
	for _, line := range result.Output {
		h.log.Info("output", zap.String("line", line), zap.Int("tick", h.eng.State.Tick))
	}
}
