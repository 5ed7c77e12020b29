// services/scheduler.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"fizzcaps-server/storage"
)

const (
	radDrainInterval = 30 * time.Second

	// Drain kicks in only once unsoaked radiation passes this threshold,
	// and removes floor(effective/250) HP per tick.
	radDrainThreshold = 150
	radDrainDivisor   = 250
)

// StartRadDrainScheduler runs the radiation health drain server-side: every
// tick, players whose rads exceed their equipped resistance by more than the
// threshold lose HP. Conflicting writes are skipped — the next tick catches
// up, and a lost drain tick is preferable to stalling claim traffic.
func (s *PlayerService) StartRadDrainScheduler(ctx context.Context) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("❌ [RADS] scheduler init failed: %v", err)
		return
	}
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(radDrainInterval),
		gocron.NewTask(func() {
			s.DrainRads(ctx)
		}),
	)

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
	}()
}

// DrainRads applies one drain tick to every stored player.
func (s *PlayerService) DrainRads(ctx context.Context) {
	identities, err := s.Store.ListIdentities(ctx)
	if err != nil {
		log.Printf("⚠️ [RADS] list failed: %v", err)
		return
	}

	for _, identity := range identities {
		state, version, err := s.Store.GetPlayer(ctx, identity)
		if err != nil {
			continue
		}
		effective := state.Rads - state.RadResist
		if effective <= radDrainThreshold || state.HP <= 0 {
			continue
		}
		drain := effective / radDrainDivisor
		if drain == 0 {
			continue
		}
		state.HP -= drain
		if state.HP < 0 {
			state.HP = 0
		}
		if _, err := s.Store.PutPlayer(ctx, identity, state, version); err != nil {
			if !errors.Is(err, storage.ErrVersionConflict) {
				log.Printf("⚠️ [RADS] drain write failed for %s: %v", identity, err)
			}
			continue
		}
		log.Printf("☢️ [RADS] %s took %d rad damage (rads=%d, resist=%d, hp=%d)",
			identity, drain, state.Rads, state.RadResist, state.HP)
	}
}
