package main

import (
	"github.com/rs/zerolog/log"
)

const (
	selfTestFrames = 60
	selfTestEvery  = 10
)

// SelfTestSample is the first round's state at a sampled frame
type SelfTestSample struct {
	Frame int
	VXRel float64 // platform-relative horizontal velocity
	X     float64
}

// RunSelfTest fires one round straight ahead and steps a headless world
// frame by frame, sampling the round every selfTestEvery frames while it is
// still in flight.
func RunSelfTest(wc WorldConfig, frames int) ([]SelfTestSample, error) {
	w, err := NewWorld(wc)
	if err != nil {
		return nil, err
	}
	first, _ := w.FireAt(0)
	dt := 1.0 / float64(TickRate)

	var samples []SelfTestSample
	for f := 1; f <= frames; f++ {
		if _, err := w.Step(dt, Input{}); err != nil {
			return samples, err
		}
		if f%selfTestEvery != 0 {
			continue
		}
		for _, p := range w.Snapshot().Projectiles {
			if p.ID != first {
				continue
			}
			vx, _ := w.Model().RelativeVelocity(p.VX, p.VY)
			samples = append(samples, SelfTestSample{Frame: f, VXRel: vx, X: p.X})
		}
	}
	return samples, nil
}

func runSelfTest(wc WorldConfig) error {
	samples, err := RunSelfTest(wc, selfTestFrames)
	for _, s := range samples {
		log.Info().Int("frame", s.Frame).Float64("vxRel", round1(s.VXRel)).Float64("x", round1(s.X)).Msg("selftest")
	}
	if err != nil {
		return err
	}
	log.Info().Int("samples", len(samples)).Msg("selftest done")
	return nil
}
