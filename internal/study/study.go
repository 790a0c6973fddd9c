// Package study runs AEP convergence studies: for each sample count it asks a
// point strategy for evaluation points, evaluates the power model there and
// records the weighted mean and standard deviation of annual energy.
package study

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/layout"
	"github.com/chrissnell/windaep/internal/power"
	"github.com/chrissnell/windaep/internal/types"
	"github.com/chrissnell/windaep/internal/uq"
)

// Persister stores the full record. It is called after every iteration and
// must overwrite what it stored before.
type Persister interface {
	Persist(ctx context.Context, r *Record) error
}

// Config wires a Study together
type Config struct {
	Strategy        uq.Strategy
	Model           power.Model
	Layout          *layout.Layout
	SampleCounts    []int
	OnProviderError types.ProviderErrorPolicy
	Metadata        Metadata
	Persister       Persister
	Logger          *zap.SugaredLogger
}

// Study is a single convergence study over increasing sample counts
type Study struct {
	cfg    Config
	record *Record
	logger *zap.SugaredLogger
}

// New validates cfg and returns a Study with an empty record
func New(cfg Config) (*Study, error) {
	if cfg.Strategy == nil {
		return nil, types.ConfigErrorf("study needs a point strategy")
	}
	if cfg.Model == nil {
		return nil, types.ConfigErrorf("study needs a power model")
	}
	if cfg.Layout == nil {
		return nil, types.ConfigErrorf("study needs a layout")
	}
	if len(cfg.SampleCounts) == 0 {
		return nil, types.ConfigErrorf("study needs at least one sample count")
	}
	switch cfg.OnProviderError {
	case "":
		cfg.OnProviderError = types.PolicyAbort
	case types.PolicyAbort, types.PolicySkip:
	default:
		return nil, types.ConfigErrorf("unknown on-provider-error policy %q", cfg.OnProviderError)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Study{
		cfg:    cfg,
		record: NewRecord(cfg.Metadata),
		logger: logger,
	}, nil
}

// Record returns the record the study writes to
func (s *Study) Record() *Record {
	return s.record
}

// Run iterates over the sample counts in order. Cancelling ctx stops the
// study between iterations. A configuration error stops
// the study at once. A provider failure stops it too unless the policy is
// skip, in which case that sample count is left out of the record. The record
// holds every completed iteration even when Run returns an error.
func (s *Study) Run(ctx context.Context) (*Record, error) {
	start := time.Now()
	logger := s.logger.With("run_id", s.record.RunID.String(), "method", s.cfg.Strategy.Name())

	for _, n := range s.cfg.SampleCounts {
		if err := ctx.Err(); err != nil {
			return s.record, err
		}

		it, err := s.iterate(n)
		if err != nil {
			if errors.Is(err, types.ErrProviderCommunication) && s.cfg.OnProviderError == types.PolicySkip {
				logger.Errorw("quadrature provider failed, skipping sample count",
					"n", n, "policy", s.cfg.OnProviderError, "error", err)
				continue
			}
			if errors.Is(err, types.ErrProviderCommunication) {
				logger.Errorw("quadrature provider failed, aborting study",
					"n", n, "policy", s.cfg.OnProviderError, "error", err)
			}
			return s.record, fmt.Errorf("sample count %d: %w", n, err)
		}

		if it.Degraded {
			logger.Warnw("weights are not a probability vector, iteration is degraded",
				"n", n, "anomaly", it.Anomaly, "degraded", true)
		}

		if err := s.record.Append(it); err != nil {
			return s.record, err
		}
		// A finished iteration is persisted even when ctx was cancelled while
		// it ran; cancellation is honored before the next one starts.
		if s.cfg.Persister != nil {
			if err := s.cfg.Persister.Persist(context.WithoutCancel(ctx), s.record); err != nil {
				return s.record, fmt.Errorf("persisting record after sample count %d: %w", n, err)
			}
		}

		logger.Infow("iteration complete",
			"n", n, "samples", it.Samples, "mean_gwh", it.Mean, "std_gwh", it.Std, "elapsed", it.Elapsed)
	}

	logger.Infow("study complete", "iterations", s.record.Len(), "elapsed", time.Since(start))
	return s.record, nil
}

func (s *Study) iterate(n int) (Iteration, error) {
	start := time.Now()

	samples, err := s.cfg.Strategy.Samples(n)
	if err != nil {
		return Iteration{}, err
	}

	p, err := s.cfg.Model.Power(samples.Directions, samples.Speeds, s.cfg.Layout)
	if err != nil {
		return Iteration{}, fmt.Errorf("evaluating power model %s: %w", s.cfg.Model.Name(), err)
	}
	if len(p) != samples.Len() {
		return Iteration{}, fmt.Errorf("power model %s returned %d values for %d points",
			s.cfg.Model.Name(), len(p), samples.Len())
	}

	mean, std := WeightedMoments(samples.Weights, p)
	it := Iteration{
		SampleCount: n,
		Samples:     samples.Len(),
		Mean:        ToGWh(mean),
		Std:         ToGWh(std),
		Directions:  samples.Directions,
		Speeds:      samples.Speeds,
		Power:       p,
		Weights:     samples.Weights,
		Elapsed:     time.Since(start),
	}
	if samples.Anomaly != nil {
		it.Degraded = true
		it.Anomaly = samples.Anomaly.String()
	}
	return it, nil
}

// WeightedMoments returns sum(w*x) and sqrt(sum(w*(x-mean)^2)). Weights are
// used as given.
func WeightedMoments(weights, values []float64) (mean, std float64) {
	mean = floats.Dot(weights, values)
	var variance float64
	for i, x := range values {
		d := x - mean
		variance += weights[i] * d * d
	}
	return mean, math.Sqrt(math.Max(variance, 0))
}

// ToGWh converts a mean farm power in kW into annual energy in GWh
func ToGWh(kw float64) float64 {
	return kw * constants.HoursPerYear / constants.KWhPerGWh
}
