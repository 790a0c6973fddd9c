// Package app builds a convergence study from a validated StudyConfig and
// runs it.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/layout"
	"github.com/chrissnell/windaep/internal/power"
	"github.com/chrissnell/windaep/internal/quadrature"
	"github.com/chrissnell/windaep/internal/storage"
	"github.com/chrissnell/windaep/internal/storage/jsonfile"
	"github.com/chrissnell/windaep/internal/storage/timescaledb"
	"github.com/chrissnell/windaep/internal/storage/xlsx"
	"github.com/chrissnell/windaep/internal/study"
	"github.com/chrissnell/windaep/internal/types"
	"github.com/chrissnell/windaep/internal/uq"
)

// EnvTimescaleDSN supplies the database connection string when the
// configuration leaves it empty
const EnvTimescaleDSN = "AEP_TIMESCALEDB_URL"

// App represents the main application
type App struct {
	cfg    *types.StudyConfig
	logger *zap.SugaredLogger

	dist      distribution.Joint
	direction uq.DomainSpec
	speed     uq.DomainSpec
	provider  uq.QuadratureProvider
	model     power.Model
	layout    *layout.Layout
}

// New builds every collaborator the study needs. Any error is a
// configuration error.
func New(cfg *types.StudyConfig, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &App{cfg: cfg, logger: logger}

	var err error
	if a.dist.Direction, err = DirectionDistribution(cfg.Direction); err != nil {
		return nil, err
	}
	if a.direction, err = uq.NewDirectionDomain(a.dist.Direction, cfg.Direction.Mode); err != nil {
		return nil, err
	}
	if a.dist.Speed, err = SpeedDistribution(cfg.Speed); err != nil {
		return nil, err
	}
	if a.speed, err = uq.NewLinearDomain(a.dist.Speed); err != nil {
		return nil, err
	}
	if cfg.Method == types.MethodQuadrature {
		if a.provider, err = QuadratureProvider(cfg.Quadrature); err != nil {
			return nil, err
		}
	}
	if a.model, err = power.NewCurveModel(cfg.Power); err != nil {
		return nil, err
	}
	if a.layout, err = layout.Load(cfg.Layout, cfg.LayoutDir); err != nil {
		return nil, err
	}

	logger.Infow("study configured",
		"variable", cfg.Variable, "method", cfg.Method, "layout", cfg.Layout,
		"turbines", a.layout.Turbines(), "direction_domain", a.direction.String(),
		"sample_counts", cfg.SampleCounts)
	return a, nil
}

// DirectionDistribution builds the wind direction distribution, with its zero
// band removed when one is configured
func DirectionDistribution(c types.DirectionConfig) (distribution.Distribution, error) {
	var base distribution.Distribution
	var err error
	switch c.Kind {
	case types.DistributionUniform:
		base, err = distribution.NewUniform(c.Lower, c.Upper)
	case types.DistributionWindRose:
		base, err = distribution.NewWindRose(c.Frequencies, c.Lower, c.Upper)
	default:
		return nil, types.ConfigErrorf("unknown direction distribution %q", c.Kind)
	}
	if err != nil {
		return nil, types.ConfigErrorf("direction distribution: %v", err)
	}

	if !c.HasZeroBand {
		return base, nil
	}
	banded, err := distribution.Exclude(base, c.ZeroBand[0], c.ZeroBand[1])
	if err != nil {
		return nil, types.ConfigErrorf("direction distribution: %v", err)
	}
	return banded, nil
}

// SpeedDistribution builds the wind speed distribution
func SpeedDistribution(c types.SpeedConfig) (distribution.Distribution, error) {
	var d distribution.Distribution
	var err error
	switch c.Kind {
	case types.DistributionWeibull:
		d, err = distribution.NewWeibull(c.Shape, c.Scale, c.Min, c.Max)
	case types.DistributionUniform:
		d, err = distribution.NewUniform(c.Min, c.Max)
	default:
		return nil, types.ConfigErrorf("unknown speed distribution %q", c.Kind)
	}
	if err != nil {
		return nil, types.ConfigErrorf("speed distribution: %v", err)
	}
	return d, nil
}

// QuadratureProvider returns the configured provider
func QuadratureProvider(c types.QuadratureConfig) (uq.QuadratureProvider, error) {
	switch c.Provider {
	case types.ProviderGauss, "":
		return quadrature.NewGaussProvider(), nil
	case types.ProviderCommand:
		return quadrature.NewCommandProvider(c.Command)
	}
	return nil, types.ConfigErrorf("unknown quadrature provider %q", c.Provider)
}

// Setup returns the strategy setup for one offset
func (a *App) Setup(offset uq.OffsetSpec) uq.Setup {
	return uq.Setup{
		Variable:         a.cfg.Variable,
		Dist:             a.dist,
		Direction:        a.direction,
		Speed:            a.speed,
		Offset:           offset,
		WindSpeedRef:     a.cfg.WindSpeedRef,
		WindDirectionRef: a.cfg.WindDirectionRef,
	}
}

// Study builds the study for one offset writing to persister
func (a *App) Study(offset uq.OffsetSpec, persister study.Persister) (*study.Study, error) {
	strategy, err := uq.NewStrategy(a.cfg.Method, a.Setup(offset), a.provider)
	if err != nil {
		return nil, err
	}
	return study.New(study.Config{
		Strategy:        strategy,
		Model:           a.model,
		Layout:          a.layout,
		SampleCounts:    a.cfg.SampleCounts,
		OnProviderError: a.cfg.OnProviderError,
		Metadata: study.Metadata{
			Method:    a.cfg.Method,
			Variable:  a.cfg.Variable,
			Layout:    a.cfg.Layout,
			WakeModel: a.model.Name(),
			NOffset:   offset.Total,
			Offset:    offset.Index,
			Verbose:   a.cfg.Verbose,
		},
		Persister: persister,
		Logger:    a.logger.Named("study"),
	})
}

// Run runs the study at the configured offset
func (a *App) Run(ctx context.Context) (*study.Record, error) {
	stores, err := a.Storage(ctx, "")
	if err != nil {
		return nil, err
	}
	defer stores.Close()

	offset := uq.OffsetSpec{Index: a.cfg.Offset.Index, Total: a.cfg.Offset.Total}
	s, err := a.Study(offset, stores)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Sweep runs the study once per offset and returns the per sample count
// spread of the mean AEP. Each offset gets its own record files; the summary
// is written next to the JSON record when one is configured.
func (a *App) Sweep(ctx context.Context) ([]study.SweepRow, error) {
	var managers []*storage.Manager
	defer func() {
		for _, m := range managers {
			m.Close()
		}
	}()

	build := func(offset uq.OffsetSpec) (*study.Study, error) {
		stores, err := a.Storage(ctx, fmt.Sprintf("_offset%d", offset.Index))
		if err != nil {
			return nil, err
		}
		managers = append(managers, stores)
		return a.Study(offset, stores)
	}

	rows, _, err := study.SweepOffsets(ctx, a.cfg.Offset.Total, build)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		a.logger.Infow("offset sweep", "n", r.SampleCount, "offsets", r.Offsets,
			"mean_gwh", r.Mean, "std_gwh", r.Std, "min_gwh", r.Min, "max_gwh", r.Max)
	}
	if a.cfg.Storage.JSONPath != "" {
		path := withSuffix(a.cfg.Storage.JSONPath, "_sweep")
		if err := jsonfile.Write(path, rows); err != nil {
			return rows, fmt.Errorf("writing sweep summary: %w", err)
		}
		a.logger.Infow("sweep summary written", "path", path)
	}
	return rows, nil
}

// Storage opens every configured store. suffix is inserted before the
// extension of file-backed stores.
func (a *App) Storage(ctx context.Context, suffix string) (*storage.Manager, error) {
	sc := a.cfg.Storage
	m := storage.NewManager(a.logger.Named("storage"))

	if sc.JSONPath != "" {
		s, err := jsonfile.New(withSuffix(sc.JSONPath, suffix))
		if err != nil {
			return nil, err
		}
		m.Add(s)
	}
	if sc.XLSXPath != "" {
		s, err := xlsx.New(withSuffix(sc.XLSXPath, suffix))
		if err != nil {
			return nil, err
		}
		m.Add(s)
	}

	dsn := sc.TimescaleDSN
	if dsn == "" {
		dsn = os.Getenv(EnvTimescaleDSN)
	}
	if dsn != "" {
		s, err := timescaledb.New(ctx, dsn, a.logger.Named("timescaledb"))
		if err != nil {
			m.Close()
			return nil, err
		}
		m.Add(s)
	}

	a.logger.Debugw("record stores ready", "stores", m.Stores())
	return m, nil
}

func withSuffix(path, suffix string) string {
	if suffix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
