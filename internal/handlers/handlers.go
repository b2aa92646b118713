package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/fetcher"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/monitor"
	"github.com/vgccalc/vgccalc/internal/parser"
	"github.com/vgccalc/vgccalc/internal/storage"
)

// Fetcher downloads remote data. *fetcher.Client satisfies it.
type Fetcher interface {
	Pokedex(ctx context.Context) ([]byte, error)
	Moves(ctx context.Context) ([]byte, error)
	Chaos(ctx context.Context, month, smogonID string, elo int) ([]byte, error)
	Paste(ctx context.Context, id string) (string, error)
}

// StatusSource reports program status. *monitor.Service satisfies it.
type StatusSource interface {
	GetStatus() monitor.Status
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Engine     *calc.Engine
	Chart      *dex.TypeChart
	Resolver   *dex.Resolver
	Storage    storage.Backend
	Snapshots  *cache.SnapshotCache
	Fetcher    Fetcher
	Parser     *parser.Parser
	Monitor    StatusSource
	LogManager *logging.SlogManager
	Now        func() time.Time

	// DefaultFormat is the format code used when a call names none. Empty
	// means the current format.
	DefaultFormat string
	// DefaultElo overrides core.DefaultElo for get_usage.
	DefaultElo *int
}

// Options controls how tools are registered.
type Options struct {
	// AsyncRefresh queues refresh_pokedex and refresh_usage on a worker
	// instead of running them inline.
	AsyncRefresh bool
	QueueSize    int
}

// Service provides the tool handlers
type Service struct {
	deps         Dependencies
	logger       *slog.Logger
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service. A missing engine, chart,
// parser or snapshot cache gets a default one.
func NewService(deps Dependencies) *Service {
	if deps.Chart == nil {
		deps.Chart = dex.NewTypeChart()
	}
	if deps.Engine == nil {
		deps.Engine = calc.New(deps.Chart, calc.WithEffects(dex.Effects{}))
	}
	if deps.Snapshots == nil {
		deps.Snapshots = cache.NewSnapshotCache()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Service{deps: deps, logger: slog.Default()}
	if deps.LogManager != nil {
		s.logger = deps.LogManager.Logger()
	}
	if deps.Parser == nil {
		s.deps.Parser = parser.NewParser(s.logger)
	}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// Register adds every tool to d and installs the error classifier.
func (s *Service) Register(d *dispatcher.Dispatcher, opts Options) {
	d.SetClassifier(Classify)

	d.Register("calculate_damage", s.CalculateDamage)
	d.Register("calculate_damage_after_intimidate", s.CalculateDamageAfterIntimidate)
	d.Register("analyze_matchup", s.AnalyzeMatchup)
	d.Register("calculate_stats", s.CalculateStats)
	d.Register("compare_speeds", s.CompareSpeeds)
	d.Register("find_minimum_survival_evs", s.FindMinimumSurvivalEVs)
	d.Register("find_minimum_ohko_evs", s.FindMinimumOHKOEVs)
	d.Register("find_speed_evs", s.FindSpeedEVs)
	d.Register("suggest_ev_spread", s.SuggestEVSpread)
	d.Register("get_type_effectiveness", s.GetTypeEffectiveness)
	d.Register("get_speed_benchmarks", s.GetSpeedBenchmarks)
	d.Register("analyze_team_type_coverage", s.AnalyzeTeamTypeCoverage)
	d.Register("analyze_move_coverage", s.AnalyzeMoveCoverage)
	d.Register("dex_pokemon", s.DexPokemon)
	d.Register("dex_move", s.DexMove)
	d.Register("dex_ability", s.DexAbility)
	d.Register("dex_item", s.DexItem)
	d.Register("list_available_formats", s.ListAvailableFormats)
	d.Register("get_usage", s.GetUsage)
	d.Register("compare_elo_brackets", s.CompareEloBrackets)
	d.Register("get_pokemon_counters", s.GetPokemonCounters)
	d.Register("get_team", s.GetTeam)
	d.Register("get_status", s.GetStatus)
	d.Register("import_pokepaste", s.ImportPokepaste, dispatcher.Logged())

	refresh := []dispatcher.Option{dispatcher.Logged()}
	if opts.AsyncRefresh {
		size := opts.QueueSize
		if size <= 0 {
			size = 4
		}
		refresh = append(refresh, dispatcher.Buffered(size))
	}
	d.Register("refresh_pokedex", s.RefreshPokedex, refresh...)
	d.Register("refresh_usage", s.RefreshUsage, refresh...)
}

// Classify maps engine, data layer and fetcher errors to response kinds.
func Classify(err error) dispatcher.ErrorKind {
	var se *fetcher.StatusError
	switch {
	case errors.Is(err, calc.ErrValidation):
		return dispatcher.KindValidation
	case errors.Is(err, calc.ErrSearchAssumption):
		return dispatcher.KindPrecondition
	case errors.Is(err, dex.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return dispatcher.KindLookup
	case errors.Is(err, fetcher.ErrBreakerOpen):
		return dispatcher.KindUnavailable
	case errors.As(err, &se):
		if se.NotFound() {
			return dispatcher.KindLookup
		}
		return dispatcher.KindUnavailable
	}
	return ""
}

func invalid(format string, args ...any) error {
	return dispatcher.Errorf(dispatcher.KindValidation, format, args...)
}

func unavailable(what string) error {
	return dispatcher.Errorf(dispatcher.KindUnavailable, "%s is not configured", what)
}
