package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
	"github.com/haivivi/equivocal/pkg/audio/features"
	"github.com/haivivi/equivocal/pkg/audio/pcm"
	"github.com/haivivi/equivocal/pkg/audio/wav"
	"github.com/haivivi/equivocal/pkg/kv"
	"github.com/haivivi/equivocal/pkg/latent"
	"github.com/haivivi/equivocal/pkg/vecstore"
)

// ErrEmptyLibrary is returned by Compose when no prototypes are stored.
var ErrEmptyLibrary = errors.New("scene: no sounds learned")

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	analysis fbank.Config
	vocab    Vocabulary
	logger   *slog.Logger
	now      func() time.Time
	prefix   kv.Key
	workers  int
}

// WithAnalysis sets the spectral analysis config. Clips are resampled to
// its sample rate before analysis.
func WithAnalysis(cfg fbank.Config) Option {
	return func(c *engineConfig) {
		c.analysis = cfg
	}
}

// WithVocabulary replaces the default prompt vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(c *engineConfig) {
		c.vocab = v
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = l
	}
}

// WithClock sets the time source used to stamp prototypes and soundscapes.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) {
		c.now = now
	}
}

// WithPrefix scopes the engine's data under prefix in the store.
func WithPrefix(prefix kv.Key) Option {
	return func(c *engineConfig) {
		c.prefix = prefix
	}
}

// WithWorkers sets how many files are analysed in parallel during Learn.
// The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *engineConfig) {
		c.workers = n
	}
}

// Engine learns prototypes and composes soundscapes.
type Engine struct {
	lib      *Library
	matcher  *Matcher
	analysis fbank.Config
	logger   *slog.Logger
	now      func() time.Time
	workers  int
}

// NewEngine creates an engine storing its library in store.
func NewEngine(store kv.Store, opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		analysis: fbank.DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.analysis.Validate(); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		lib:      NewLibrary(store, cfg.prefix),
		matcher:  NewMatcher(cfg.vocab),
		analysis: cfg.analysis,
		logger:   cfg.logger,
		now:      cfg.now,
		workers:  cfg.workers,
	}, nil
}

// Library returns the engine's prototype and soundscape store.
func (e *Engine) Library() *Library {
	return e.lib
}

// Matcher returns the engine's prompt matcher.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// SampleRate returns the analysis sample rate.
func (e *Engine) SampleRate() int {
	return e.analysis.SampleRate
}

func (e *Engine) newExtractor() *features.Extractor {
	// The config was validated by NewEngine.
	ex, err := features.New(e.analysis)
	if err != nil {
		panic(err)
	}
	return ex
}

// Analyze loads a WAV file and returns its descriptor map.
func (e *Engine) Analyze(ctx context.Context, path string) (latent.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analyzeFile(e.newExtractor(), path)
}

func analyzeFile(ex *features.Extractor, path string) (latent.Map, error) {
	clip, err := wav.Load(path, ex.SampleRate())
	if err != nil {
		return nil, err
	}
	return ex.Extract(clip)
}

// Learn walks the tier folders under root and stores one prototype per
// category folder holding at least one usable WAV file. A nil tiers uses
// DefaultTiers. Missing tier folders and unreadable files are logged and
// skipped. A category appearing in several tiers keeps the last one.
func (e *Engine) Learn(ctx context.Context, root string, tiers []Tier) (*Report, error) {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	start := e.now()
	report := &Report{}
	seen := make(map[string]string)

	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tierDir := filepath.Join(root, tier.Dir)
		entries, err := os.ReadDir(tierDir)
		if errors.Is(err, os.ErrNotExist) {
			e.logger.Info("tier folder not found, skipping", "tier", tier.Dir, "path", tierDir)
			report.MissingTiers = append(report.MissingTiers, tier.Dir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scene: read tier %s: %w", tier.Dir, err)
		}
		e.logger.Info("learning tier", "tier", tier.Dir, "role", tier.Name)

		for _, ent := range entries {
			if !ent.IsDir() {
				continue
			}
			name := ent.Name()
			paths, err := wavFiles(filepath.Join(tierDir, name))
			if err != nil {
				return nil, err
			}
			maps, sources, skipped, err := e.analyzeAll(ctx, paths)
			if err != nil {
				return nil, err
			}
			report.Skipped = append(report.Skipped, skipped...)
			if len(maps) == 0 {
				e.logger.Warn("no usable samples, skipping category", "tier", tier.Dir, "category", name)
				continue
			}
			avg, err := latent.Average(maps...)
			if err != nil {
				return nil, fmt.Errorf("scene: average %s: %w", name, err)
			}
			if prev, ok := seen[name]; ok {
				e.logger.Warn("category learned again, replacing", "category", name, "previous", prev, "tier", tier.Dir)
			}
			seen[name] = tier.Dir

			p := &Prototype{
				Name:      name,
				Tier:      tier.Dir,
				Samples:   len(maps),
				Latent:    avg,
				Sources:   sources,
				LearnedAt: e.now(),
			}
			if err := e.lib.Put(ctx, p); err != nil {
				return nil, err
			}
			e.logger.Info("learned sound", "category", name, "tier", tier.Dir, "samples", len(maps))
			report.Learned = append(report.Learned, p)
		}
	}

	report.Elapsed = e.now().Sub(start)
	return report, nil
}

func wavFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scene: read category %s: %w", dir, err)
	}
	var out []string
	for _, ent := range entries {
		if ent.Type().IsRegular() && strings.EqualFold(filepath.Ext(ent.Name()), ".wav") {
			out = append(out, filepath.Join(dir, ent.Name()))
		}
	}
	return out, nil
}

// analyzeAll extracts every file with up to e.workers goroutines. Results
// keep the order of paths; failed files are reported, not returned.
func (e *Engine) analyzeAll(ctx context.Context, paths []string) ([]latent.Map, []string, []SkippedFile, error) {
	results := make([]latent.Map, len(paths))
	errs := make([]error, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(e.workers, len(paths)) {
		wg.Go(func() {
			ex := e.newExtractor()
			for i := range jobs {
				results[i], errs[i] = analyzeFile(ex, paths[i])
			}
		})
	}
feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	var (
		maps    []latent.Map
		sources []string
		skipped []SkippedFile
	)
	for i, path := range paths {
		if errs[i] != nil {
			e.logger.Warn("skipping file", "path", path, "error", errs[i])
			skipped = append(skipped, SkippedFile{Path: path, Error: errs[i].Error()})
			continue
		}
		maps = append(maps, results[i])
		sources = append(sources, filepath.Base(path))
	}
	return maps, sources, skipped, nil
}

// LearnClips stores a prototype averaged from in-memory clips, which must
// already be at the analysis sample rate.
func (e *Engine) LearnClips(ctx context.Context, name, tier string, clips [][]float32) (*Prototype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ex := e.newExtractor()
	maps := make([]latent.Map, 0, len(clips))
	for i, samples := range clips {
		m, err := ex.Extract(&pcm.Clip{Samples: samples, SampleRate: e.analysis.SampleRate})
		if err != nil {
			return nil, fmt.Errorf("scene: clip %d of %s: %w", i, name, err)
		}
		maps = append(maps, m)
	}
	avg, err := latent.Average(maps...)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", name, err)
	}
	p := &Prototype{
		Name:      name,
		Tier:      tier,
		Samples:   len(maps),
		Latent:    avg,
		LearnedAt: e.now(),
	}
	if err := e.lib.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Compose selects the stored sounds evoked by prompt, blends them with
// equal weights and stores the resulting soundscape.
func (e *Engine) Compose(ctx context.Context, prompt string) (*Soundscape, error) {
	names, err := e.lib.Names(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrEmptyLibrary
	}
	comps, err := e.matcher.Match(prompt, names)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return nil, &NoMatchError{
				Prompt:      prompt,
				Suggestions: e.matcher.Suggest(names, 8),
				Available:   names,
			}
		}
		return nil, err
	}
	weights := make([]float64, len(comps))
	for i := range weights {
		weights[i] = 1 / float64(len(comps))
	}
	return e.blend(ctx, prompt, comps, weights)
}

// Blend mixes the named prototypes with the given weights and stores the
// resulting soundscape. A nil weights slice mixes them equally; weights are
// normalised to sum to one.
func (e *Engine) Blend(ctx context.Context, names []string, weights []float64) (*Soundscape, error) {
	if len(names) == 0 {
		return nil, latent.ErrEmpty
	}
	if weights == nil {
		weights = make([]float64, len(names))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(names) {
		return nil, fmt.Errorf("%w: %d weights for %d sounds", latent.ErrBadWeights, len(weights), len(names))
	}
	comps := make([]Component, len(names))
	for i, n := range names {
		comps[i] = Component{Category: n}
	}
	return e.blend(ctx, "", comps, weights)
}

func (e *Engine) blend(ctx context.Context, prompt string, comps []Component, weights []float64) (*Soundscape, error) {
	maps := make([]latent.Map, len(comps))
	for i, c := range comps {
		p, err := e.lib.Get(ctx, c.Category)
		if err != nil {
			return nil, err
		}
		maps[i] = p.Latent
	}
	blended, err := latent.Blend(maps, weights)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	norm := make([]float64, len(weights))
	for i, w := range weights {
		norm[i] = w / total
	}

	s := &Soundscape{
		ID:         uuid.New(),
		Prompt:     prompt,
		Components: comps,
		Weights:    norm,
		Latent:     blended,
		CreatedAt:  e.now(),
	}
	if err := e.lib.PutScene(ctx, s); err != nil {
		return nil, err
	}
	e.logger.Info("composed soundscape", "id", s.ID, "sounds", s.Categories())
	return s, nil
}

// Listen reads m back as plain-language descriptors.
func (e *Engine) Listen(m latent.Map) latent.Interpretation {
	return latent.Interpret(m)
}

// Similar returns up to k stored prototypes closest to m by cosine distance
// over standardized descriptors. Prototypes whose descriptor layout differs
// from m's are ignored.
func (e *Engine) Similar(ctx context.Context, m latent.Map, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	query := latent.Flatten(m)
	var (
		ids     []string
		vectors [][]float32
	)
	for p, err := range e.lib.Prototypes(ctx) {
		if err != nil {
			return nil, err
		}
		v := latent.Flatten(p.Latent)
		if len(v) != len(query) {
			e.logger.Debug("descriptor layout differs, not comparable", "sound", p.Name, "dim", len(v), "want", len(query))
			continue
		}
		ids = append(ids, p.Name)
		vectors = append(vectors, v)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	std := &vecstore.Standardizer{}
	if len(vectors) > 1 {
		var err error
		if std, err = vecstore.Fit(vectors); err != nil {
			return nil, err
		}
	}
	idx := vecstore.NewMemory()
	defer idx.Close()
	scaled := make([][]float32, len(vectors))
	for i, v := range vectors {
		scaled[i] = std.Apply(v)
	}
	if err := idx.BatchInsert(ids, scaled); err != nil {
		return nil, err
	}
	matches, err := idx.Search(std.Apply(query), k)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, len(matches))
	for i, mt := range matches {
		out[i] = Neighbor{Name: mt.ID, Distance: mt.Distance, Similarity: mt.Similarity()}
	}
	return out, nil
}

// NoMatchError is returned by Compose when the prompt selects no stored
// sound. It wraps ErrNoMatch.
type NoMatchError struct {
	Prompt      string
	Suggestions []string
	Available   []string
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scene: no sounds match %q", e.Prompt)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, "; try words like: %s", strings.Join(e.Suggestions, ", "))
	}
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, "; available sounds: %s", strings.Join(e.Available, ", "))
	}
	return b.String()
}

func (e *NoMatchError) Unwrap() error {
	return ErrNoMatch
}
