// Package engine coordinates the nine forensic analyzers over a single
// decoded image and aggregates their results into a report.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"forensiclens/internal/analyzer"
	"forensiclens/internal/config"
	"forensiclens/internal/errors"
	"forensiclens/internal/logger"
	"forensiclens/pkg/models"
)

// Engine runs every registered analyzer against one input and produces a
// ForensicsReport. One Engine serves one analysis at a time; concurrent
// Analyze calls are serialized.
type Engine struct {
	cfg       *config.Config
	analyzers []analyzer.Analyzer
	pool      *ants.Pool

	mu      sync.Mutex
	subject Subject
}

// New builds an Engine with the standard nine analyzers configured from th.
func New(cfg *config.Config, th config.Thresholds) (*Engine, error) {
	if cfg == nil {
		return nil, errors.NewInternalError("engine requires a configuration", nil)
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > models.TechniqueCount {
		workers = models.TechniqueCount
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.NewInternalError("failed to create worker pool", err)
	}

	e := &Engine{
		cfg: cfg,
		// Report order, matching models.Techniques().
		analyzers: []analyzer.Analyzer{
			analyzer.NewELA(th),
			analyzer.NewNoise(th),
			analyzer.NewHistogram(th),
			analyzer.NewBitDepth(th),
			analyzer.NewClone(th),
			analyzer.NewFrequency(th),
			analyzer.NewContrast(th),
			analyzer.NewBlur(th),
			analyzer.NewBiasField(th),
		},
		pool: pool,
	}
	e.subject.Subscribe(LoggingObserver{})
	return e, nil
}

// Subscribe registers an observer for progress events.
func (e *Engine) Subscribe(observer Observer) {
	e.subject.Subscribe(observer)
}

// Close releases the worker pool. The Engine must not be used afterwards.
func (e *Engine) Close() {
	e.pool.Release()
}

// Analyze runs all analyzers concurrently over in and aggregates their
// results. Individual analyzer failures degrade the report instead of
// aborting it; Analyze itself fails only on invalid input or when no
// technique produced a usable result.
func (e *Engine) Analyze(ctx context.Context, in *analyzer.Input) (*models.ForensicsReport, error) {
	if err := e.validateInput(in); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	total := len(e.analyzers)
	e.subject.NotifyObservers(ctx, AnalysisEvent{
		EventType: AnalysisStarted,
		Timestamp: start,
		Source:    in.Path,
		Total:     total,
	})

	results := make([]models.AnalysisResult, total)
	var wg sync.WaitGroup
	var done int32
	var doneMu sync.Mutex

	for i, an := range e.analyzers {
		i, an := i, an
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = e.runAnalyzer(ctx, an, in)

			doneMu.Lock()
			done++
			completed := int(done)
			doneMu.Unlock()

			e.subject.NotifyObservers(ctx, AnalysisEvent{
				EventType: TechniqueCompleted,
				Timestamp: time.Now(),
				Source:    in.Path,
				Technique: an.Name(),
				Completed: completed,
				Total:     total,
				Success:   results[i].Usable(),
				Error:     results[i].Error,
			})
		}
		if err := e.pool.Submit(task); err != nil {
			// Pool exhaustion or shutdown; run on the caller's goroutine.
			task()
		}
	}
	wg.Wait()

	report, err := Aggregate(in.Path, in.Format, in.Width(), in.Height(), results)
	if err != nil {
		e.subject.NotifyObservers(ctx, AnalysisEvent{
			EventType: AnalysisFailed,
			Timestamp: time.Now(),
			Source:    in.Path,
			Error:     err.Error(),
		})
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"source":   in.Path,
		"usable":   report.UsableCount,
		"score":    report.AverageScore,
		"verdict":  report.Verdict,
		"duration": time.Since(start).String(),
	}).Info("analysis completed")
	e.subject.NotifyObservers(ctx, AnalysisEvent{
		EventType: AnalysisCompleted,
		Timestamp: time.Now(),
		Source:    in.Path,
		Completed: total,
		Total:     total,
		Success:   true,
	})
	return report, nil
}

func (e *Engine) validateInput(in *analyzer.Input) error {
	if in == nil || in.Gray == nil || in.RGB == nil {
		return errors.NewInputError("no decoded image supplied", nil)
	}
	w, h := in.Width(), in.Height()
	if w <= 0 || h <= 0 {
		return errors.NewInputError(fmt.Sprintf("image has no pixels (%dx%d)", w, h), nil)
	}
	if pixels := int64(w) * int64(h); pixels > e.cfg.MaxPixels {
		return errors.NewInputError(
			fmt.Sprintf("image exceeds the pixel limit (%d pixels, limit %d)", pixels, e.cfg.MaxPixels), nil)
	}
	return nil
}

// runAnalyzer executes one technique, converting panics, cancellation and
// errors into unusable results so one technique can never sink the run.
func (e *Engine) runAnalyzer(ctx context.Context, an analyzer.Analyzer, in *analyzer.Input) (res models.AnalysisResult) {
	name := an.Name()
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"technique": name,
				"panic":     fmt.Sprint(r),
			}).Error("analyzer panicked")
			res = models.AnalysisResult{
				Technique: name,
				Error:     fmt.Sprintf("analyzer panicked: %v", r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{Technique: name, Error: "analysis cancelled"}
	}

	out, err := an.Analyze(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return models.AnalysisResult{Technique: name, Error: "analysis cancelled"}
		}
		logger.WithFields(logrus.Fields{
			"technique": name,
			"error":     err.Error(),
		}).Warn("analyzer failed")
		return models.AnalysisResult{Technique: name, Error: err.Error()}
	}
	if out == nil {
		return models.AnalysisResult{Technique: name, Error: "analyzer returned no result"}
	}
	out.Technique = name
	out.Completed = true
	return *out
}
