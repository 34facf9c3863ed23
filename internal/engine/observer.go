package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"forensiclens/internal/logger"
	"forensiclens/pkg/models"
)

// AnalysisEvent describes engine progress for an enclosing caller (CLI
// progress display, logging). Events carry no pixel data.
type AnalysisEvent struct {
	EventType EventType        `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source"`
	Technique models.Technique `json:"technique,omitempty"`
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a run begins
	AnalysisStarted EventType = "analysis_started"
	// TechniqueCompleted when one technique finishes (or fails)
	TechniqueCompleted EventType = "technique_completed"
	// AnalysisCompleted when the whole run finishes
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the run aborts before aggregation
	AnalysisFailed EventType = "analysis_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject fans events out to registered observers.
type Subject struct {
	mu        sync.RWMutex
	observers []Observer
}

// Subscribe registers an observer.
func (s *Subject) Subscribe(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// NotifyObservers delivers an event to every registered observer.
func (s *Subject) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}

// LoggingObserver logs analysis events with structured fields.
type LoggingObserver struct{}

// OnEvent implements Observer.
func (LoggingObserver) OnEvent(_ context.Context, event AnalysisEvent) {
	entry := logger.WithFields(logrus.Fields{
		"event":  event.EventType,
		"source": event.Source,
	})
	switch event.EventType {
	case TechniqueCompleted:
		entry.WithFields(logrus.Fields{
			"technique": event.Technique,
			"progress":  event.Completed,
			"total":     event.Total,
			"success":   event.Success,
		}).Debug("technique finished")
	case AnalysisFailed:
		entry.WithField("error", event.Error).Warn("analysis failed")
	default:
		entry.Debug("analysis event")
	}
}

// GetObserverName implements Observer.
func (LoggingObserver) GetObserverName() string { return "logging" }
