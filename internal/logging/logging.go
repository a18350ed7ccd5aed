// Package logging configures the structured logger shared by the vislayers
// tools.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bibin-skaria/vislayers/internal/config"
	"github.com/bibin-skaria/vislayers/visibility"
)

// Logger provides structured logging for propagation runs
type Logger struct {
	logger *logrus.Logger
	runID  string
}

// New creates a logger writing to stderr with the level and format from cfg.
func New(cfg config.LogConfig, runID string) *Logger {
	return NewWithOutput(cfg, runID, os.Stderr)
}

// NewWithOutput creates a logger writing to out.
func NewWithOutput(cfg config.LogConfig, runID string, out io.Writer) *Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if cfg.Format == config.FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Logger{
		logger: logger,
		runID:  runID,
	}
}

// Entry returns an entry carrying the fields common to every event.
func (l *Logger) Entry() *logrus.Entry {
	entry := l.logger.WithField("component", "vislayers")
	if l.runID != "" {
		entry = entry.WithField("run_id", l.runID)
	}
	return entry
}

// Logrus returns the underlying logger.
func (l *Logger) Logrus() *logrus.Logger {
	return l.logger
}

// LogSceneLoaded logs a successfully built scene
func (l *Logger) LogSceneLoaded(path string, nodes, steps int) {
	l.Entry().WithFields(logrus.Fields{
		"event": "scene_loaded",
		"path":  path,
		"nodes": nodes,
		"steps": steps,
	}).Info("Scene loaded")
}

// LogPassStart logs the start of a propagation pass
func (l *Logger) LogPassStart(pass int, stale int) {
	l.Entry().WithFields(logrus.Fields{
		"event": "pass_start",
		"pass":  pass,
		"stale": stale,
	}).Debug("Starting propagation pass")
}

// LogPassComplete logs the outcome of a propagation pass
func (l *Logger) LogPassComplete(pass int, stats visibility.Stats) {
	entry := l.Entry().WithFields(logrus.Fields{
		"event":   "pass_complete",
		"pass":    pass,
		"stale":   stats.Stale,
		"visited": stats.Visited,
		"updated": stats.Updated,
		"pruned":  stats.Pruned,
		"missing": stats.Missing,
	})
	if stats.Truncated {
		entry.Warn("Propagation pass truncated")
		return
	}
	entry.Info("Propagation pass complete")
}

// LogStepApplied logs the edits of a scripted step
func (l *Logger) LogStepApplied(step int, edits int) {
	l.Entry().WithFields(logrus.Fields{
		"event": "step_applied",
		"step":  step,
		"edits": edits,
	}).Info("Applied scene step")
}

// LogSummary logs totals across all passes
func (l *Logger) LogSummary(summary visibility.MetricsSummary) {
	l.Entry().WithFields(logrus.Fields{
		"event":            "run_complete",
		"passes":           summary.Passes,
		"truncated_passes": summary.TruncatedPasses,
		"total_visited":    summary.TotalVisited,
		"total_updated":    summary.TotalUpdated,
		"update_rate":      summary.UpdateRate(),
		"duration":         summary.TotalDuration.String(),
	}).Info("Run complete")
}
