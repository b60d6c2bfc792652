// Package activity records task events for the activity timeline.
package activity

import (
	"encoding/json"

	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/store"
)

// Logger writes activity entries for state-mutating task operations.
type Logger struct {
	store *store.Store
}

// NewLogger creates a new activity logger.
func NewLogger(s *store.Store) *Logger {
	return &Logger{store: s}
}

// Record writes an activity entry. Fields are serialized into the
// details column for later inspection.
func (l *Logger) Record(taskID, action string, fields map[string]interface{}) (*models.ActivityEntry, error) {
	details := ""
	if len(fields) > 0 {
		if data, err := json.Marshal(fields); err == nil {
			details = string(data)
		}
	}
	return l.store.AddActivity(taskID, action, details)
}

// ForTask returns the recorded events for a task, newest first.
func (l *Logger) ForTask(taskID string) ([]models.ActivityEntry, error) {
	return l.store.GetActivityForTask(taskID)
}
