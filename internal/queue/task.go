package queue

import (
	"fmt"
)

const (
	TaskGeocode = "geocode"
	TaskSweep   = "sweep"
)

// Task is one unit of enrichment work carried on the stream as flat string
// fields.
type Task struct {
	Type     string
	User     string
	ReportID string
}

func (t Task) Values() map[string]any {
	values := map[string]any{"type": t.Type}
	if t.User != "" {
		values["user"] = t.User
	}
	if t.ReportID != "" {
		values["reportId"] = t.ReportID
	}
	return values
}

func DecodeTask(values map[string]any) (Task, error) {
	var t Task
	var ok bool
	if t.Type, ok = values["type"].(string); !ok || t.Type == "" {
		return Task{}, fmt.Errorf("task without type")
	}
	t.User, _ = values["user"].(string)
	t.ReportID, _ = values["reportId"].(string)

	if t.Type == TaskGeocode && (t.User == "" || t.ReportID == "") {
		return Task{}, fmt.Errorf("geocode task needs user and reportId")
	}
	return t, nil
}
