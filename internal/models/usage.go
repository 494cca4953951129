package models

import "time"

// WindowUsage is one persisted (date, identity) total. Duration is in whole
// seconds and only ever grows.
type WindowUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"not null;size:10;uniqueIndex:idx_window_usage_key,priority:1" json:"date"`
	Identity  string    `gorm:"not null;uniqueIndex:idx_window_usage_key,priority:2" json:"identity"`
	Duration  int64     `gorm:"not null;default:0;check:chk_window_usage_duration,duration >= 0" json:"duration"` // seconds
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WindowUsage) TableName() string {
	return "window_usage"
}

type IdentitySummary struct {
	Identity     string  `json:"identity"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	Days         int     `json:"days"`
	Percentage   float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod      `json:"period"`
	Identities   []IdentitySummary `json:"identities"`
	TotalSeconds int64             `json:"total_seconds"`
	TotalMinutes float64           `json:"total_minutes"`
	TotalHours   float64           `json:"total_hours"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
