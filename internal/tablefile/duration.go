package tablefile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxFormattedDuration is the largest value FormatDuration can represent.
// Longer durations are written as this value; raw seconds have no limit.
const MaxFormattedDuration = 99*time.Hour + 59*time.Minute + 59*time.Second

// FormatDuration renders d as the legacy "HHh:MMm:SSs" string with two-digit
// zero-padded fields. Sub-second parts are truncated, negative values render
// as zero and values above MaxFormattedDuration are capped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d > MaxFormattedDuration {
		d = MaxFormattedDuration
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02dh:%02dm:%02ds", secs/3600, (secs%3600)/60, secs%60)
}

// ParseDuration is the exact inverse of FormatDuration. Each field must be
// two digits followed by its unit letter, with minutes and seconds below 60;
// a malformed field contributes zero instead of failing the whole value.
func ParseDuration(s string) time.Duration {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 3 {
		return 0
	}
	h := parseField(fields[0], 'h', 99)
	m := parseField(fields[1], 'm', 59)
	sec := parseField(fields[2], 's', 59)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

func parseField(field string, unit byte, limit int) int {
	if len(field) != 3 || field[2] != unit {
		return 0
	}
	if field[0] < '0' || field[0] > '9' || field[1] < '0' || field[1] > '9' {
		return 0
	}
	n := int(field[0]-'0')*10 + int(field[1]-'0')
	if n > limit {
		return 0
	}
	return n
}

// maxCellSeconds keeps seconds*time.Second inside int64.
const maxCellSeconds = int64(1<<63-1) / int64(time.Second)

// parseCell reads a duration column written either as raw seconds or in the
// legacy format. Anything unreadable is zero.
func parseCell(cell string) time.Duration {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(cell, 10, 64); err == nil {
		if secs < 0 || secs > maxCellSeconds {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	return ParseDuration(cell)
}
