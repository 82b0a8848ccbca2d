package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"
)

type WorkingDay struct {
	OpenTime  TimeOfDay `json:"open_time"`
	CloseTime TimeOfDay `json:"close_time"`
	IsOpen    bool      `json:"is_open"`
}

// WorkingHours holds one optional schedule per weekday, keyed by the
// Spanish day names used throughout the directory data.
type WorkingHours struct {
	Lunes     *WorkingDay `json:"lunes,omitempty"`
	Martes    *WorkingDay `json:"martes,omitempty"`
	Miercoles *WorkingDay `json:"miércoles,omitempty"`
	Jueves    *WorkingDay `json:"jueves,omitempty"`
	Viernes   *WorkingDay `json:"viernes,omitempty"`
	Sabado    *WorkingDay `json:"sábado,omitempty"`
	Domingo   *WorkingDay `json:"domingo,omitempty"`
}

var dayNames = []string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

var legacySchedules = map[string][]string{
	"Lunes-viernes": {"lunes", "martes", "miércoles", "jueves", "viernes"},
	"Lunes-sábado":  {"lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	"Sábado":        {"sábado"},
	"Domingo":       {"domingo"},
}

func (w *WorkingHours) slot(day string) **WorkingDay {
	switch day {
	case "lunes":
		return &w.Lunes
	case "martes":
		return &w.Martes
	case "miércoles":
		return &w.Miercoles
	case "jueves":
		return &w.Jueves
	case "viernes":
		return &w.Viernes
	case "sábado":
		return &w.Sabado
	case "domingo":
		return &w.Domingo
	}
	return nil
}

// Day returns the schedule for a weekday, or nil when none is set.
func (w *WorkingHours) Day(weekday time.Weekday) *WorkingDay {
	// time.Weekday starts on Sunday; dayNames starts on Monday.
	idx := (int(weekday) + 6) % 7
	return *w.slot(dayNames[idx])
}

func (w *WorkingHours) IsOpenAt(t time.Time) bool {
	if w == nil {
		return false
	}
	day := w.Day(t.Weekday())
	if day == nil || !day.IsOpen {
		return false
	}
	now := TimeOfDayOf(t)
	return day.OpenTime <= now && now <= day.CloseTime
}

// Format renders the open days as "HH:MM - HH:MM", omitting closed days.
func (w *WorkingHours) Format() map[string]string {
	if w == nil {
		return nil
	}
	out := make(map[string]string)
	for _, name := range dayNames {
		day := *w.slot(name)
		if day != nil && day.IsOpen {
			out[name] = fmt.Sprintf("%s - %s", day.OpenTime, day.CloseTime)
		}
	}
	return out
}

func (w *WorkingHours) Empty() bool {
	if w == nil {
		return true
	}
	for _, name := range dayNames {
		if *w.slot(name) != nil {
			return false
		}
	}
	return true
}

// Days yields every weekday from Monday on with its schedule, nil included.
func (w *WorkingHours) Days() iter.Seq2[string, *WorkingDay] {
	return func(yield func(string, *WorkingDay) bool) {
		if w == nil {
			return
		}
		for _, name := range dayNames {
			if !yield(name, *w.slot(name)) {
				return
			}
		}
	}
}

// LegacyEntry is one schedule of the older free-form format, e.g.
// "Lunes-viernes": "07:30 - 18:00".
type LegacyEntry struct {
	Schedule string
	Hours    string
}

// ParseLegacyWorkingHours converts legacy entries in order, so a later
// schedule overrides the days it shares with an earlier one. Entries that
// cannot be parsed or name an unknown schedule are skipped.
func ParseLegacyWorkingHours(legacy []LegacyEntry) *WorkingHours {
	wh := &WorkingHours{}
	for _, e := range legacy {
		open, closing, ok := strings.Cut(e.Hours, "-")
		if !ok {
			slog.Debug("skip legacy working hours", "schedule", e.Schedule, "hours", e.Hours)
			continue
		}
		openTime, err := ParseTimeOfDay(open)
		if err != nil {
			slog.Debug("skip legacy working hours", "schedule", e.Schedule, "error", err)
			continue
		}
		closeTime, err := ParseTimeOfDay(closing)
		if err != nil {
			slog.Debug("skip legacy working hours", "schedule", e.Schedule, "error", err)
			continue
		}
		days, ok := legacySchedules[e.Schedule]
		if !ok {
			continue
		}
		for _, d := range days {
			*wh.slot(d) = &WorkingDay{OpenTime: openTime, CloseTime: closeTime, IsOpen: true}
		}
	}
	return wh
}

// decodeLegacyEntries reads a legacy object keeping its key order.
func decodeLegacyEntries(data []byte) ([]LegacyEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var entries []LegacyEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var hours string
		if err := dec.Decode(&hours); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", key, err)
		}
		entries = append(entries, LegacyEntry{Schedule: key, Hours: hours})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *WorkingHours) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	legacy := false
	for _, v := range raw {
		trimmed := strings.TrimSpace(string(v))
		if strings.HasPrefix(trimmed, `"`) {
			legacy = true
			break
		}
	}
	if legacy {
		entries, err := decodeLegacyEntries(data)
		if err != nil {
			return fmt.Errorf("legacy working hours: %w", err)
		}
		*w = *ParseLegacyWorkingHours(entries)
		return nil
	}
	type plain WorkingHours
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = WorkingHours(p)
	return nil
}
