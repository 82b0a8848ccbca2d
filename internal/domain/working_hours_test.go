package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseLegacyWorkingHours(t *testing.T) {
	wh := ParseLegacyWorkingHours([]LegacyEntry{
		{Schedule: "Lunes-viernes", Hours: "07:30 - 18:00"},
		{Schedule: "Sábado", Hours: "08:00 - 12:00"},
		{Schedule: "Feriados", Hours: "09:00 - 10:00"},
		{Schedule: "Domingo", Hours: "cerrado"},
	})
	got := wh.Format()
	want := map[string]string{
		"lunes":     "07:30 - 18:00",
		"martes":    "07:30 - 18:00",
		"miércoles": "07:30 - 18:00",
		"jueves":    "07:30 - 18:00",
		"viernes":   "07:30 - 18:00",
		"sábado":    "08:00 - 12:00",
	}
	if len(got) != len(want) {
		t.Fatalf("Format()=%v want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Format()[%q]=%q want %q", k, got[k], v)
		}
	}
	if wh.Domingo != nil {
		t.Fatal("unparseable sunday schedule should be skipped")
	}
}

func TestWorkingHoursUnmarshalLegacyAndStructured(t *testing.T) {
	var legacy WorkingHours
	if err := json.Unmarshal([]byte(`{"Lunes-sábado":"08:00 - 17:30"}`), &legacy); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if legacy.Sabado == nil || legacy.Sabado.CloseTime.String() != "17:30" {
		t.Fatalf("legacy saturday not converted: %+v", legacy.Sabado)
	}

	raw, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var structured WorkingHours
	if err := json.Unmarshal(raw, &structured); err != nil {
		t.Fatalf("unmarshal structured: %v", err)
	}
	if structured.Lunes == nil || *structured.Lunes != *legacy.Lunes {
		t.Fatalf("structured round trip mismatch: %s", raw)
	}
	if structured.Domingo != nil {
		t.Fatalf("sunday must stay unset: %s", raw)
	}
}

func TestWorkingHoursLegacyOverlapLastKeyWins(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantWeekday string
		wantSabado  string
	}{
		{
			name:        "weekdays listed last",
			raw:         `{"Lunes-sábado": "08:00 - 12:00", "Lunes-viernes": "07:30 - 18:00"}`,
			wantWeekday: "07:30",
			wantSabado:  "08:00",
		},
		{
			name:        "saturday range listed last",
			raw:         `{"Lunes-viernes": "07:30 - 18:00", "Lunes-sábado": "08:00 - 12:00"}`,
			wantWeekday: "08:00",
			wantSabado:  "08:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				var wh WorkingHours
				if err := json.Unmarshal([]byte(tt.raw), &wh); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				for _, day := range []*WorkingDay{wh.Lunes, wh.Martes, wh.Miercoles, wh.Jueves, wh.Viernes} {
					if day == nil || day.OpenTime.String() != tt.wantWeekday {
						t.Fatalf("run %d: weekday open=%v want %s", i, day, tt.wantWeekday)
					}
				}
				if wh.Sabado == nil || wh.Sabado.OpenTime.String() != tt.wantSabado {
					t.Fatalf("run %d: saturday open=%v want %s", i, wh.Sabado, tt.wantSabado)
				}
			}
		})
	}
}

func TestWorkingHoursLegacyRejectsNonStringValues(t *testing.T) {
	var wh WorkingHours
	if err := json.Unmarshal([]byte(`{"Lunes-viernes": "07:30 - 18:00", "Sábado": 5}`), &wh); err == nil {
		t.Fatal("expected error for a non-string legacy value")
	}
}

func TestWorkingHoursIsOpenAt(t *testing.T) {
	wh := ParseLegacyWorkingHours([]LegacyEntry{{Schedule: "Lunes-viernes", Hours: "07:30 - 18:00"}})
	// 2024-05-06 is a Monday.
	monday := func(h, m int) time.Time { return time.Date(2024, 5, 6, h, m, 0, 0, time.UTC) }

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "before opening", at: monday(7, 29), want: false},
		{name: "at opening", at: monday(7, 30), want: true},
		{name: "midday", at: monday(12, 0), want: true},
		{name: "at closing", at: monday(18, 0), want: true},
		{name: "after closing", at: monday(18, 1), want: false},
		{name: "sunday", at: time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wh.IsOpenAt(tc.at); got != tc.want {
				t.Fatalf("IsOpenAt(%v)=%v want %v", tc.at, got, tc.want)
			}
		})
	}

	var none *WorkingHours
	if none.IsOpenAt(monday(12, 0)) {
		t.Fatal("nil working hours is never open")
	}
}

func FuzzWorkingHoursUnmarshal(f *testing.F) {
	f.Add([]byte(`{"Lunes-viernes":"07:30 - 18:00"}`))
	f.Add([]byte(`{"lunes":{"open_time":"07:30","close_time":"18:00","is_open":true}}`))
	f.Add([]byte(`{"Domingo":"-"}`))
	f.Add([]byte(`[]`))

	f.Fuzz(func(t *testing.T, raw []byte) {
		var wh WorkingHours
		if err := json.Unmarshal(raw, &wh); err != nil {
			return
		}
		for day, hours := range wh.Format() {
			if len(hours) != len("00:00 - 00:00") {
				t.Fatalf("unexpected format for %s: %q", day, hours)
			}
		}
	})
}
