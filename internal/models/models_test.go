package models

import (
	"testing"
	"time"
)

func intp(v int) *int { return &v }

func TestTeamGameRowValidate(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		row     TeamGameRow
		wantErr bool
	}{
		{
			name: "valid row",
			row: TeamGameRow{
				Date:   date,
				GameID: 100,
				TeamID: "12",
				IsHome: true,
				Pts:    intp(80),
				OppPts: intp(75),
			},
			wantErr: false,
		},
		{
			name:    "zero date",
			row:     TeamGameRow{GameID: 100, TeamID: "12"},
			wantErr: true,
		},
		{
			name:    "missing game ID",
			row:     TeamGameRow{Date: date, TeamID: "12"},
			wantErr: true,
		},
		{
			name:    "missing team ID",
			row:     TeamGameRow{Date: date, GameID: 100},
			wantErr: true,
		},
		{
			name:    "negative pts",
			row:     TeamGameRow{Date: date, GameID: 100, TeamID: "12", Pts: intp(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMargin(t *testing.T) {
	r := TeamGameRow{Pts: intp(80), OppPts: intp(75)}
	if m := r.Margin(); m == nil || *m != 5 {
		t.Errorf("Margin() = %v, want 5", m)
	}
	r.OppPts = nil
	if m := r.Margin(); m != nil {
		t.Errorf("Margin() with missing score = %v, want nil", m)
	}
}

func TestTeamIDOf(t *testing.T) {
	tests := []struct {
		in   any
		want TeamID
	}{
		{"42", "42"},
		{42, "42"},
		{int64(42), "42"},
		{float64(42), "42"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := TeamIDOf(tt.in); got != tt.want {
			t.Errorf("TeamIDOf(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeasonStartYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-11-05", 2024},
		{"2025-01-10", 2024},
		{"2025-10-31", 2024},
		{"2025-11-01", 2025},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.date)
		if err != nil {
			t.Fatalf("ParseDate(%s): %v", tt.date, err)
		}
		if got := SeasonStartYear(d); got != tt.want {
			t.Errorf("SeasonStartYear(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestRowKeyDistinguishesSides(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	home := TeamGameRow{Date: date, GameID: 100, TeamID: "1", IsHome: true}
	away := TeamGameRow{Date: date, GameID: 100, TeamID: "1", IsHome: false}
	if home.Key() == away.Key() {
		t.Error("home and away keys must differ for the same team and game")
	}
}
