package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"us order kept", "12/25/2024", "12/25/2024", true},
		{"day first disambiguated", "25/12/2024", "12/25/2024", true},
		{"iso year first", "2024-12-25", "12/25/2024", true},
		{"two digit year", "3/5/24", "03/05/2024", true},
		{"dotted european", "25.12.2024", "12/25/2024", true},
		{"month name first", "Dec 25, 2024", "12/25/2024", true},
		{"full month name", "December 25 2024", "12/25/2024", true},
		{"day before month name", "25th December 2024", "12/25/2024", true},
		{"impossible day", "02/30/2024", "", false},
		{"both over twelve", "13/13/2024", "", false},
		{"unknown month name", "Foober 3, 2024", "", false},
		{"year out of range", "12/25/1776", "", false},
		{"empty", "", "", false},
		{"not a date", "hello", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"24 hour afternoon", "14:30", "2:30 PM", true},
		{"explicit pm", "3:45 PM", "3:45 PM", true},
		{"dotted marker", "9:05 a.m.", "9:05 AM", true},
		{"midnight", "00:15", "12:15 AM", true},
		{"noon", "12:00 PM", "12:00 PM", true},
		{"twelve am", "12:00 AM", "12:00 AM", true},
		{"with seconds", "14:30:59", "2:30 PM", true},
		{"hour too large", "25:00", "", false},
		{"minutes too large", "10:75", "", false},
		{"not a time", "noonish", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTime(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
