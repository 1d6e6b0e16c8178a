package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 512, "512 B"},
		{"kilobytes", 1536, "1.5 KB"},
		{"megabytes", 5242880, "5.0 MB"},
		{"gigabytes", 1610612736, "1.5 GB"},
		{"terabytes", 1099511627776, "1.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSize(tt.bytes))
		})
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	sameYear := time.Date(now.Year(), time.March, 15, 10, 30, 0, 0, time.UTC)
	diffYear := time.Date(2020, time.December, 25, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, sameYear.Format("Jan _2 15:04"), formatTime(sameYear))
	assert.Equal(t, diffYear.Format("Jan _2  2006"), formatTime(diffYear))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"NAME", "SIZE"}, [][]string{
		{"game.bin", "42 B"},
		{"manual.pdf", "1.5 KB"},
	})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "game.bin")
	assert.Contains(t, out, "manual.pdf")
}

func TestStatusf_Quiet(t *testing.T) {
	cc := &CLIContext{Quiet: true}
	cc.Statusf("should not appear: %d\n", 42)
}

func TestStatusf_Normal(t *testing.T) {
	cc := &CLIContext{Quiet: false}
	cc.Statusf("status message: %s\n", "ok")
}
