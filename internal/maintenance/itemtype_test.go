package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMediaScanItemType(t *testing.T) {
	cases := []struct {
		name  string
		names []string
		want  string
	}{
		{"box keyword", []string{"front_box_art.jpg"}, "Box"},
		{"manual keyword", []string{"game_manual.pdf"}, "Manual"},
		{"map keyword", []string{"world_map.png"}, "Map"},
		{"wheel keyword", []string{"CodeWheel_01.jpg"}, "CodeWheel"},
		{"inlay keyword", []string{"cassette_inlay.jpg"}, "InlayCard"},
		{"card keyword", []string{"trading_card.jpg"}, "InlayCard"},
		{"no keyword falls back to disk", []string{"scan001.jpg"}, "Disk"},
		{"first matching member wins", []string{"misc.jpg", "the_manual_scan.jpg"}, "Manual"},
		{"empty member list falls back to disk", nil, "Disk"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyMediaScanItemType(tc.names))
		})
	}
}
