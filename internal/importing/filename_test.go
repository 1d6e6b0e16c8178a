package importing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func TestStemFromPath(t *testing.T) {
	assert.Equal(t, "Super Game (USA) (v1.1)", importing.StemFromPath("/roms/snes/Super Game (USA) (v1.1).sfc"))
	assert.Equal(t, "plain", importing.StemFromPath("plain.bin"))
}

func TestDeriveNames(t *testing.T) {
	cases := []struct {
		stem        string
		wantRelease string
		wantTitle   string
	}{
		{
			stem:        "Legend of Zelda, The (USA) (Rev 1)",
			wantRelease: "Legend of Zelda, The (USA) (Rev 1)",
			wantTitle:   "The Legend of Zelda",
		},
		{
			stem:        "Super Mario World (USA)",
			wantRelease: "Super Mario World (USA)",
			wantTitle:   "Super Mario World",
		},
		{
			stem:        "Legend of Mana, A (Japan)",
			wantRelease: "Legend of Mana, A (Japan)",
			wantTitle:   "A Legend of Mana",
		},
		{
			stem:        "Untitled Goose Game, An (USA)",
			wantRelease: "Untitled Goose Game, An (USA)",
			wantTitle:   "An Untitled Goose Game",
		},
		{
			stem:        "No Parentheses",
			wantRelease: "No Parentheses",
			wantTitle:   "No Parentheses",
		},
	}

	for _, c := range cases {
		releaseName, titleName := importing.DeriveNames(c.stem)
		assert.Equal(t, c.wantRelease, releaseName, "release name for %q", c.stem)
		assert.Equal(t, c.wantTitle, titleName, "title name for %q", c.stem)
	}
}
