package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello,   World! ", "hello world"},
		{"Beyoncé", "beyonce"},
		{"Simon & Garfunkel", "simon and garfunkel"},
		{"AC/DC", "acdc"},
		{"Don't Stop Me Now (Remastered 2011)", "dont stop me now remastered 2011"},
		{"Sigur Rós\tAgaetis", "sigur ros agaetis"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestArtistName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Beatles", "beatles"},
		{"Beatles", "beatles"},
		{"A Tribe Called Quest", "tribe called quest"},
		{"Harry Connick Jr.", "harry connick"},
		{"Hank Williams III", "hank williams"},
		{"Theory of a Deadman", "theory of a deadman"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ArtistName(tt.input))
		})
	}
}

func TestArtistList(t *testing.T) {
	assert.Equal(t, []string{"jayz", "kanye west"}, ArtistList([]string{"Kanye West", "JAY-Z", "  "}))
}

func TestGenre(t *testing.T) {
	assert.Equal(t, "hip hop", Genre("Hip-Hop"))
	assert.Equal(t, "hip hop", Genre("hiphop"))
	assert.Equal(t, "r&b", Genre("RnB"))
	assert.Equal(t, "lo-fi", Genre("Lo Fi"))
	assert.Equal(t, "electronic", Genre("EDM"))
	assert.Equal(t, "jazz", Genre(" Jazz "))
	assert.Equal(t, "synth pop", Genre("synth-pop"))
}

func TestParseURI(t *testing.T) {
	u, err := ParseURI("spotify:track:4uLU6hMCjMI75M1A2tKUQC")
	require.NoError(t, err)
	assert.Equal(t, "spotify", u.Scheme)
	assert.Equal(t, "track", u.Type)
	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", u.ID)
	assert.Equal(t, "spotify:track:4uLU6hMCjMI75M1A2tKUQC", u.String())

	for _, bad := range []string{"", "spotify:episode:1", "spotify:track:", "track:1", "spotify:track:ab-cd", "https://open.spotify.com/track/1"} {
		assert.False(t, IsValidURI(bad), bad)
	}
	assert.True(t, IsValidURI("spotify:playlist:37i9dQZF1DXcBWIGoYBM5M"))
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 3.5, DurationMinutes(210000))
	assert.Equal(t, "3:30", FormatDuration(210000))
	assert.Equal(t, "0:00", FormatDuration(-5))
	assert.Equal(t, "61:01", FormatDuration(3661000))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 8))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Len(t, []rune(Truncate("ééééééééééééé", 6)), 6)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Hip Hop & Jazz", Title("hip hop & jazz"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \n b\t\tc "))
}
