package engine

import (
	"testing"

	"spotify-dl-go/internal/api"
)

func TestRenderName(t *testing.T) {
	track := &api.TrackMetadata{
		Name:  "Song",
		Album: api.AlbumRef{Name: "Record"},
		Artists: []api.ArtistRef{
			{Name: "Main Artist"},
			{Name: "Featured"},
		},
	}

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"default", "", "Main Artist - Song.ogg"},
		{"explicit default", DefaultNameFormat, "Main Artist - Song.ogg"},
		{"album token", "{album}/{name}.{ext}", "Record/Song.ogg"},
		{"no tokens", "fixed.ogg", "fixed.ogg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderName(tt.format, track, "ogg"); got != tt.want {
				t.Errorf("RenderName(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestRenderNameSanitizes(t *testing.T) {
	track := &api.TrackMetadata{
		Name:    "AC/DC Cover \\ Live",
		Album:   api.AlbumRef{Name: "What?"},
		Artists: []api.ArtistRef{{Name: "A*Band"}},
	}

	got := RenderName("{author} - {name}.{ext}", track, "ogg")
	want := "A_Band - AC DC Cover   Live.ogg"
	if got != want {
		t.Errorf("RenderName = %q, want %q", got, want)
	}
}

func TestRenderNameNoArtists(t *testing.T) {
	track := &api.TrackMetadata{Name: "Solo"}
	got := RenderName("{author} - {name}.{ext}", track, "ogg")
	if got != " - Solo.ogg" {
		t.Errorf("RenderName = %q, want %q", got, " - Solo.ogg")
	}
}

func TestSanitizeFilenameLimitsLength(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	if got := sanitizeFilename(string(long)); len(got) != 200 {
		t.Errorf("sanitized length = %d, want 200", len(got))
	}
}
