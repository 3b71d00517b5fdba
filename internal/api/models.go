package api

// LoginResponse represents the response from the token endpoint.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Username    string `json:"username"`
}

// FormatID identifies one audio encoding offered by the catalog.
type FormatID string

const (
	FormatOggVorbis320 FormatID = "OGG_VORBIS_320"
	FormatOggVorbis160 FormatID = "OGG_VORBIS_160"
	FormatOggVorbis96  FormatID = "OGG_VORBIS_96"
)

// Quality is the user-facing quality setting. It maps to a fixed
// priority list of encodings; selection takes the first list entry a
// track actually offers, never the highest bitrate available.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Priority returns the encoding preference order for a quality setting.
func (q Quality) Priority() []FormatID {
	switch q {
	case QualityLow:
		return []FormatID{FormatOggVorbis96, FormatOggVorbis160, FormatOggVorbis320}
	case QualityMedium:
		return []FormatID{FormatOggVorbis160, FormatOggVorbis96, FormatOggVorbis320}
	default:
		return []FormatID{FormatOggVorbis320, FormatOggVorbis160, FormatOggVorbis96}
	}
}

// FileID names one downloadable audio file on the CDN.
type FileID string

// ArtistRef is a lightweight artist reference carried by track and
// album records. Ordering is the catalog's; the first entry is what
// callers treat as the main artist, a display decision left to them.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumRef is a lightweight album reference.
type AlbumRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileEntry maps one encoding to its downloadable file.
type FileEntry struct {
	Format FormatID `json:"format"`
	ID     FileID   `json:"file_id"`
}

// TrackMetadata contains all catalog metadata for a single track.
// Records are read-only once fetched.
type TrackMetadata struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Album        AlbumRef    `json:"album"`
	Artists      []ArtistRef `json:"artists"`
	TrackNumber  int         `json:"track_number"`
	DiscNumber   int         `json:"disc_number"`
	Duration     int         `json:"duration_ms"`
	Files        []FileEntry `json:"files"`
	Alternatives []string    `json:"alternatives"`
}

// File returns the file id for the given encoding, if the track offers it.
func (t *TrackMetadata) File(f FormatID) (FileID, bool) {
	for _, e := range t.Files {
		if e.Format == f {
			return e.ID, true
		}
	}
	return "", false
}

// TrackRef is a bare track id inside a collection listing.
type TrackRef struct {
	ID string `json:"id"`
}

// AlbumMetadata contains catalog metadata for an album.
type AlbumMetadata struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []ArtistRef `json:"artists"`
	Date    string      `json:"release_date"`
	Label   string      `json:"label"`
	Tracks  struct {
		Items []TrackRef `json:"items"`
	} `json:"tracks"`
}

// PlaylistMetadata contains catalog metadata for a playlist.
type PlaylistMetadata struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Tracks struct {
		Items []TrackRef `json:"items"`
	} `json:"tracks"`
}

// AlbumGroup is one release grouping on an artist record. The catalog
// models a discography as a sequence of groups, each holding a
// sequence of albums.
type AlbumGroup struct {
	Albums []AlbumRef `json:"albums"`
}

// ArtistMetadata contains catalog metadata for an artist.
type ArtistMetadata struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AlbumGroups  []AlbumGroup `json:"album_groups"`
	SingleGroups []AlbumGroup `json:"single_groups"`
}
