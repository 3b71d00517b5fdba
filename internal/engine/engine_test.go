package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/ogg"
)

const albumID = "a1b2c3d4e5f6g7h8i9j0k1"

// fakeCatalog serves canned records and fails lookups for unknown ids.
type fakeCatalog struct {
	tracks map[string]*api.TrackMetadata
	albums map[string]*api.AlbumMetadata
}

func (f *fakeCatalog) Track(_ context.Context, id string) (*api.TrackMetadata, error) {
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("track %s not found", id)
}

func (f *fakeCatalog) Album(_ context.Context, id string) (*api.AlbumMetadata, error) {
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("album %s not found", id)
}

func (f *fakeCatalog) Playlist(_ context.Context, id string) (*api.PlaylistMetadata, error) {
	return nil, fmt.Errorf("playlist %s not found", id)
}

func (f *fakeCatalog) Artist(_ context.Context, id string) (*api.ArtistMetadata, error) {
	return nil, fmt.Errorf("artist %s not found", id)
}

// fakeAudio serves one prebuilt container per file id.
type fakeAudio struct {
	files map[api.FileID][]byte
}

func (f *fakeAudio) AudioFile(_ context.Context, _ string, fileID api.FileID, onProgress func(current, total int64)) ([]byte, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	if onProgress != nil {
		onProgress(int64(len(data)), int64(len(data)))
	}
	return data, nil
}

// makeContainer builds a small valid stream with an identification
// packet, a stale comment packet and one audio packet.
func makeContainer(t *testing.T, serial uint32) []byte {
	t.Helper()

	stale := &ogg.CommentHeader{Vendor: "upstream encoder"}
	stale.Add("TITLE", "stale")

	var buf bytes.Buffer
	w := ogg.NewPacketWriter(&buf)
	packets := []ogg.Packet{
		{Data: append([]byte("\x01vorbis"), make([]byte, 23)...), Serial: serial, EndsPage: true},
		{Data: stale.Marshal(), Serial: serial, EndsPage: true},
		{Data: bytes.Repeat([]byte{0x5a}, 600), Serial: serial, Granule: 4096, EndsPage: true, EndsStream: true},
	}
	for _, p := range packets {
		if err := w.Write(p); err != nil {
			t.Fatalf("building container: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing container: %v", err)
	}
	return buf.Bytes()
}

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	catalog := &fakeCatalog{
		tracks: map[string]*api.TrackMetadata{
			// t1 offers the preferred encoding directly
			"t1": {
				ID:      "t1",
				Name:    "Direct",
				Album:   api.AlbumRef{Name: "Record"},
				Artists: []api.ArtistRef{{Name: "Band"}},
				Files:   []api.FileEntry{{Format: api.FormatOggVorbis320, ID: "f1"}},
			},
			// t2 offers nothing; its alternative t3 carries the file
			"t2": {
				ID:           "t2",
				Name:         "Unavailable",
				Alternatives: []string{"t3"},
			},
			"t3": {
				ID:      "t3",
				Name:    "Reissue",
				Album:   api.AlbumRef{Name: "Record"},
				Artists: []api.ArtistRef{{Name: "Band"}},
				Files:   []api.FileEntry{{Format: api.FormatOggVorbis320, ID: "f3"}},
			},
		},
		albums: map[string]*api.AlbumMetadata{},
	}
	a := &api.AlbumMetadata{ID: albumID, Name: "Record"}
	a.Tracks.Items = []api.TrackRef{{ID: "t1"}, {ID: "t2"}}
	catalog.albums[albumID] = a

	audio := &fakeAudio{files: map[api.FileID][]byte{
		"f1": makeContainer(t, 1111),
		"f3": makeContainer(t, 3333),
	}}

	outDir := t.TempDir()
	eng := &Engine{
		Catalog:     catalog,
		Audio:       audio,
		Concurrency: 2,
		Quality:     api.QualityHigh,
		OutputDir:   outDir,
		NameFormat:  DefaultNameFormat,
		Quiet:       true,
	}
	return eng, outDir
}

func readComments(t *testing.T, path string) *ogg.CommentHeader {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	packets, err := ogg.NewPacketReader(data).ReadAll()
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	for _, p := range packets {
		if ogg.IsCommentHeader(p.Data) {
			cmts, err := ogg.ParseCommentHeader(p.Data)
			if err != nil {
				t.Fatalf("comment packet in %s does not parse: %v", path, err)
			}
			return cmts
		}
	}
	t.Fatalf("no comment packet in %s", path)
	return nil
}

func TestDownloadAllAlbum(t *testing.T) {
	eng, outDir := newTestEngine(t)

	summary, err := eng.DownloadAll(context.Background(), []string{"spotify:album:" + albumID})
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}

	if summary.Resolved != 2 {
		t.Errorf("Resolved = %d, want 2", summary.Resolved)
	}
	if summary.Written != 2 {
		t.Errorf("Written = %d, want 2", summary.Written)
	}
	if summary.Failed != 0 {
		t.Errorf("Failed = %d, want 0", summary.Failed)
	}

	// the direct track keeps its own identity
	direct := readComments(t, filepath.Join(outDir, "Band - Direct.ogg"))
	if title, _ := direct.Get("TITLE"); title != "Direct" {
		t.Errorf("direct TITLE = %q, want Direct", title)
	}

	// the substituted track is authored from the alternative's record
	sub := readComments(t, filepath.Join(outDir, "Band - Reissue.ogg"))
	if title, _ := sub.Get("TITLE"); title != "Reissue" {
		t.Errorf("substituted TITLE = %q, want Reissue", title)
	}
	if album, _ := sub.Get("ALBUM"); album != "Record" {
		t.Errorf("substituted ALBUM = %q, want Record", album)
	}
}

func TestDownloadAllSkipsExisting(t *testing.T) {
	eng, _ := newTestEngine(t)
	line := "spotify:album:" + albumID

	if _, err := eng.DownloadAll(context.Background(), []string{line}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	summary, err := eng.DownloadAll(context.Background(), []string{line})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if summary.Written != 0 {
		t.Errorf("Written = %d, want 0", summary.Written)
	}
}

func TestDownloadAllUnrecognizedLines(t *testing.T) {
	eng, _ := newTestEngine(t)

	summary, err := eng.DownloadAll(context.Background(), []string{
		"definitely not a link",
		"spotify:album:" + albumID,
	})
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}
	if summary.Unrecognized != 1 {
		t.Errorf("Unrecognized = %d, want 1", summary.Unrecognized)
	}
	if summary.Written != 2 {
		t.Errorf("Written = %d, want 2", summary.Written)
	}
}

func TestDownloadAllResolveWarning(t *testing.T) {
	eng, _ := newTestEngine(t)

	summary, err := eng.DownloadAll(context.Background(), []string{
		"spotify:playlist:0000000000000000000000",
	})
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}
	if len(summary.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one entry", summary.Warnings)
	}
	if summary.Resolved != 0 || summary.Written != 0 {
		t.Errorf("summary = %+v, want nothing resolved", summary)
	}
}

func TestStreamTrack(t *testing.T) {
	eng, _ := newTestEngine(t)

	var buf bytes.Buffer
	track, err := eng.StreamTrack(context.Background(), "t1", api.QualityHigh, &buf)
	if err != nil {
		t.Fatalf("StreamTrack failed: %v", err)
	}
	if track.ID != "t1" {
		t.Errorf("streamed track %s, want t1", track.ID)
	}

	packets, err := ogg.NewPacketReader(buf.Bytes()).ReadAll()
	if err != nil {
		t.Fatalf("streamed bytes do not parse: %v", err)
	}
	if len(packets) != 3 {
		t.Errorf("got %d packets, want 3", len(packets))
	}
}
