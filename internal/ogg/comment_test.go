package ogg

import (
	"bytes"
	"reflect"
	"testing"
)

func TestCommentHeaderMarshalLayout(t *testing.T) {
	h := &CommentHeader{Vendor: "v1"}
	h.Add("TITLE", "X")
	h.Add("ARTIST", "a")
	h.Add("ARTIST", "b")

	want := []byte("\x03vorbis" +
		"\x02\x00\x00\x00" + "v1" +
		"\x03\x00\x00\x00" +
		"\x07\x00\x00\x00" + "TITLE=X" +
		"\x08\x00\x00\x00" + "ARTIST=a" +
		"\x08\x00\x00\x00" + "ARTIST=b" +
		"\x01")

	if got := h.Marshal(); !bytes.Equal(got, want) {
		t.Errorf("Marshal() = %x, want %x", got, want)
	}
}

func TestCommentHeaderRoundTrip(t *testing.T) {
	h := &CommentHeader{Vendor: "spotify-dl-go test"}
	h.Add("TITLE", "Song = Title") // value may contain '='
	h.Add("ALBUM", "Album")
	h.Add("ARTIST", "First")
	h.Add("ARTIST", "Second")
	h.Add("TRACKNUMBER", "7")

	parsed, err := ParseCommentHeader(h.Marshal())
	if err != nil {
		t.Fatalf("ParseCommentHeader failed: %v", err)
	}
	if parsed.Vendor != h.Vendor {
		t.Errorf("vendor = %q, want %q", parsed.Vendor, h.Vendor)
	}
	if !reflect.DeepEqual(parsed.Tags, h.Tags) {
		t.Errorf("tags = %v, want %v", parsed.Tags, h.Tags)
	}
}

func TestCommentHeaderAdd(t *testing.T) {
	h := &CommentHeader{}
	h.Add("title", "x") // keys are uppercased
	h.Add("GENRE", "")  // empty values dropped

	if len(h.Tags) != 1 {
		t.Fatalf("got %d tags, want 1", len(h.Tags))
	}
	if v, ok := h.Get("TITLE"); !ok || v != "x" {
		t.Errorf("Get(TITLE) = %q, %v", v, ok)
	}
	if _, ok := h.Get("GENRE"); ok {
		t.Error("empty-valued tag was stored")
	}
}

func TestIsCommentHeader(t *testing.T) {
	if !IsCommentHeader([]byte("\x03vorbisgarbage")) {
		t.Error("signature prefix not recognized")
	}
	if IsCommentHeader([]byte("\x01vorbis")) {
		t.Error("identification header misdetected as comment header")
	}
	if IsCommentHeader([]byte("\x03vorb")) {
		t.Error("short payload misdetected")
	}
}

func TestParseCommentHeaderRejects(t *testing.T) {
	h := &CommentHeader{Vendor: "v"}
	h.Add("TITLE", "x")
	good := h.Marshal()

	tests := []struct {
		name string
		data []byte
	}{
		{"wrong signature", []byte("\x01vorbis\x00\x00\x00\x00\x00\x00\x00\x00\x01")},
		{"truncated vendor", good[:9]},
		{"missing framing byte", good[:len(good)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCommentHeader(tt.data); err == nil {
				t.Error("parse succeeded, want error")
			}
		})
	}

	unset := append([]byte(nil), good...)
	unset[len(unset)-1] = 0x00
	if _, err := ParseCommentHeader(unset); err == nil {
		t.Error("cleared framing bit accepted")
	}
}
