package engine

import (
	"reflect"
	"testing"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/ogg"
)

func TestBuildComments(t *testing.T) {
	track := &api.TrackMetadata{
		ID:    "t1",
		Name:  "Song",
		Album: api.AlbumRef{Name: "Record"},
		Artists: []api.ArtistRef{
			{Name: "Main"},
			{Name: "Featured"},
		},
		TrackNumber: 3,
		DiscNumber:  1,
	}

	cmts := BuildComments(track)

	want := []ogg.Tag{
		{Key: "TITLE", Value: "Song"},
		{Key: "ALBUM", Value: "Record"},
		{Key: "ARTIST", Value: "Main"},
		{Key: "ARTIST", Value: "Featured"},
		{Key: "TRACKNUMBER", Value: "3"},
		{Key: "DISCNUMBER", Value: "1"},
	}
	if !reflect.DeepEqual(cmts.Tags, want) {
		t.Errorf("tags = %v, want %v", cmts.Tags, want)
	}
	if cmts.Vendor == "" {
		t.Error("vendor string is empty")
	}
}

func TestBuildCommentsOmitsZeroNumbers(t *testing.T) {
	track := &api.TrackMetadata{Name: "Song"}
	cmts := BuildComments(track)

	if _, ok := cmts.Get("TRACKNUMBER"); ok {
		t.Error("zero track number was tagged")
	}
	if _, ok := cmts.Get("DISCNUMBER"); ok {
		t.Error("zero disc number was tagged")
	}
}
