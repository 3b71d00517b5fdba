package engine

import (
	"strconv"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/ogg"
	"spotify-dl-go/internal/version"
)

// BuildComments constructs the comment header written into every
// downloaded file. Tag order is stable; every contributing artist gets
// its own ARTIST entry, in catalog order.
func BuildComments(track *api.TrackMetadata) *ogg.CommentHeader {
	cmts := &ogg.CommentHeader{Vendor: "spotify-dl-go " + version.Short()}

	cmts.Add("TITLE", track.Name)
	cmts.Add("ALBUM", track.Album.Name)
	for _, artist := range track.Artists {
		cmts.Add("ARTIST", artist.Name)
	}
	if track.TrackNumber > 0 {
		cmts.Add("TRACKNUMBER", strconv.Itoa(track.TrackNumber))
	}
	if track.DiscNumber > 0 {
		cmts.Add("DISCNUMBER", strconv.Itoa(track.DiscNumber))
	}

	return cmts
}
