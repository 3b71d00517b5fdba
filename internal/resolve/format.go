package resolve

import (
	"context"
	"fmt"

	"spotify-dl-go/internal/api"
)

// NoSuitableFormatError reports that neither a track nor any of its
// alternatives offers an encoding from the priority list.
type NoSuitableFormatError struct {
	TrackID string
}

func (e *NoSuitableFormatError) Error() string {
	return fmt.Sprintf("no suitable format for track %s", e.TrackID)
}

// Selection is the outcome of an alternate-format walk.
type Selection struct {
	Track  *api.TrackMetadata
	FileID api.FileID
	// Substituted is true when the returned record is not the one
	// originally requested, i.e. an alternative version was taken.
	Substituted bool
}

// SelectFile finds a downloadable file for start, preferring encodings
// in priority order. A record offering none of the priority encodings
// hands off to its alternatives, walked breadth-first. The visited set
// keeps a cyclic alternatives graph from looping; the catalog itself
// offers no such guarantee.
func SelectFile(ctx context.Context, catalog Catalog, start string, priority []api.FormatID) (*Selection, error) {
	queue := []string{start}
	visited := map[string]struct{}{start: {}}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		track, err := catalog.Track(ctx, id)
		if err != nil {
			// A broken link in the chain is not fatal; later
			// alternatives may still carry a usable file.
			continue
		}

		for _, format := range priority {
			if fileID, ok := track.File(format); ok {
				return &Selection{
					Track:       track,
					FileID:      fileID,
					Substituted: track.ID != start,
				}, nil
			}
		}

		for _, alt := range track.Alternatives {
			if _, seen := visited[alt]; seen {
				continue
			}
			visited[alt] = struct{}{}
			queue = append(queue, alt)
		}
	}

	return nil, &NoSuitableFormatError{TrackID: start}
}
