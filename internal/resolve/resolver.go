// Package resolve expands typed catalog references into concrete track
// ids and picks a downloadable encoding per track.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"spotify-dl-go/internal/api"
)

// Catalog is the read-only metadata lookup the resolver runs against.
// *api.Client satisfies it; tests supply fakes.
type Catalog interface {
	Track(ctx context.Context, id string) (*api.TrackMetadata, error)
	Album(ctx context.Context, id string) (*api.AlbumMetadata, error)
	Playlist(ctx context.Context, id string) (*api.PlaylistMetadata, error)
	Artist(ctx context.Context, id string) (*api.ArtistMetadata, error)
}

// Warning records a catalog lookup that failed for one reference.
// Warnings accumulate; they never abort the remaining references.
type Warning struct {
	Kind api.ReferenceKind
	ID   string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %v", w.Kind, w.ID, w.Err)
}

// Resolver expands references into a flat, duplicate-free track-id set.
type Resolver struct {
	Catalog     Catalog
	Concurrency int // concurrent top-level references; 0 means serial
}

// Resolve expands every reference and returns the union of their track
// ids plus any per-reference warnings. Each top-level reference
// resolves into its own local set; sets are merged after the fact, so
// no lock sits on the expansion path.
func (r *Resolver) Resolve(ctx context.Context, refs []api.Reference) (map[string]struct{}, []Warning) {
	type result struct {
		ids      map[string]struct{}
		warnings []Warning
	}

	results := make([]result, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, ref := range refs {
		g.Go(func() error {
			res := result{ids: make(map[string]struct{})}
			res.warnings = r.expand(gctx, ref, res.ids, res.warnings)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // expansion never returns errors, only warnings

	merged := make(map[string]struct{})
	var warnings []Warning
	for _, res := range results {
		for id := range res.ids {
			merged[id] = struct{}{}
		}
		warnings = append(warnings, res.warnings...)
	}
	return merged, warnings
}

// expand resolves one reference into out, recursing into collections.
// Artist records hold groupings of albums; each album inside each
// grouping re-enters expand as an Album reference, so deeper grouping
// shapes need no new code path.
func (r *Resolver) expand(ctx context.Context, ref api.Reference, out map[string]struct{}, warnings []Warning) []Warning {
	switch ref.Kind {
	case api.KindTrack:
		out[ref.ID] = struct{}{}

	case api.KindAlbum:
		album, err := r.Catalog.Album(ctx, ref.ID)
		if err != nil {
			return append(warnings, Warning{Kind: ref.Kind, ID: ref.ID, Err: err})
		}
		for _, t := range album.Tracks.Items {
			out[t.ID] = struct{}{}
		}

	case api.KindPlaylist:
		playlist, err := r.Catalog.Playlist(ctx, ref.ID)
		if err != nil {
			return append(warnings, Warning{Kind: ref.Kind, ID: ref.ID, Err: err})
		}
		for _, t := range playlist.Tracks.Items {
			out[t.ID] = struct{}{}
		}

	case api.KindArtist:
		artist, err := r.Catalog.Artist(ctx, ref.ID)
		if err != nil {
			return append(warnings, Warning{Kind: ref.Kind, ID: ref.ID, Err: err})
		}
		for _, groups := range [][]api.AlbumGroup{artist.AlbumGroups, artist.SingleGroups} {
			for _, group := range groups {
				for _, album := range group.Albums {
					warnings = r.expand(ctx, api.Reference{Kind: api.KindAlbum, ID: album.ID}, out, warnings)
				}
			}
		}

	default:
		warnings = append(warnings, Warning{Kind: ref.Kind, ID: ref.ID, Err: fmt.Errorf("unknown reference kind %q", ref.Kind)})
	}
	return warnings
}

// SortedIDs flattens a track-id set into a deterministic slice for
// downstream processing order.
func SortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
