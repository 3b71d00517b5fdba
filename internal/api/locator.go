package api

import (
	"fmt"
	"regexp"
)

// ReferenceKind identifies which catalog entity a reference names.
type ReferenceKind string

const (
	KindTrack    ReferenceKind = "track"
	KindAlbum    ReferenceKind = "album"
	KindPlaylist ReferenceKind = "playlist"
	KindArtist   ReferenceKind = "artist"
)

// Reference is a typed, parsed catalog reference. Immutable once built.
type Reference struct {
	Kind ReferenceKind
	ID   string
}

func (r Reference) String() string {
	return fmt.Sprintf("spotify:%s:%s", r.Kind, r.ID)
}

// UnrecognizedInputError reports an input line that matched no known
// reference grammar. It carries the original line so callers can
// warn-and-skip.
type UnrecognizedInputError struct {
	Line string
}

func (e *UnrecognizedInputError) Error() string {
	return fmt.Sprintf("unrecognized input: %q", e.Line)
}

// referenceGrammar holds the two accepted spellings of one kind:
// the open.spotify.com link and the native URI. Both are anchored and
// require the full 22-character alphanumeric id.
type referenceGrammar struct {
	kind ReferenceKind
	link *regexp.Regexp
	uri  *regexp.Regexp
}

func grammarFor(kind ReferenceKind) referenceGrammar {
	return referenceGrammar{
		kind: kind,
		link: regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/` + string(kind) + `/([A-Za-z0-9]{22})$`),
		uri:  regexp.MustCompile(`^spotify:` + string(kind) + `:([A-Za-z0-9]{22})$`),
	}
}

// grammars is ordered; the first kind whose grammar matches wins and
// later kinds are never tested.
var grammars = []referenceGrammar{
	grammarFor(KindTrack),
	grammarFor(KindAlbum),
	grammarFor(KindPlaylist),
	grammarFor(KindArtist),
}

// ParseReference matches an input line against the recognized reference
// grammars and extracts a typed reference. The id is taken verbatim
// from the capture group, with no normalization.
func ParseReference(line string) (Reference, error) {
	for _, g := range grammars {
		if m := g.link.FindStringSubmatch(line); m != nil {
			return Reference{Kind: g.kind, ID: m[1]}, nil
		}
		if m := g.uri.FindStringSubmatch(line); m != nil {
			return Reference{Kind: g.kind, ID: m[1]}, nil
		}
	}
	return Reference{}, &UnrecognizedInputError{Line: line}
}
