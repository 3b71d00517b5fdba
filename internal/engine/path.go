package engine

import (
	"regexp"
	"strings"

	"spotify-dl-go/internal/api"
)

// DefaultNameFormat is the file name template used when the user
// configures none.
const DefaultNameFormat = "{author} - {name}.{ext}"

// illegalCharsRegex matches characters that are not allowed in file/folder names.
var illegalCharsRegex = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// sanitizeFilename removes or replaces characters that are illegal in
// file names. Path separators become spaces so a track title can never
// escape into a subdirectory.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = illegalCharsRegex.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	// Limit length to avoid path issues (Windows max path component is 255)
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}

// RenderName expands a file name template for a track. Supported
// tokens: {author} (first listed artist), {album}, {name} and {ext}.
func RenderName(format string, track *api.TrackMetadata, ext string) string {
	if format == "" {
		format = DefaultNameFormat
	}

	author := ""
	if len(track.Artists) > 0 {
		author = track.Artists[0].Name
	}

	replacer := strings.NewReplacer(
		"{author}", sanitizeFilename(author),
		"{album}", sanitizeFilename(track.Album.Name),
		"{name}", sanitizeFilename(track.Name),
		"{ext}", ext,
	)
	return replacer.Replace(format)
}
