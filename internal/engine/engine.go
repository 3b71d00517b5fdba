// Package engine provides the core download and processing pipeline.
// It resolves references, selects a downloadable encoding per track,
// fetches and rewrites the audio container, and writes files to disk.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/ogg"
	"spotify-dl-go/internal/resolve"
)

// AudioSource fetches and decrypts the raw container bytes for one
// track file. *api.Client satisfies it; tests supply fakes.
type AudioSource interface {
	AudioFile(ctx context.Context, trackID string, fileID api.FileID, onProgress func(current, total int64)) ([]byte, error)
}

// Engine coordinates resolution, format selection, download and the
// comment rewrite across a worker pool.
type Engine struct {
	Catalog     resolve.Catalog
	Audio       AudioSource
	Concurrency int // concurrent track downloads (default: 3)
	Quality     api.Quality
	OutputDir   string
	NameFormat  string
	Quiet       bool // suppress progress bars (tests, serve mode)
}

// New creates an Engine backed by the given API client.
func New(client *api.Client) *Engine {
	return &Engine{
		Catalog:     client,
		Audio:       client,
		Concurrency: 3,
		Quality:     api.QualityHigh,
		OutputDir:   ".",
		NameFormat:  DefaultNameFormat,
	}
}

// SetConcurrency sets the number of concurrent download workers.
func (e *Engine) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10 // cap to avoid API rate limiting
	}
	e.Concurrency = n
}

// Summary reports per-batch outcome totals. Individual failures never
// suppress the rest of the batch; they only show up in these counts.
type Summary struct {
	Inputs       int
	Unrecognized int
	Resolved     int
	Skipped      int
	Written      int
	Failed       int
	Warnings     []resolve.Warning
}

// DownloadAll runs the full pipeline over free-form input lines:
// parse, resolve to a deduplicated track set, then process each track
// on the worker pool. Lines that match no reference grammar and
// references whose catalog lookup fails are reported and skipped.
func (e *Engine) DownloadAll(ctx context.Context, lines []string) (*Summary, error) {
	summary := &Summary{Inputs: len(lines)}

	var refs []api.Reference
	for _, line := range lines {
		ref, err := api.ParseReference(line)
		if err != nil {
			summary.Unrecognized++
			fmt.Printf("[Skip] %v\n", err)
			continue
		}
		refs = append(refs, ref)
	}

	resolver := &resolve.Resolver{Catalog: e.Catalog, Concurrency: e.Concurrency}
	set, warnings := resolver.Resolve(ctx, refs)
	summary.Warnings = warnings
	for _, w := range warnings {
		fmt.Printf("[Warn] could not resolve %s\n", w)
	}

	ids := resolve.SortedIDs(set)
	summary.Resolved = len(ids)
	if len(ids) == 0 {
		return summary, nil
	}

	numWorkers := e.Concurrency
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(ids) {
		numWorkers = len(ids)
	}

	var wg sync.WaitGroup
	progressOpts := []mpb.ContainerOption{mpb.WithWaitGroup(&wg)}
	if e.Quiet {
		progressOpts = append(progressOpts, mpb.WithOutput(io.Discard))
	}
	progress := mpb.New(progressOpts...)

	var mu sync.Mutex
	taskChan := make(chan string, len(ids))

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range taskChan {
				status, err := e.processTrack(ctx, id, progress)

				mu.Lock()
				switch status {
				case trackSkipped:
					summary.Skipped++
				case trackWritten:
					summary.Written++
				default:
					summary.Failed++
				}
				mu.Unlock()

				if err != nil {
					fmt.Printf("[Fail] track %s: %v\n", id, err)
				}
			}
		}()
	}

	for _, id := range ids {
		taskChan <- id
	}
	close(taskChan)

	wg.Wait()
	progress.Wait()

	return summary, nil
}

type trackStatus int

const (
	trackFailed trackStatus = iota
	trackSkipped
	trackWritten
)

// processTrack runs the per-track pipeline: pick an encoding (walking
// alternatives when needed), fetch, rewrite the comment header, write.
func (e *Engine) processTrack(ctx context.Context, id string, progress *mpb.Progress) (trackStatus, error) {
	sel, err := resolve.SelectFile(ctx, e.Catalog, id, e.Quality.Priority())
	if err != nil {
		return trackFailed, err
	}
	track := sel.Track

	if sel.Substituted && !e.Quiet {
		fmt.Printf("[Note] %s: using alternative version %s\n", id, track.ID)
	}

	outPath := filepath.Join(e.OutputDir, RenderName(e.NameFormat, track, "ogg"))
	if _, err := os.Stat(outPath); err == nil {
		return trackSkipped, nil
	}

	label := track.Name
	if len(track.Artists) > 0 {
		label = track.Artists[0].Name + " - " + track.Name
	}
	bar := progress.New(0,
		mpb.BarStyle(),
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(decor.Name(label, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.Percentage()),
	)
	defer func() { bar.SetTotal(-1, true) }()

	raw, err := e.Audio.AudioFile(ctx, track.ID, sel.FileID, func(current, total int64) {
		bar.SetTotal(total, false)
		bar.SetCurrent(current)
	})
	if err != nil {
		return trackFailed, fmt.Errorf("download failed: %w", err)
	}

	rewritten, err := ogg.ReplaceComments(raw, BuildComments(track))
	if err != nil {
		return trackFailed, fmt.Errorf("comment rewrite failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return trackFailed, err
	}
	if err := os.WriteFile(outPath, rewritten, 0644); err != nil {
		return trackFailed, err
	}

	return trackWritten, nil
}

// StreamTrack fetches one track, rewrites its comment header and
// streams the result to w. Used by serve mode.
func (e *Engine) StreamTrack(ctx context.Context, trackID string, quality api.Quality, w io.Writer) (*api.TrackMetadata, error) {
	sel, err := resolve.SelectFile(ctx, e.Catalog, trackID, quality.Priority())
	if err != nil {
		return nil, err
	}

	raw, err := e.Audio.AudioFile(ctx, sel.Track.ID, sel.FileID, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	rewritten, err := ogg.ReplaceComments(raw, BuildComments(sel.Track))
	if err != nil {
		return nil, fmt.Errorf("comment rewrite failed: %w", err)
	}

	if _, err := w.Write(rewritten); err != nil {
		return nil, err
	}
	return sel.Track, nil
}
