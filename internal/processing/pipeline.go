// Package processing is the C5 worker core: it consumes process-photo
// jobs, claims the photo, downloads and decodes the original, derives the
// rendition ladder, uploads each derivative, and commits the terminal DB
// state. It generalizes the teacher's internal/imaging.Service
// (in-memory channel queue + processJob + content-hash dedup) into an
// internal/queue consumer driven by the photo state machine instead.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maukemana/photocore/internal/albumcache"
	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/imaging"
	"github.com/maukemana/photocore/internal/models"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/repositories"
	"github.com/maukemana/photocore/internal/storage"
)

const (
	// QueueName and TaskType name the process-photo queue (spec §4.5).
	QueueName = "process-photo"
	TaskType  = "process-photo"
)

// Job is the process-photo task payload.
type Job struct {
	PhotoID     string `json:"photoId"`
	AlbumID     string `json:"albumId"`
	OriginalKey string `json:"originalKey"`
}

// Config bounds the pipeline's tunable knobs (spec §6.5 env vars).
type Config struct {
	MaxAttempts    int
	ThumbMaxEdge   int
	PreviewMaxEdge int
}

// Pipeline wires together C2 (repositories), C1 (storage), C4
// (albumcache), and C5's own imaging.Processor into the per-job
// procedure described in spec §4.5.
type Pipeline struct {
	photos  *repositories.PhotoRepository
	albums  *repositories.AlbumRepository
	storage storage.Adapter
	cache   *albumcache.Cache
	proc    *imaging.Processor
	cfg     Config
}

// New builds a Pipeline. cfg.MaxAttempts defaults to 5 when zero, matching
// the spec's default JOB_MAX_ATTEMPTS.
func New(photos *repositories.PhotoRepository, albums *repositories.AlbumRepository, store storage.Adapter, cache *albumcache.Cache, cfg Config) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Pipeline{
		photos:  photos,
		albums:  albums,
		storage: store,
		cache:   cache,
		proc:    imaging.NewProcessor(),
		cfg:     cfg,
	}
}

// Handler adapts Process into an internal/queue.Handler for
// Queue.Worker.
func (p *Pipeline) Handler() queue.Handler {
	return func(ctx context.Context, payload []byte) error {
		var job Job
		if err := json.Unmarshal(payload, &job); err != nil {
			return apperr.Validation(fmt.Errorf("processing: decode job payload: %w", err))
		}
		return p.Process(ctx, job)
	}
}

// Process runs one attempt of the per-job procedure (spec §4.5, steps
// 1-6; step 7's photo_count reconciliation is left to readers, per
// Open Question 3). A non-nil return tells the queue to retry the task
// per its own backoff/max-attempts policy; nil means the job is fully
// resolved, whether that resolution is success, a terminal failure, or a
// claim that silently lost its race.
func (p *Pipeline) Process(ctx context.Context, job Job) error {
	claimed, err := p.photos.Claim(ctx, job.PhotoID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	photo, err := p.photos.FindByID(ctx, job.PhotoID)
	if err != nil {
		return err
	}

	settings, err := p.cache.Get(ctx, job.AlbumID)
	if err != nil {
		return p.handleFailure(ctx, photo, err)
	}
	// An album deleted between claim and commit (settings.DeletedAt != nil)
	// is not handled here: per spec §3/§8 (B3), the commit still applies,
	// and visibility comes from the album's own deleted_at at read time.

	data, err := p.storage.Download(ctx, photo.OriginalKey)
	if err != nil {
		if apperr.IsNotFound(err) {
			return p.photos.Fail(ctx, photo.ID, "original missing", true)
		}
		return p.handleFailure(ctx, photo, err)
	}

	decoded, err := imaging.Decode(data)
	if err != nil {
		return p.handleFailure(ctx, photo, apperr.Transient(fmt.Errorf("decode: %w", err)))
	}

	renditions, err := p.derive(ctx, decoded, settings)
	if err != nil {
		return p.handleFailure(ctx, photo, apperr.Transient(fmt.Errorf("derive: %w", err)))
	}

	if err := p.upload(ctx, job.AlbumID, job.PhotoID, renditions); err != nil {
		return p.handleFailure(ctx, photo, err)
	}

	return p.commit(ctx, photo, decoded, renditions)
}

// derive builds the rendition ladder from the album's enabled presets and
// applies the watermark (thumb/preview only) when enabled, per §4.5.1.
func (p *Pipeline) derive(ctx context.Context, decoded *imaging.Decoded, settings albumcache.Settings) ([]imaging.Rendition, error) {
	var presets []string
	if len(settings.ColorGrading) > 0 {
		var cg models.ColorGradingPresets
		if err := json.Unmarshal(settings.ColorGrading, &cg); err == nil {
			presets = cg.Presets
		}
	}

	ladder := imaging.Ladder(p.cfg.ThumbMaxEdge, p.cfg.PreviewMaxEdge, presets)

	var baseLadder, styledLadder []imaging.RenditionConfig
	for _, cfg := range ladder {
		if cfg.Kind == imaging.RenditionStyled {
			styledLadder = append(styledLadder, cfg)
		} else {
			baseLadder = append(baseLadder, cfg)
		}
	}

	var mark *imaging.Watermark
	if settings.WatermarkEnabled {
		w, err := p.buildWatermark(ctx, settings)
		if err != nil {
			return nil, err
		}
		mark = w
	}

	renditions, err := p.proc.Process(decoded.Image, baseLadder, mark)
	if err != nil {
		return nil, err
	}
	if len(styledLadder) > 0 {
		styled, err := p.proc.Process(decoded.Image, styledLadder, nil)
		if err != nil {
			return nil, err
		}
		renditions = append(renditions, styled...)
	}
	return renditions, nil
}

// buildWatermark decodes the album's opaque watermark_config JSON into
// the text or image shape named by watermark_type, downloading the
// overlay source for the image case.
func (p *Pipeline) buildWatermark(ctx context.Context, settings albumcache.Settings) (*imaging.Watermark, error) {
	switch models.WatermarkType(settings.WatermarkType) {
	case models.WatermarkText:
		var cfg models.WatermarkConfigText
		if err := json.Unmarshal(settings.WatermarkConfig, &cfg); err != nil {
			return nil, fmt.Errorf("processing: decode text watermark config: %w", err)
		}
		return &imaging.Watermark{
			Text:     cfg.Text,
			Opacity:  cfg.Opacity,
			Position: imaging.Position(cfg.Position),
		}, nil
	case models.WatermarkImage:
		var cfg models.WatermarkConfigImage
		if err := json.Unmarshal(settings.WatermarkConfig, &cfg); err != nil {
			return nil, fmt.Errorf("processing: decode image watermark config: %w", err)
		}
		data, err := p.storage.Download(ctx, cfg.ImageKey)
		if err != nil {
			return nil, fmt.Errorf("processing: download watermark overlay: %w", err)
		}
		overlay, err := imaging.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("processing: decode watermark overlay: %w", err)
		}
		return &imaging.Watermark{
			Overlay:  overlay.Image,
			Opacity:  cfg.Opacity,
			Position: imaging.Position(cfg.Position),
			ScalePct: cfg.ScalePct,
		}, nil
	default:
		return nil, nil
	}
}

// upload writes every rendition to its deterministic storage key in
// parallel (spec §4.5 step 5). A partial failure leaves already-uploaded
// keys in place as orphans; the overall job fails and retries, which
// overwrites them on the next attempt.
func (p *Pipeline) upload(ctx context.Context, albumID, photoID string, renditions []imaging.Rendition) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range renditions {
		r := r
		g.Go(func() error {
			key := r.Config.Key(albumID, photoID)
			_, err := p.storage.Upload(gctx, key, bytes.NewReader(r.Data), int64(r.SizeBytes), "image/jpeg", nil)
			return err
		})
	}
	return g.Wait()
}

// commit is the linearization point (spec §4.5 step 6): a single UPDATE
// that makes the photo visible to readers.
func (p *Pipeline) commit(ctx context.Context, photo *models.Photo, decoded *imaging.Decoded, renditions []imaging.Rendition) error {
	var thumbKey, previewKey *string
	variantKeys := models.StringMap{}
	width, height := photo.Width, photo.Height

	for _, r := range renditions {
		key := r.Config.Key(photo.AlbumID, photo.ID)
		switch r.Config.Kind {
		case imaging.RenditionThumb:
			k := key
			thumbKey = &k
		case imaging.RenditionPreview:
			k := key
			previewKey = &k
			width, height = r.Width, r.Height
		case imaging.RenditionStyled:
			variantKeys[r.Config.Preset] = key
		}
	}

	return p.photos.Complete(ctx, photo.ID, thumbKey, previewKey, variantKeys, width, height, decoded.Rotation, decoded.CapturedAt)
}

// handleFailure classifies cause per the retry table in spec §4.5: a
// transient cause below max attempts is handed back to pending (and the
// error is returned so the queue retries with backoff); everything else
// is terminal.
func (p *Pipeline) handleFailure(ctx context.Context, photo *models.Photo, cause error) error {
	message := cause.Error()
	if apperr.IsTransient(cause) && photo.Attempts < p.cfg.MaxAttempts {
		if err := p.photos.Fail(ctx, photo.ID, message, false); err != nil {
			return err
		}
		return cause
	}
	if err := p.photos.Fail(ctx, photo.ID, message, true); err != nil {
		return err
	}
	return nil
}

// Recover performs one crash-recovery sweep (spec §4.5 "Crash recovery"):
// every photo stuck in PhotoProcessing past horizon is demoted back to
// pending and re-enqueued with its photoId as jobId, relying on the
// queue's own per-jobId dedup to make this safe if the original run is
// still actually in flight. It returns the number of photos recovered.
func (p *Pipeline) Recover(ctx context.Context, horizon time.Duration, q *queue.Queue) (int, error) {
	stuck, err := p.photos.FindStuckProcessing(ctx, horizon)
	if err != nil {
		return 0, err
	}
	for _, photo := range stuck {
		if err := p.photos.Fail(ctx, photo.ID, "recovered after crash", false); err != nil {
			return 0, err
		}
		job := Job{PhotoID: photo.ID, AlbumID: photo.AlbumID, OriginalKey: photo.OriginalKey}
		if err := q.Enqueue(QueueName, TaskType, job, queue.EnqueueOptions{JobID: photo.ID, MaxAttempts: p.cfg.MaxAttempts}); err != nil {
			return 0, err
		}
	}
	return len(stuck), nil
}
