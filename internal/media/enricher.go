// Package media adds a generated picture and an animated clip to a recipe.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"miam-planner/internal/llm"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// ImageSize is the requested output resolution.
type ImageSize string

const (
	Size1K ImageSize = "1K"
	Size2K ImageSize = "2K"
	Size4K ImageSize = "4K"
)

// ErrStageBusy is returned when the same stage is already running.
var ErrStageBusy = errors.New("media generation already in progress")

var validate = validator.New()

// ParseImageSize accepts 1K, 2K or 4K.
func ParseImageSize(s string) (ImageSize, error) {
	if err := validate.Var(s, "required,oneof=1K 2K 4K"); err != nil {
		return "", fmt.Errorf("invalid image size %q: expected 1K, 2K or 4K", s)
	}
	return ImageSize(s), nil
}

// Config controls the video stage.
type Config struct {
	MediaDir     string
	PollInterval time.Duration
	MaxWait      time.Duration
}

// busySet tracks the recipe ids a stage is currently working on.
type busySet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func (s *busySet) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *busySet) release(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

func (s *busySet) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Enricher runs the image and video stages. Each stage admits one run per
// recipe at a time.
type Enricher struct {
	images llm.ImageGenerator
	videos llm.VideoGenerator
	creds  CredentialProvider
	clock  clockwork.Clock
	cfg    Config
	logger *zap.Logger

	imageBusy busySet
	videoBusy busySet
}

func NewEnricher(
	images llm.ImageGenerator,
	videos llm.VideoGenerator,
	creds CredentialProvider,
	clock clockwork.Clock,
	cfg Config,
	logger *zap.Logger,
) *Enricher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxWait < cfg.PollInterval {
		cfg.MaxWait = 10 * time.Minute
	}
	return &Enricher{
		images: images,
		videos: videos,
		creds:  creds,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// ImageInProgress reports whether GenerateImage is running for the recipe.
func (e *Enricher) ImageInProgress(recipeID string) bool { return e.imageBusy.has(recipeID) }

// VideoInProgress reports whether AnimateVideo is running for the recipe.
func (e *Enricher) VideoInProgress(recipeID string) bool { return e.videoBusy.has(recipeID) }

// GenerateImage renders a square food photo of the recipe and returns the
// recipe with it attached. The first inline image of the response is used.
func (e *Enricher) GenerateImage(ctx context.Context, r recipe.Recipe, size ImageSize) (recipe.Recipe, error) {
	if _, err := ParseImageSize(string(size)); err != nil {
		return r, err
	}
	if !e.imageBusy.acquire(r.ID) {
		return r, ErrStageBusy
	}
	defer e.imageBusy.release(r.ID)

	if err := e.ensureCredential(ctx); err != nil {
		return r, err
	}

	prompt := fmt.Sprintf("A professional food photography shot of %s, gourmet style.", r.Title)
	images, err := e.images.GenerateImage(ctx, prompt, string(size))
	if err != nil {
		return r, &shared.TransportError{Op: "image generation", Err: err}
	}
	if len(images) == 0 {
		return r, &shared.GenerationError{Stage: "image", Reason: "response contained no image"}
	}

	e.logger.Info("image generated",
		zap.String("recipe_id", r.ID),
		zap.String("size", string(size)),
		zap.Int("bytes", len(images[0].Data)))
	return r.WithImage(images[0]), nil
}

// PollFunc is told how long the video operation has been running.
type PollFunc func(elapsed time.Duration)

// AnimateVideo turns the recipe image into a short clip. The recipe must
// already have an image; otherwise ErrImageRequired is returned before any
// remote call. The operation is polled every PollInterval until done,
// cancelled, or MaxWait elapses (ErrVideoTimeout). The clip is saved as
// MediaDir/<recipe id>.mp4.
func (e *Enricher) AnimateVideo(ctx context.Context, r recipe.Recipe, onPoll PollFunc) (recipe.Recipe, error) {
	img, ok := r.Image()
	if !ok {
		return r, shared.ErrImageRequired
	}
	if !e.videoBusy.acquire(r.ID) {
		return r, ErrStageBusy
	}
	defer e.videoBusy.release(r.ID)

	if err := e.ensureCredential(ctx); err != nil {
		return r, err
	}

	prompt := fmt.Sprintf("Cinematic zoom on %s, food steaming.", r.Title)
	op, err := e.videos.StartVideo(ctx, prompt, img)
	if err != nil {
		return r, &shared.TransportError{Op: "video start", Err: err}
	}

	start := e.clock.Now()
	deadline := start.Add(e.cfg.MaxWait)
	for !op.Done {
		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-e.clock.After(e.cfg.PollInterval):
		}

		op, err = e.videos.PollVideo(ctx, op.Name)
		if err != nil {
			return r, &shared.TransportError{Op: "video poll", Err: err}
		}
		elapsed := e.clock.Since(start)
		if onPoll != nil {
			onPoll(elapsed)
		}
		e.logger.Debug("video operation polled", zap.String("operation", op.Name), zap.Bool("done", op.Done), zap.Duration("elapsed", elapsed))

		if !op.Done && !e.clock.Now().Before(deadline) {
			return r, &shared.GenerationError{Stage: "video", Reason: "operation still running after " + e.cfg.MaxWait.String(), Err: shared.ErrVideoTimeout}
		}
	}

	if op.Error != "" {
		return r, &shared.GenerationError{Stage: "video", Reason: op.Error}
	}
	if op.Video == nil {
		return r, &shared.GenerationError{Stage: "video", Reason: "response contained no video"}
	}

	data, err := e.videos.DownloadVideo(ctx, op.Video.URI)
	if err != nil {
		return r, &shared.TransportError{Op: "video download", Err: err}
	}
	path, err := e.saveVideo(r.ID, data)
	if err != nil {
		return r, err
	}

	updated, _ := r.WithVideo(recipe.Video{URI: path, MIMEType: op.Video.MIMEType})
	e.logger.Info("video generated", zap.String("recipe_id", r.ID), zap.String("path", path))
	return updated, nil
}

func (e *Enricher) ensureCredential(ctx context.Context) error {
	if e.creds == nil || e.creds.HasCredential(ctx) {
		return nil
	}
	ok, err := e.creds.RequestCredential(ctx)
	if err != nil {
		return fmt.Errorf("failed to request credential: %w", err)
	}
	if !ok {
		return shared.ErrNoCredential
	}
	return nil
}

func (e *Enricher) saveVideo(id string, data []byte) (string, error) {
	if err := os.MkdirAll(e.cfg.MediaDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	path := filepath.Join(e.cfg.MediaDir, id+".mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write video: %w", err)
	}
	return path, nil
}
