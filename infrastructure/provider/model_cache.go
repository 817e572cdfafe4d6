// Package provider supplies embedding generation, either from a local
// in-process model or a remote endpoint.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"golang.org/x/sync/singleflight"
)

// maxEmbedChars bounds the text passed to the model. Longer inputs are
// truncated; sentence embeddings degrade gracefully and the bound keeps
// latency and memory predictable.
const maxEmbedChars = 512

// ErrModelUnavailable indicates the embedding model could not be fetched,
// loaded, or run. It is never converted into a zero vector; callers decide
// whether to fall back.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// ModelCache owns the single in-process instance of the sentence-embedding
// model. The model is loaded at most once per process: from the on-disk
// cache directory when the artifacts are present, otherwise fetched into
// that directory first so subsequent processes boot without network.
//
// Concurrent first-callers share one in-flight load via singleflight; the
// load itself runs detached from any single request, so one caller's
// cancellation cannot abort a load other requests are waiting on. After a
// failed load the cache stays unloaded and a later call retries.
type ModelCache struct {
	modelID  string
	cacheDir string
	logger   *slog.Logger

	group singleflight.Group

	// mu guards pipeline/session and serializes inference: the ONNX
	// runtime session is not safe for concurrent RunPipeline calls.
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewModelCache creates a ModelCache that caches model artifacts under
// cacheDir. The model is not loaded until Preload or the first Embed call.
func NewModelCache(modelID, cacheDir string, logger *slog.Logger) *ModelCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelCache{
		modelID:  modelID,
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// Ready reports whether the model is loaded.
func (c *ModelCache) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline != nil
}

// Preload triggers the model load if it has not happened yet and returns
// once the model is ready. Safe to call redundantly; a no-op after the
// first success.
func (c *ModelCache) Preload(ctx context.Context) error {
	return c.ensureLoaded(ctx)
}

// Embed returns the fixed-dimension embeddings for the given texts, loading
// the model first if necessary. Embeddings are mean-pooled and
// L2-normalized, so cosine similarity equals the dot product.
func (c *ModelCache) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncate(t, maxEmbedChars)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.pipeline.RunPipeline(truncated)
	if err != nil {
		return nil, fmt.Errorf("%w: run pipeline: %v", ErrModelUnavailable, err)
	}

	embeddings := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		embeddings[i] = vec64
	}
	return embeddings, nil
}

// ensureLoaded loads the model exactly once across concurrent callers.
// The load runs in the singleflight goroutine with its own lifecycle;
// waiting callers honor their own context, but abandoning the wait does
// not cancel the load for everyone else.
func (c *ModelCache) ensureLoaded(ctx context.Context) error {
	if c.Ready() {
		return nil
	}

	ch := c.group.DoChan("load", func() (any, error) {
		return nil, c.load()
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ModelCache) load() error {
	modelPath, err := c.resolveModelPath()
	if err != nil {
		return err
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("%w: create session: %v", ErrModelUnavailable, err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "product-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("%w: create pipeline: %v", ErrModelUnavailable, err)
	}

	c.mu.Lock()
	c.session = session
	c.pipeline = pipeline
	c.mu.Unlock()

	c.logger.Info("embedding model loaded", "model_id", c.modelID, "path", modelPath)
	return nil
}

// resolveModelPath returns the path to a usable model directory. Artifacts
// already on disk are used as-is with no network; otherwise the model is
// downloaded into the cache directory first.
func (c *ModelCache) resolveModelPath() (string, error) {
	if diskPath, err := c.diskModelPath(); err == nil {
		return diskPath, nil
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create cache directory: %v", ErrModelUnavailable, err)
	}

	c.logger.Info("model artifacts not cached, downloading", "model_id", c.modelID, "dir", c.cacheDir)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(c.modelID, c.cacheDir, opts)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %v", ErrModelUnavailable, c.modelID, err)
	}
	return modelPath, nil
}

// diskModelPath looks for a model subdirectory containing tokenizer.json
// inside the cache directory. Presence of these files is the sole signal
// used to skip the network fetch.
func (c *ModelCache) diskModelPath() (string, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", c.cacheDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(c.cacheDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", c.cacheDir)
}

// Close destroys the session. Only used on process shutdown; the model is
// never unloaded during normal operation.
func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	c.pipeline = nil
	return err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
