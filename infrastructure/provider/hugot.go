package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/daybook-dev/daybook/domain/memory"
)

// DefaultHugotModel is the MiniLM-class sentence model the local generator
// expects to find in the model directory.
const DefaultHugotModel = "all-MiniLM-L6-v2"

const hugotModelRevision = 1

// ortSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT only allows one active session per process, so all HugotGenerator
// instances share it. The mutex serializes both initialization and
// inference (ORT is not thread-safe).
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// HugotGenerator produces embeddings with a local MiniLM-class ONNX model
// via hugot. The pipeline runs with normalization on, so vectors come out
// unit-length.
//
// The model can come from two sources (checked in order):
//  1. Model files on disk — a subdirectory of modelDir containing
//     tokenizer.json.
//  2. Statically embedded in the binary (build tag embed_model), extracted
//     to modelDir on first use.
type HugotGenerator struct {
	modelDir string
	model    string
}

// NewHugotGenerator creates a HugotGenerator that looks for model files in
// modelDir.
func NewHugotGenerator(modelDir string) *HugotGenerator {
	return &HugotGenerator{
		modelDir: modelDir,
		model:    DefaultHugotModel,
	}
}

// Available reports whether a usable model exists, either compiled into
// the binary or present on disk in modelDir.
func (g *HugotGenerator) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := g.diskModelPath()
	return err == nil
}

// Initialize loads the model and builds the shared pipeline. Idempotent;
// failure maps to memory.ErrInitialization.
func (g *HugotGenerator) Initialize(_ context.Context) error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("%w: create hugot session: %v", memory.ErrInitialization, err)
	}

	modelPath, err := g.resolveModelPath()
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("%w: %v", memory.ErrInitialization, err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "journal-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("%w: create feature extraction pipeline: %v", memory.ErrInitialization, err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// Status reports readiness of the shared pipeline.
func (g *HugotGenerator) Status() Status {
	ortSingleton.mu.Lock()
	ready := ortSingleton.ready
	ortSingleton.mu.Unlock()
	return Status{
		Ready:        ready,
		Device:       "local",
		Model:        g.model,
		ModelVersion: memory.FormatModelVersion(g.model, hugotModelRevision),
	}
}

// Embed produces one embedding.
func (g *HugotGenerator) Embed(ctx context.Context, text string) (Result, error) {
	results, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// EmbedBatch produces one embedding per text in a single pipeline run.
func (g *HugotGenerator) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.Initialize(ctx); err != nil {
		return nil, err
	}

	started := time.Now()

	// Hold the singleton mutex for inference — ORT is not thread-safe.
	ortSingleton.mu.Lock()
	output, err := ortSingleton.pipeline.RunPipeline(texts)
	ortSingleton.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	if len(output.Embeddings) != len(texts) {
		return nil, NewProviderError("embedding", 0,
			fmt.Sprintf("got %d vectors for %d texts", len(output.Embeddings), len(texts)), nil)
	}

	elapsed := time.Since(started)
	version := memory.FormatModelVersion(g.model, hugotModelRevision)
	results := make([]Result, len(output.Embeddings))
	for i, vec32 := range output.Embeddings {
		raw := make([]float64, len(vec32))
		for j, v := range vec32 {
			raw[j] = float64(v)
		}
		results[i] = Result{
			Vector:         fitDimensions(raw),
			ModelVersion:   version,
			Timestamp:      time.Now().UTC(),
			ProcessingTime: elapsed,
		}
	}
	return results, nil
}

// Close is a no-op. The ONNX Runtime session is process-global and shared
// across all HugotGenerator instances; it is cleaned up at process exit.
func (g *HugotGenerator) Close() error {
	return nil
}

// resolveModelPath returns the path to a usable model directory, preferring
// files already on disk over the embedded copy.
func (g *HugotGenerator) resolveModelPath() (string, error) {
	if diskPath, err := g.diskModelPath(); err == nil {
		return diskPath, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model found in %s and no embedded model compiled in (build with -tags embed_model)", g.modelDir)
	}

	if err := os.MkdirAll(g.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	return extractEmbeddedModel(g.modelDir)
}

// diskModelPath looks for a model subdirectory containing tokenizer.json
// inside modelDir.
func (g *HugotGenerator) diskModelPath() (string, error) {
	entries, err := os.ReadDir(g.modelDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", g.modelDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(g.modelDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", g.modelDir)
}

var _ Generator = (*HugotGenerator)(nil)
