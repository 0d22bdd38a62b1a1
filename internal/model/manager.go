// Package model owns the ONNX runtime sessions for every locally served
// network: the background segmenter, the caption backbone and decoder, and
// the super-resolution upscaler. A handle is either fully loaded and safe to
// invoke from any goroutine, or absent; dependent pipelines must check
// availability and report unavailable instead of crashing.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/types"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

const (
	// SegmenterSize is the fixed square input of the background segmenter.
	SegmenterSize = 320
	// BackboneSize is the fixed square input of the caption backbone.
	BackboneSize = 224
	// BackboneFeatures is the length of the penultimate-layer feature vector.
	BackboneFeatures = 4096
	// UpscaleFactor is the fixed scale of the super-resolution network.
	UpscaleFactor = 4

	poolSize = 2
)

type Artifact string

const (
	ArtifactSegmenter  Artifact = "segmenter"
	ArtifactBackbone   Artifact = "backbone"
	ArtifactDecoder    Artifact = "decoder"
	ArtifactVocabulary Artifact = "vocabulary"
	ArtifactUpscaler   Artifact = "upscaler"
)

type Manager struct {
	logger *zap.Logger

	runtimeOK bool
	backend   string

	segmenter chan *fixedModel
	backbone  chan *fixedModel
	decoder   *dynamicModel
	upscaler  *dynamicModel
	vocab     []string

	statuses map[Artifact]types.ArtifactStatus
}

// NewManager initializes the ONNX runtime and loads every artifact found
// under the models directory. Loading failures are recorded per artifact and
// never abort startup.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:   logger.Named("model"),
		backend:  "cpu",
		statuses: make(map[Artifact]types.ArtifactStatus),
	}

	paths := map[Artifact]string{
		ArtifactSegmenter:  filepath.Join(cfg.ModelsDir, config.SegmenterFile),
		ArtifactBackbone:   filepath.Join(cfg.ModelsDir, config.BackboneFile),
		ArtifactDecoder:    filepath.Join(cfg.ModelsDir, config.DecoderFile),
		ArtifactVocabulary: filepath.Join(cfg.ModelsDir, config.VocabularyFile),
		ArtifactUpscaler:   filepath.Join(cfg.ModelsDir, config.UpscalerFile),
	}
	for artifact, path := range paths {
		m.statuses[artifact] = types.ArtifactStatus{Path: path, Exists: fileExists(path)}
	}

	if cfg.OnnxLibPath != "" {
		ort.SetSharedLibraryPath(cfg.OnnxLibPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			m.logger.Error("onnx runtime unavailable, all local models disabled", zap.Error(err))
			m.loadVocabulary(paths[ArtifactVocabulary])
			m.recordRuntimeFailure(err)
			return m
		}
	}
	m.runtimeOK = true

	m.loadVocabulary(paths[ArtifactVocabulary])
	m.loadSegmenter(paths[ArtifactSegmenter])
	m.loadBackbone(paths[ArtifactBackbone])
	m.loadDecoder(paths[ArtifactDecoder])
	m.loadUpscaler(paths[ArtifactUpscaler])

	return m
}

func (m *Manager) loadVocabulary(path string) {
	words, err := readLines(path)
	if err != nil {
		m.fail(ArtifactVocabulary, err)
		return
	}

	m.vocab = words
	m.ok(ArtifactVocabulary)
	m.logger.Info("vocabulary loaded", zap.Int("words", len(words)))
}

func (m *Manager) loadSegmenter(path string) {
	pool, err := newFixedPool(path,
		ort.NewShape(1, 3, SegmenterSize, SegmenterSize),
		ort.NewShape(1, 1, SegmenterSize, SegmenterSize),
		poolSize)
	if err != nil {
		m.fail(ArtifactSegmenter, err)
		return
	}

	m.segmenter = pool
	m.ok(ArtifactSegmenter)
	m.logger.Info("background segmenter loaded", zap.String("path", path))
}

func (m *Manager) loadBackbone(path string) {
	pool, err := newFixedPool(path,
		ort.NewShape(1, 3, BackboneSize, BackboneSize),
		ort.NewShape(1, BackboneFeatures),
		poolSize)
	if err != nil {
		m.fail(ArtifactBackbone, err)
		return
	}

	m.backbone = pool
	m.ok(ArtifactBackbone)
	m.logger.Info("caption backbone loaded", zap.String("path", path))
}

func (m *Manager) loadDecoder(path string) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		m.fail(ArtifactDecoder, err)
		return
	}
	defer opts.Destroy()

	decoder, err := newDynamicModel(path, opts)
	if err != nil {
		m.fail(ArtifactDecoder, err)
		return
	}

	m.decoder = decoder
	m.ok(ArtifactDecoder)
	m.logger.Info("caption decoder loaded", zap.String("path", path))
}

// loadUpscaler prefers the CUDA execution provider when the runtime build
// supports it, probing by attempting to append the provider and falling back
// to CPU on failure. The loaded session is verified with a tiny upsample
// before being marked available.
func (m *Manager) loadUpscaler(path string) {
	opts, backend := m.upscalerOptions()
	if opts == nil {
		m.fail(ArtifactUpscaler, fmt.Errorf("failed to create session options"))
		return
	}

	upscaler, err := newDynamicModel(path, opts)
	opts.Destroy()
	if err != nil {
		m.fail(ArtifactUpscaler, err)
		return
	}

	m.upscaler = upscaler
	m.backend = backend
	if err := m.selfTestUpscaler(); err != nil {
		m.logger.Error("upscaler self-test failed", zap.Error(err))
		upscaler.destroy()
		m.upscaler = nil
		m.fail(ArtifactUpscaler, err)
		return
	}

	m.ok(ArtifactUpscaler)
	m.logger.Info("upscaler loaded", zap.String("path", path), zap.String("backend", backend))
}

func (m *Manager) upscalerOptions() (*ort.SessionOptions, string) {
	if cudaOpts, err := ort.NewCUDAProviderOptions(); err == nil {
		opts, err := ort.NewSessionOptions()
		if err == nil {
			if err := opts.AppendExecutionProviderCUDA(cudaOpts); err == nil {
				cudaOpts.Destroy()
				return opts, "cuda"
			}
			opts.Destroy()
		}
		cudaOpts.Destroy()
		m.logger.Warn("cuda detected but not usable, falling back to cpu")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, ""
	}
	return opts, "cpu"
}

func (m *Manager) selfTestUpscaler() error {
	const testSize = 32
	input := make([]float32, 3*testSize*testSize)
	_, _, _, err := m.RunUpscaler(input, testSize, testSize)
	return err
}

// RunSegmenter executes the background segmenter on a preprocessed
// [1,3,320,320] NCHW input and returns the [320*320] foreground mask.
func (m *Manager) RunSegmenter(input []float32) ([]float32, error) {
	return m.runFixed(m.segmenter, input, "background removal model not available")
}

// RunBackbone executes the caption backbone on a preprocessed [1,3,224,224]
// NCHW input and returns the 4096-length feature vector.
func (m *Manager) RunBackbone(input []float32) ([]float32, error) {
	return m.runFixed(m.backbone, input, "caption model not available")
}

func (m *Manager) runFixed(pool chan *fixedModel, input []float32, unavailableMsg string) ([]float32, error) {
	if pool == nil {
		return nil, types.NewError(types.ErrUnavailable, unavailableMsg)
	}

	s := <-pool
	defer func() { pool <- s }()

	copy(s.input.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, types.NewError(types.ErrInternal, "model inference failed").WithCause(err)
	}

	data := s.output.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// RunDecoder produces the next-token logits for the given feature vector and
// token sequence so far.
func (m *Manager) RunDecoder(features []float32, sequence []int64) ([]float32, error) {
	if m.decoder == nil {
		return nil, types.NewError(types.ErrUnavailable, "caption model not available")
	}

	featTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(features))), features)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to create feature tensor").WithCause(err)
	}
	defer featTensor.Destroy()

	seqTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(sequence))), sequence)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to create sequence tensor").WithCause(err)
	}
	defer seqTensor.Destroy()

	out, err := m.decoder.run([]ort.Value{featTensor, seqTensor})
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "decoder inference failed").WithCause(err)
	}
	defer out.Destroy()

	data := out.GetData()
	logits := make([]float32, len(data))
	copy(logits, data)
	return logits, nil
}

// RunUpscaler executes the 4x super-resolution network on a [1,3,h,w] NCHW
// input and returns the output buffer with its spatial dimensions.
func (m *Manager) RunUpscaler(input []float32, h, w int) ([]float32, int, int, error) {
	if m.upscaler == nil {
		return nil, 0, 0, types.NewError(types.ErrUnavailable, "super-resolution model not available")
	}

	inTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), input)
	if err != nil {
		return nil, 0, 0, types.NewError(types.ErrInternal, "failed to create input tensor").WithCause(err)
	}
	defer inTensor.Destroy()

	out, err := m.upscaler.run([]ort.Value{inTensor})
	if err != nil {
		return nil, 0, 0, types.NewError(types.ErrInternal, "upscaling failed").WithCause(err)
	}
	defer out.Destroy()

	shape := out.GetShape()
	if len(shape) != 4 {
		return nil, 0, 0, types.Errorf(types.ErrInternal, "unexpected upscaler output rank %d", len(shape))
	}
	outH, outW := int(shape[2]), int(shape[3])

	data := out.GetData()
	result := make([]float32, len(data))
	copy(result, data)
	return result, outH, outW, nil
}

func (m *Manager) HasSegmenter() bool {
	return m.segmenter != nil
}

// HasCaptioner reports whether all three caption components are loaded.
func (m *Manager) HasCaptioner() bool {
	return m.backbone != nil && m.decoder != nil && len(m.vocab) > 0
}

func (m *Manager) HasUpscaler() bool {
	return m.upscaler != nil
}

func (m *Manager) Vocabulary() []string {
	return m.vocab
}

// Backend reports the execution provider selected for upscaling.
func (m *Manager) Backend() string {
	return m.backend
}

func (m *Manager) RuntimeOK() bool {
	return m.runtimeOK
}

// Status reports per-artifact load state for the model-status endpoint.
func (m *Manager) Status() map[Artifact]types.ArtifactStatus {
	out := make(map[Artifact]types.ArtifactStatus, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

// Close releases every session. No pipeline may be invoked afterwards.
func (m *Manager) Close() {
	for _, pool := range []chan *fixedModel{m.segmenter, m.backbone} {
		if pool == nil {
			continue
		}
		for i := 0; i < cap(pool); i++ {
			s := <-pool
			s.session.Destroy()
			s.input.Destroy()
			s.output.Destroy()
		}
	}
	m.segmenter = nil
	m.backbone = nil

	m.decoder.destroy()
	m.decoder = nil
	m.upscaler.destroy()
	m.upscaler = nil
}

func (m *Manager) ok(artifact Artifact) {
	status := m.statuses[artifact]
	status.Loaded = true
	m.statuses[artifact] = status
}

func (m *Manager) fail(artifact Artifact, err error) {
	m.logger.Warn("artifact unavailable", zap.String("artifact", string(artifact)), zap.Error(err))
	status := m.statuses[artifact]
	status.Loaded = false
	status.Error = err.Error()
	m.statuses[artifact] = status
}

func (m *Manager) recordRuntimeFailure(err error) {
	for artifact := range m.statuses {
		if artifact == ArtifactVocabulary {
			// Vocabulary is a plain text file; still load it for status
			// accuracy even without the runtime.
			continue
		}
		m.fail(artifact, fmt.Errorf("onnx runtime not initialized: %w", err))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, l := range strings.Split(string(b), "\n") {
		lines = append(lines, strings.TrimSpace(l))
	}
	// Trim trailing blank lines so ids stay aligned with line numbers.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
