package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// fixedModel wraps a session with preallocated input/output tensors. Sessions
// are pooled through a buffered channel so concurrent requests never share a
// tensor.
type fixedModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// dynamicModel wraps a session whose input shapes vary per call.
type dynamicModel struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

func newFixedPool(path string, inShape, outShape ort.Shape, count int) (chan *fixedModel, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model has no declared inputs or outputs")
	}

	inLen := elementCount(inShape)
	pool := make(chan *fixedModel, count)
	for i := 0; i < count; i++ {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}

		inputTensor, err := ort.NewTensor(inShape, make([]float32, inLen))
		if err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("failed to create input tensor: %w", err)
		}
		outputTensor, err := ort.NewEmptyTensor[float32](outShape)
		if err != nil {
			inputTensor.Destroy()
			opts.Destroy()
			return nil, fmt.Errorf("failed to create output tensor: %w", err)
		}

		session, err := ort.NewAdvancedSession(
			path,
			[]string{inputs[0].Name},
			[]string{outputs[0].Name},
			[]ort.Value{inputTensor},
			[]ort.Value{outputTensor},
			opts,
		)
		opts.Destroy()
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		pool <- &fixedModel{session: session, input: inputTensor, output: outputTensor}
	}

	return pool, nil
}

func newDynamicModel(path string, opts *ort.SessionOptions) (*dynamicModel, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model has no declared inputs or outputs")
	}

	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	outputNames := make([]string, len(outputs))
	for i, out := range outputs {
		outputNames[i] = out.Name
	}

	session, err := ort.NewDynamicAdvancedSession(path, inputNames, outputNames, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &dynamicModel{session: session, inputs: inputNames, outputs: outputNames}, nil
}

func (d *dynamicModel) run(inputs []ort.Value) (*ort.Tensor[float32], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	outputs := []ort.Value{nil}
	if err := d.session.Run(inputs, outputs); err != nil {
		return nil, err
	}

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	return tensor, nil
}

func (d *dynamicModel) destroy() {
	if d == nil || d.session == nil {
		return
	}
	d.session.Destroy()
}

func elementCount(shape ort.Shape) int {
	n := 1
	for _, dim := range shape {
		n *= int(dim)
	}
	return n
}
