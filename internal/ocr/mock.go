package ocr

import (
	"context"
	"sync/atomic"
)

const MockEngineName = "mock"

// MockEngine is an Engine for testing. Results are scripted per rotation
// hint so rotation-correction behavior can be exercised deterministically.
type MockEngine struct {
	// ResultsByRotation maps a rotation hint to the result returned for
	// inputs carrying that hint. Hints without an entry fall back to
	// Default.
	ResultsByRotation map[int]Result

	// Default is returned when no scripted result matches.
	Default Result

	// Err, when set, is returned by every call.
	Err error

	calls atomic.Int64
}

// NewMockEngine creates a mock with an empty script.
func NewMockEngine() *MockEngine {
	return &MockEngine{ResultsByRotation: make(map[int]Result)}
}

func (e *MockEngine) Name() string { return MockEngineName }

// Recognize returns the scripted result for the input's rotation hint.
func (e *MockEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	e.calls.Add(1)
	if e.Err != nil {
		return Result{}, e.Err
	}
	if res, ok := e.ResultsByRotation[in.RotationHint]; ok {
		return res, nil
	}
	return e.Default, nil
}

// Calls reports how many recognitions were attempted.
func (e *MockEngine) Calls() int {
	return int(e.calls.Load())
}
