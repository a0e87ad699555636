package provider

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// mockWriter records the bars it is given.
type mockWriter struct {
	initialized       bool
	initializeErr     error
	writeErr          error
	writeErrAfterN    int
	finalizeErr       error
	outputPath        string
	writtenData       []types.MarketData
	writeCallCount    int
	finalizeCallCount int
}

func (m *mockWriter) Initialize() error {
	if m.initializeErr != nil {
		return m.initializeErr
	}

	m.initialized = true

	return nil
}

func (m *mockWriter) Write(data types.MarketData) error {
	m.writeCallCount++
	if m.writeErr != nil && m.writeCallCount > m.writeErrAfterN {
		return m.writeErr
	}

	m.writtenData = append(m.writtenData, data)

	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	m.finalizeCallCount++
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}

	return m.outputPath, nil
}

func (m *mockWriter) Close() error { return nil }

func (m *mockWriter) GetOutputPath() string { return m.outputPath }
