package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/thinkgear/internal/core"
)

type mockReporter struct {
	name     string
	initErr  error
	options  map[string]any
	reported []*core.Reading
}

func (m *mockReporter) Name() string { return m.name }

func (m *mockReporter) Init(cfg map[string]any) error {
	m.options = cfg
	return m.initErr
}

func (m *mockReporter) Start(ctx context.Context) error { return nil }
func (m *mockReporter) Stop(ctx context.Context) error  { return nil }
func (m *mockReporter) Flush(ctx context.Context) error { return nil }

func (m *mockReporter) Report(ctx context.Context, r *core.Reading) error {
	m.reported = append(m.reported, r)
	return nil
}

// resetReporters gives the test an empty reporter registry and restores the
// previous one afterwards.
func resetReporters(t *testing.T) {
	t.Helper()
	saved := reporterReg
	reporterReg = newRegistry[ReporterFactory]("reporter")
	t.Cleanup(func() { reporterReg = saved })
}

func TestRegisterAndGetReporter(t *testing.T) {
	resetReporters(t)

	RegisterReporter("test_rep", func() Reporter { return &mockReporter{name: "test_rep"} })

	factory, err := GetReporterFactory("test_rep")
	require.NoError(t, err)
	assert.Equal(t, "test_rep", factory().Name())
}

func TestGetReporterNotFound(t *testing.T) {
	resetReporters(t)

	_, err := GetReporterFactory("nonexistent")
	assert.ErrorIs(t, err, core.ErrUnknownReporter)

	_, err = NewReporter("nonexistent", nil)
	assert.ErrorIs(t, err, core.ErrUnknownReporter)
}

func TestRegisterPanics(t *testing.T) {
	resetReporters(t)
	RegisterReporter("dup", func() Reporter { return &mockReporter{name: "dup"} })

	assert.Panics(t, func() {
		RegisterReporter("dup", func() Reporter { return &mockReporter{name: "dup"} })
	}, "duplicate name")
	assert.Panics(t, func() {
		RegisterReporter("", func() Reporter { return &mockReporter{} })
	}, "empty name")
	assert.Panics(t, func() { RegisterReporter("nil", nil) }, "nil factory")
}

func TestListReporters(t *testing.T) {
	resetReporters(t)
	assert.Empty(t, ListReporters())

	for _, name := range []string{"rep_c", "rep_a", "rep_b"} {
		RegisterReporter(name, func() Reporter { return &mockReporter{name: name} })
	}
	assert.Equal(t, []string{"rep_a", "rep_b", "rep_c"}, ListReporters())
}

func TestNewReporter(t *testing.T) {
	resetReporters(t)
	initErr := errors.New("bad option")

	RegisterReporter("ok", func() Reporter { return &mockReporter{name: "ok"} })
	RegisterReporter("broken", func() Reporter { return &mockReporter{name: "broken", initErr: initErr} })

	r, err := NewReporter("ok", map[string]any{"format": "json"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"format": "json"}, r.(*mockReporter).options)

	_, err = NewReporter("broken", nil)
	assert.ErrorIs(t, err, initErr)
}
