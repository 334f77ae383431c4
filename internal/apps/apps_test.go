package apps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/internal/events"
	"corelab/internal/registry"
	"corelab/pkg/coretypes"
)

type fakeApp struct {
	id       string
	startErr error
	started  int
	stopped  int
	order    *[]string
}

func (f *fakeApp) Info() coretypes.AppInfo {
	return coretypes.AppInfo{ID: f.id, Name: f.id, Version: "1.0.0"}
}

func (f *fakeApp) Start(*events.Bus) error {
	f.started++
	return f.startErr
}

func (f *fakeApp) Stop(*events.Bus) {
	f.stopped++
	if f.order != nil {
		*f.order = append(*f.order, f.id)
	}
}

func TestStartAll(t *testing.T) {
	reg := registry.NewRegistry()
	bus := events.NewBus()
	a, b := &fakeApp{id: "a"}, &fakeApp{id: "b"}

	require.NoError(t, StartAll(reg, bus, a, b))

	assert.Equal(t, 1, a.started)
	assert.Equal(t, 1, b.started)
	assert.Len(t, reg.List(), 2)
}

func TestStartAll_DuplicateStopsStartup(t *testing.T) {
	reg := registry.NewRegistry()
	bus := events.NewBus()
	first, dup := &fakeApp{id: "same"}, &fakeApp{id: "same"}

	err := StartAll(reg, bus, first, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, coretypes.ErrDuplicate)
	assert.Equal(t, 0, dup.started)
	assert.Len(t, reg.List(), 1)
}

func TestStartAll_StartFailureUnregisters(t *testing.T) {
	reg := registry.NewRegistry()
	bus := events.NewBus()
	broken := &fakeApp{id: "broken", startErr: errors.New("no")}

	err := StartAll(reg, bus, broken)
	require.Error(t, err)
	_, ok := reg.Get("broken")
	assert.False(t, ok)
}

func TestStopAll_ReverseOrder(t *testing.T) {
	reg := registry.NewRegistry()
	bus := events.NewBus()
	var order []string
	a, b := &fakeApp{id: "a", order: &order}, &fakeApp{id: "b", order: &order}
	require.NoError(t, StartAll(reg, bus, a, b))

	StopAll(reg, bus, a, b)

	assert.Equal(t, []string{"b", "a"}, order)
	assert.Empty(t, reg.List())
}
