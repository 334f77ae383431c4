package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/internal/ai"
	"corelab/internal/apps"
	"corelab/internal/commands"
	"corelab/internal/events"
	"corelab/internal/registry"
	"corelab/internal/testutils"
	"corelab/internal/version"
	"corelab/pkg/coretypes"
)

type fixture struct {
	core *commands.Core
	app  *App
	bus  *events.Bus
	reg  *registry.Registry
}

func newFixture(t *testing.T, provider coretypes.AIProvider) fixture {
	t.Helper()
	st := testutils.NewStore(t)
	bus := events.NewBus()
	reg := registry.NewRegistry()
	app := New(st, provider, 0)
	require.NoError(t, apps.StartAll(reg, bus, app))

	core := commands.New(commands.Deps{Store: st, Bus: bus, Registry: reg, Provider: provider})
	return fixture{core: core, app: app, bus: bus, reg: reg}
}

func TestApp_Info(t *testing.T) {
	app := New(nil, nil, 0)
	info := app.Info()

	assert.Equal(t, AppID, info.ID)
	assert.Equal(t, "Memory", info.Name)
	assert.Equal(t, version.GetBaseVersion(), info.Version)
	assert.Equal(t, DefaultTimeout, app.timeout)
}

func TestApp_RegistersWithCoreVersion(t *testing.T) {
	f := newFixture(t, ai.NewMockProvider())

	info, err := f.reg.Require(AppID, ">= 0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Memory", info.Name)
	assert.Equal(t, 1, f.bus.SubscriberCount(coretypes.ConversationCreated.Key()))
}

func TestApp_ConversationProducesMemory(t *testing.T) {
	f := newFixture(t, ai.NewMockProvider())
	rec := testutils.RecordEvents(f.bus, coretypes.MemoryExtracted)
	ctx := context.Background()

	pid, err := f.core.CreatePerson(ctx, "Rosalind", nil)
	require.NoError(t, err)
	cid, err := f.core.CreateConversation(ctx, pid, "Talked about X-ray crystallography", nil)
	require.NoError(t, err)

	memories, err := f.core.GetMemories(ctx, pid)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "topic", memories[0].Key)
	assert.Equal(t, "Discussed in conversation", memories[0].Value)
	assert.Equal(t, 3, memories[0].Importance)

	evts := rec.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, AppID, evts[0].Source)
	assert.Equal(t, pid, evts[0].Data["person_id"])
	assert.Equal(t, cid, evts[0].Data["conversation_id"])
	assert.Equal(t, []int64{memories[0].ID}, evts[0].Data["memory_ids"])
	assert.Equal(t, 1, evts[0].Data["count"])

	// ConversationCreated is logged before MemoryExtracted.
	log := f.core.EventLog(2)
	assert.Equal(t, coretypes.MemoryExtracted, log[0].Type)
	assert.Equal(t, coretypes.ConversationCreated, log[1].Type)
}

func TestApp_ProviderFailureIsContained(t *testing.T) {
	stub := &testutils.StubProvider{
		ExtractFunc: func(context.Context, string) ([]coretypes.ExtractedMemory, error) {
			return nil, coretypes.ErrNotConfigured
		},
	}
	f := newFixture(t, stub)
	rec := testutils.RecordEvents(f.bus, coretypes.MemoryExtracted)
	ctx := context.Background()

	pid, err := f.core.CreatePerson(ctx, "Emmy", nil)
	require.NoError(t, err)
	_, err = f.core.CreateConversation(ctx, pid, "algebra", nil)
	require.NoError(t, err, "extraction failures do not fail the conversation")

	assert.Empty(t, rec.Events())
	assert.Equal(t, int32(1), stub.ExtractCalls.Load())
	memories, err := f.core.GetMemories(ctx, pid)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestApp_EmptyExtractionStillReports(t *testing.T) {
	f := newFixture(t, &testutils.StubProvider{})
	rec := testutils.RecordEvents(f.bus, coretypes.MemoryExtracted)
	ctx := context.Background()

	pid, err := f.core.CreatePerson(ctx, "Katherine", nil)
	require.NoError(t, err)
	_, err = f.core.CreateConversation(ctx, pid, "nothing notable", nil)
	require.NoError(t, err)

	evts := rec.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, 0, evts[0].Data["count"])
}

// failingStore fails every CreateMemory after the first okCreates.
type failingStore struct {
	coretypes.Store
	okCreates int
	creates   int
}

func (s *failingStore) CreateMemory(ctx context.Context, personID int64, key, value string, importance int) (int64, error) {
	s.creates++
	if s.creates > s.okCreates {
		return 0, &coretypes.StoreError{Op: "create memory", Err: errors.New("disk full")}
	}
	return s.Store.CreateMemory(ctx, personID, key, value, importance)
}

func TestApp_PartialStoreFailureReportsStoredMemories(t *testing.T) {
	st := &failingStore{Store: testutils.NewStore(t), okCreates: 1}
	stub := &testutils.StubProvider{
		ExtractFunc: func(context.Context, string) ([]coretypes.ExtractedMemory, error) {
			return []coretypes.ExtractedMemory{
				{Key: "field", Value: "radioactivity", Importance: 5, Confidence: 0.9},
				{Key: "prize", Value: "Nobel", Importance: 4, Confidence: 0.9},
			}, nil
		},
	}
	bus := events.NewBus()
	reg := registry.NewRegistry()
	require.NoError(t, apps.StartAll(reg, bus, New(st, stub, 0)))
	core := commands.New(commands.Deps{Store: st, Bus: bus, Registry: reg, Provider: stub})
	rec := testutils.RecordEvents(bus, coretypes.MemoryExtracted)
	ctx := context.Background()

	pid, err := core.CreatePerson(ctx, "Marie", nil)
	require.NoError(t, err)
	_, err = core.CreateConversation(ctx, pid, "physics and chemistry", nil)
	require.NoError(t, err)

	memories, err := core.GetMemories(ctx, pid)
	require.NoError(t, err)
	require.Len(t, memories, 1)

	evts := rec.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, 1, evts[0].Data["count"])
	assert.Equal(t, []int64{memories[0].ID}, evts[0].Data["memory_ids"])
	assert.Contains(t, evts[0].Data["error"], "disk full")
}

func TestApp_StopUnsubscribes(t *testing.T) {
	stub := &testutils.StubProvider{}
	f := newFixture(t, stub)

	apps.StopAll(f.reg, f.bus, f.app)
	assert.Equal(t, 0, f.bus.SubscriberCount(coretypes.ConversationCreated.Key()))
	_, ok := f.reg.Get(AppID)
	assert.False(t, ok)

	ctx := context.Background()
	pid, err := f.core.CreatePerson(ctx, "Ida", nil)
	require.NoError(t, err)
	_, err = f.core.CreateConversation(ctx, pid, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), stub.ExtractCalls.Load())

	f.app.Stop(f.bus)
}

func TestApp_IgnoresEventsWithoutPerson(t *testing.T) {
	stub := &testutils.StubProvider{}
	f := newFixture(t, stub)

	f.bus.Emit(coretypes.NewEvent(coretypes.ConversationCreated, "test", map[string]any{"content": "x"}))
	assert.Equal(t, int32(0), stub.ExtractCalls.Load())
}

func TestApp_ExtractAndStore(t *testing.T) {
	st := testutils.NewStore(t)
	ctx := context.Background()
	pid, err := st.CreatePerson(ctx, "Grace", nil)
	require.NoError(t, err)

	stub := &testutils.StubProvider{
		ExtractFunc: func(_ context.Context, text string) ([]coretypes.ExtractedMemory, error) {
			return []coretypes.ExtractedMemory{
				{Key: "language", Value: "COBOL", Importance: 4, Confidence: 0.9},
				{Key: "rank", Value: "rear admiral", Importance: 5, Confidence: 0.8},
			}, nil
		},
	}
	app := New(st, stub, 0)

	ids, err := app.ExtractAndStore(ctx, pid, "notes")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = app.ExtractAndStore(ctx, 999, "notes")
	assert.ErrorIs(t, err, coretypes.ErrNotFound)

	stub.ExtractFunc = func(context.Context, string) ([]coretypes.ExtractedMemory, error) {
		return nil, errors.New("boom")
	}
	_, err = app.ExtractAndStore(ctx, pid, "notes")
	assert.EqualError(t, err, "boom")
}

func TestInt64Field(t *testing.T) {
	data := map[string]any{"a": int64(1), "b": 2, "c": float64(3), "d": "4"}

	tests := []struct {
		key    string
		want   int64
		wantOK bool
	}{
		{key: "a", want: 1, wantOK: true},
		{key: "b", want: 2, wantOK: true},
		{key: "c", want: 3, wantOK: true},
		{key: "d", wantOK: false},
		{key: "missing", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := int64Field(data, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
