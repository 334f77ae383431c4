package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/internal/ai"
	"corelab/internal/commands"
	"corelab/internal/events"
	"corelab/internal/registry"
	"corelab/internal/rpc"
	"corelab/internal/testutils"
	"corelab/pkg/coretypes"
)

func newEventServer(t *testing.T) (*commands.Core, *httptest.Server) {
	t.Helper()
	core := commands.New(commands.Deps{
		Store:    testutils.NewStore(t),
		Bus:      events.NewBus(),
		Registry: registry.NewRegistry(),
		Provider: ai.NewMockProvider(),
	})
	srv, err := rpc.NewServer(core)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return core, ts
}

func TestFetchEventLog(t *testing.T) {
	core, ts := newEventServer(t)
	ctx := context.Background()
	_, err := core.CreatePerson(ctx, "Ada", nil)
	require.NoError(t, err)
	_, err = core.CreatePerson(ctx, "Grace", nil)
	require.NoError(t, err)

	evts, err := fetchEventLog(ctx, ts.URL+"/", 1)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, coretypes.PersonCreated, evts[0].Type)
	assert.Equal(t, "Grace", evts[0].Data["name"])
	assert.Equal(t, commands.EventSource, evts[0].Source)
}

func TestFetchEventLog_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"kind":"ValidationError","message":"bad limit"}`))
	}))
	defer ts.Close()

	_, err := fetchEventLog(context.Background(), ts.URL, 5)
	var ce *commands.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, coretypes.KindValidation, ce.Kind)

	closed := httptest.NewServer(http.NotFoundHandler())
	addr := closed.URL
	closed.Close()
	_, err = fetchEventLog(context.Background(), addr, 5)
	assert.ErrorContains(t, err, "no corelab server reachable")
}

func TestCLI_EventsFromServer(t *testing.T) {
	core, ts := newEventServer(t)
	_, err := core.CreatePerson(context.Background(), "Ada", nil)
	require.NoError(t, err)

	var evts []coretypes.Event
	require.NoError(t, json.Unmarshal([]byte(runCLI(t, "events", "--server", ts.URL, "-o", "json")), &evts))
	require.Len(t, evts, 1)
	assert.Equal(t, coretypes.PersonCreated.Key(), evts[0].Key())
}
