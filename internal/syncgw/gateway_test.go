package syncgw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/pubsub"
	"github.com/jinhealth/reconcile/internal/registry"
)

// fakeBackend serves the contract from memory over HTTP.
type fakeBackend struct {
	mu       sync.Mutex
	names    []string
	maps     []api.MapRow
	excludes []string
	status   string
	fail     string // path that answers 500
	synced   []api.SyncRequest
	ids      []string
	block    chan struct{}
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, r *http.Request, v any) {
		f.mu.Lock()
		f.ids = append(f.ids, r.Header.Get(RequestIDHeader))
		fail := f.fail == r.URL.Path
		f.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET "+api.PathCompanyList, func(w http.ResponseWriter, r *http.Request) { reply(w, r, f.names) })
	mux.HandleFunc("GET "+api.PathCompanyMap, func(w http.ResponseWriter, r *http.Request) { reply(w, r, f.maps) })
	mux.HandleFunc("GET "+api.PathCompanyExclude, func(w http.ResponseWriter, r *http.Request) { reply(w, r, f.excludes) })
	mux.HandleFunc("POST "+api.PathSync, func(w http.ResponseWriter, r *http.Request) {
		if f.block != nil {
			<-f.block
		}
		var req api.SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.synced = append(f.synced, req)
		status := f.status
		f.mu.Unlock()
		reply(w, r, api.SyncResponse{Status: status, Maps: len(req.Maps), Excludes: len(req.Excludes)})
	})
	return mux
}

func setup(t *testing.T, f *fakeBackend) (*Gateway, *editor.Editor, *registry.Registry) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL+"/", WithTimeout(2*time.Second))
	require.NoError(t, err)

	reg := registry.New(registry.Strict())
	ed := editor.New(reg)
	gw := New(client, ed)
	t.Cleanup(gw.Close)
	return gw, ed, reg
}

func seeded() *fakeBackend {
	return &fakeBackend{
		names:    []string{"A Corp", "A Co.", "B Inc", "Noise"},
		maps:     []api.MapRow{{OriginalName: "A Corp", StandardName: "Alpha"}, {OriginalName: "A Co.", StandardName: "Alpha"}},
		excludes: []string{"Noise"},
		status:   api.StatusSynced,
	}
}

func TestGateway_LoadReconstructs(t *testing.T) {
	f := seeded()
	gw, ed, reg := setup(t, f)

	require.NoError(t, gw.Load(context.Background()))

	require.Equal(t, []string{"B Inc"}, ed.Unclassified())
	g, ok := reg.Group("Alpha")
	require.True(t, ok)
	require.Equal(t, []string{"A Corp", "A Co."}, g.Members)
	require.Equal(t, []registry.ExcludedEntry{{Name: "Noise", Raw: true}}, ed.Excluded())
	require.False(t, ed.Dirty())

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.ids, 3)
	for _, id := range f.ids {
		require.Len(t, id, 36, "every request carries a uuid request id")
	}
}

func TestGateway_LoadIsAllOrNothing(t *testing.T) {
	f := seeded()
	f.fail = api.PathCompanyExclude
	gw, ed, reg := setup(t, f)
	reg.Add("local")
	ed.Exclude("local")

	err := gw.Load(context.Background())
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Contains(t, err.Error(), "loading exclusions")

	require.Equal(t, []string{"local"}, reg.Names(), "failed load leaves the model alone")
	require.True(t, ed.Dirty())
}

func TestGateway_SaveFlattensAndClearsDirty(t *testing.T) {
	f := seeded()
	gw, ed, _ := setup(t, f)
	require.NoError(t, gw.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := gw.Events().Subscribe(ctx)

	require.True(t, ed.Merge("B Inc", "Alpha"))
	require.True(t, ed.Exclude("Alpha"))
	require.NoError(t, gw.Save(context.Background()))
	require.False(t, ed.Dirty())
	require.Empty(t, ed.PendingChanges())

	f.mu.Lock()
	require.Len(t, f.synced, 1)
	require.Equal(t, api.SyncRequest{
		Maps: []api.MapRow{
			{OriginalName: "A Corp", StandardName: "Alpha"},
			{OriginalName: "A Co.", StandardName: "Alpha"},
			{OriginalName: "B Inc", StandardName: "Alpha"},
		},
		Excludes: []string{"Noise", "Alpha"},
	}, f.synced[0])
	f.mu.Unlock()

	select {
	case ev := <-events:
		require.Equal(t, pubsub.KindSynced, ev.Kind)
		require.Equal(t, Event{Maps: 3, Excludes: 2, Clean: true}, ev.Data)
	case <-time.After(time.Second):
		require.FailNow(t, "no synced event")
	}
}

func TestGateway_SaveRejectedKeepsDirty(t *testing.T) {
	f := seeded()
	f.status = "error"
	gw, ed, _ := setup(t, f)
	require.NoError(t, gw.Load(context.Background()))
	ed.Exclude("B Inc")
	before := ed.Payload()

	err := gw.Save(context.Background())
	require.ErrorIs(t, err, ErrSyncRejected)
	require.True(t, ed.Dirty())
	require.Equal(t, before, ed.Payload())
	require.NotEmpty(t, ed.PendingChanges())
}

func TestGateway_SaveNetworkErrorKeepsDirty(t *testing.T) {
	f := seeded()
	gw, ed, _ := setup(t, f)
	require.NoError(t, gw.Load(context.Background()))
	ed.Exclude("B Inc")

	f.mu.Lock()
	f.fail = api.PathSync
	f.mu.Unlock()

	err := gw.Save(context.Background())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.True(t, ed.Dirty())
}

func TestGateway_PushRefusesOverlap(t *testing.T) {
	f := seeded()
	f.block = make(chan struct{})
	gw, _, _ := setup(t, f)

	first := make(chan error, 1)
	go func() {
		_, err := gw.Push(context.Background(), gw.Prepare())
		first <- err
	}()
	require.Eventually(t, gw.Saving, time.Second, 5*time.Millisecond)

	_, err := gw.Push(context.Background(), gw.Prepare())
	require.ErrorIs(t, err, ErrSaveInFlight)

	close(f.block)
	require.NoError(t, <-first)
	require.False(t, gw.Saving())
}

func TestGateway_CommitAfterLaterEditStaysDirty(t *testing.T) {
	f := seeded()
	gw, ed, _ := setup(t, f)
	require.NoError(t, gw.Load(context.Background()))

	ed.Exclude("B Inc")
	p := gw.Prepare()
	_, err := gw.Push(context.Background(), p)
	require.NoError(t, err)

	ed.Restore("B Inc")
	require.False(t, gw.Commit(p))
	require.True(t, ed.Dirty())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.CompanyList(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:8000")
	require.Error(t, err)
	_, err = NewClient("/api")
	require.Error(t, err)
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{Method: "POST", Path: api.PathSync, Status: 422, Body: "bad row"}
	require.Equal(t, "POST /api/config/sync: status 422: bad row", err.Error())
	err.Body = ""
	require.Equal(t, "POST /api/config/sync: status 422", err.Error())
}
