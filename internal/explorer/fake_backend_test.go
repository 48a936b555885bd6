package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

var errBackendDown = errors.New("backend down")

// fakeBackend records calls and answers from per-test funcs. A nil func
// answers with errBackendDown.
type fakeBackend struct {
	mu sync.Mutex

	datasetsFn func(ctx context.Context, token string) ([]types.Dataset, error)
	fieldsFn   func(ctx context.Context, token, datasetID string) (types.FieldCatalog, error)
	queryFn    func(ctx context.Context, token string, req types.QueryRequest) (types.QueryResponse, error)

	datasetCalls []string
	fieldCalls   []string
	queries      []types.QueryRequest
}

func (f *fakeBackend) ListDatasets(ctx context.Context, token string) ([]types.Dataset, error) {
	f.mu.Lock()
	f.datasetCalls = append(f.datasetCalls, token)
	fn := f.datasetsFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errBackendDown
	}
	return fn(ctx, token)
}

func (f *fakeBackend) GetFields(ctx context.Context, token, datasetID string) (types.FieldCatalog, error) {
	f.mu.Lock()
	f.fieldCalls = append(f.fieldCalls, datasetID)
	fn := f.fieldsFn
	f.mu.Unlock()
	if fn == nil {
		return types.FieldCatalog{}, errBackendDown
	}
	return fn(ctx, token, datasetID)
}

func (f *fakeBackend) Query(ctx context.Context, token string, req types.QueryRequest) (types.QueryResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req)
	fn := f.queryFn
	f.mu.Unlock()
	if fn == nil {
		return types.QueryResponse{}, errBackendDown
	}
	return fn(ctx, token, req)
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeBackend) lastQuery() types.QueryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeBackend) fieldCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fieldCalls)
}

func datasetsOf(list ...types.Dataset) func(context.Context, string) ([]types.Dataset, error) {
	return func(context.Context, string) ([]types.Dataset, error) { return list, nil }
}

func fieldsOf(f types.FieldCatalog) func(context.Context, string, string) (types.FieldCatalog, error) {
	return func(context.Context, string, string) (types.FieldCatalog, error) { return f, nil }
}

func rowsOf(rows ...types.Row) func(context.Context, string, types.QueryRequest) (types.QueryResponse, error) {
	return func(context.Context, string, types.QueryRequest) (types.QueryResponse, error) {
		return types.QueryResponse{Rows: rows}, nil
	}
}

var fixedNow = time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

func newTestController(b Backend) *Controller {
	return New(b, Options{Now: func() time.Time { return fixedNow }})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
