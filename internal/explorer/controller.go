package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

// Backend is the analytics API the controller drives.
type Backend interface {
	ListDatasets(ctx context.Context, token string) ([]types.Dataset, error)
	GetFields(ctx context.Context, token, datasetID string) (types.FieldCatalog, error)
	Query(ctx context.Context, token string, req types.QueryRequest) (types.QueryResponse, error)
}

// Options tunes a Controller. Zero values fall back to defaults.
type Options struct {
	Limit    int
	MaxLimit int
	Messages Messages
	Now      func() time.Time
}

// View is an immutable snapshot of controller state.
type View struct {
	Version        uint64              `json:"version"`
	Token          string              `json:"token"`
	State          State               `json:"state"`
	Datasets       []types.Dataset     `json:"datasets"`
	DatasetsMock   bool                `json:"datasets_mock"`
	Fields         *types.FieldCatalog `json:"fields"`
	FieldsMock     bool                `json:"fields_mock"`
	Rows           []types.Row         `json:"rows"`
	Loading        bool                `json:"loading"`
	PageError      string              `json:"page_error"`
	RunError       string              `json:"run_error"`
	StaleDimension bool                `json:"stale_dimension"`
	StaleMeasure   bool                `json:"stale_measure"`
	Limit          int                 `json:"limit"`
}

// autoRunKey captures every input whose change re-triggers a query.
type autoRunKey struct {
	token     string
	fieldsRev uint64
	fieldsSet bool
	datasetID string
	dimension string
	measure   string
}

// Controller owns one exploration session: the selection, the dependent
// dataset and field loads, and the query runs. Results of superseded loads
// and runs are dropped.
type Controller struct {
	backend  Backend
	maxLimit int
	msgs     Messages

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	limit        int
	token        string
	state        State
	datasets     []types.Dataset
	datasetsMock bool
	fields       *types.FieldCatalog
	fieldsMock   bool
	fieldsRev    uint64
	rows         []types.Row
	loading      bool
	pageErr      string
	runErr       string
	version      uint64

	datasetsGen uint64
	fieldsGen   uint64
	runSeq      uint64
	lastKey     autoRunKey

	notifyMu     sync.Mutex
	listeners    map[int]func(View)
	nextListener int
}

// New returns a Controller with the initial selection. It does nothing until
// a token is set.
func New(backend Backend, opts Options) *Controller {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 5000
	}
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	if opts.Limit > opts.MaxLimit {
		opts.Limit = opts.MaxLimit
	}
	if opts.Messages.QueryFailed == "" {
		opts.Messages = MessagesFor("en")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:   backend,
		limit:     opts.Limit,
		maxLimit:  opts.MaxLimit,
		msgs:      opts.Messages,
		ctx:       ctx,
		cancel:    cancel,
		state:     NewState(opts.Now()),
		rows:      []types.Row{},
		listeners: make(map[int]func(View)),
	}
	c.lastKey = c.keyLocked()
	return c
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// OnChange registers fn to receive a snapshot after every change. The
// returned func unregisters it. fn runs synchronously and must not call back
// into the Controller.
func (c *Controller) OnChange(fn func(View)) func() {
	c.notifyMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.notifyMu.Unlock()
	return func() {
		c.notifyMu.Lock()
		delete(c.listeners, id)
		c.notifyMu.Unlock()
	}
}

// SetToken switches the share token and reloads the dataset list. Fields are
// reloaded too when a dataset is already selected. An empty token stops all
// loading.
func (c *Controller) SetToken(token string) {
	token = strings.TrimSpace(token)

	c.mu.Lock()
	if token == c.token {
		c.mu.Unlock()
		return
	}
	c.token = token
	c.datasetsGen++
	c.fieldsGen++
	if token != "" {
		c.pageErr = ""
		c.startDatasetsLocked()
		if c.state.DatasetID != "" {
			c.startFieldsLocked()
		}
	}
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// SelectDataset switches dataset, clearing dimension, measure and the field
// catalog in one step before the new catalog loads.
func (c *Controller) SelectDataset(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.NewError(types.CodeValidation, "dataset id is required", nil)
	}

	c.mu.Lock()
	if c.datasets != nil && !containsDataset(c.datasets, id) {
		c.mu.Unlock()
		return types.NewError(types.CodeInvalidSelection, fmt.Sprintf("unknown dataset %q", id), nil)
	}
	if id == c.state.DatasetID {
		c.mu.Unlock()
		return nil
	}
	c.state.DatasetID = id
	c.state.Dimension = ""
	c.state.Measure = ""
	c.fieldsGen++
	if c.token != "" {
		c.startFieldsLocked()
	} else {
		c.clearFieldsLocked()
	}
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetDimension selects a dimension from the loaded catalog.
func (c *Controller) SetDimension(name string) error {
	return c.setField(name, func(f *types.FieldCatalog) bool { return f.HasDimension(name) }, func(s *State) *string { return &s.Dimension }, "dimension")
}

// SetMeasure selects a measure from the loaded catalog.
func (c *Controller) SetMeasure(name string) error {
	return c.setField(name, func(f *types.FieldCatalog) bool { return f.HasMeasure(name) }, func(s *State) *string { return &s.Measure }, "measure")
}

func (c *Controller) setField(name string, known func(*types.FieldCatalog) bool, slot func(*State) *string, kind string) error {
	if name == "" {
		return types.NewError(types.CodeValidation, kind+" is required", nil)
	}

	c.mu.Lock()
	if c.fields == nil {
		c.mu.Unlock()
		return types.NewError(types.CodeInvalidSelection, "fields are not loaded yet", nil)
	}
	if !known(c.fields) {
		c.mu.Unlock()
		return types.NewError(types.CodeInvalidSelection, fmt.Sprintf("unknown %s %q", kind, name), nil)
	}
	p := slot(&c.state)
	if *p == name {
		c.mu.Unlock()
		return nil
	}
	*p = name
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetDateRange updates the query window. It never triggers a run.
func (c *Controller) SetDateRange(from, to string) error {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return types.NewError(types.CodeValidation, "date_from must be YYYY-MM-DD", err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return types.NewError(types.CodeValidation, "date_to must be YYYY-MM-DD", err)
	}
	if f.After(t) {
		return types.NewError(types.CodeValidation, "date_from must not be after date_to", nil)
	}

	c.mu.Lock()
	c.state.DateFrom = from
	c.state.DateTo = to
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetPlatform sets the optional platform filter. It never triggers a run.
func (c *Controller) SetPlatform(platform string) {
	c.mu.Lock()
	c.state.Platform = strings.TrimSpace(platform)
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// SetLimit changes the row limit sent with the next run. Like the date range
// it does not re-run on its own.
func (c *Controller) SetLimit(n int) error {
	if n < 1 || n > c.maxLimit {
		return types.NewError(types.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", c.maxLimit), nil)
	}
	c.mu.Lock()
	c.limit = n
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetChartType changes presentation only. It never triggers a run.
func (c *Controller) SetChartType(ct types.ChartType) error {
	if _, err := types.ParseChartType(string(ct)); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.ChartType = ct
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// Run executes the query for the current selection and waits for it. A
// missing selection sets the run error and returns a validation error
// without contacting the backend. Backend failures are reported through the
// view, not the returned error.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return types.NewError(types.CodeValidation, "no share token", nil)
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return c.ctx.Err()
	}
	seq, token, req, err := c.beginRunLocked()
	if err == nil {
		c.wg.Add(1)
	}
	c.version++
	c.mu.Unlock()
	c.notify()
	if err != nil {
		return err
	}

	defer c.wg.Done()
	c.executeRun(ctx, seq, token, req)
	return nil
}

// Wait blocks until every in-flight load and run has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work and waits for it to finish. Work is only
// started under mu while the context is live, so no new goroutine is added
// once the cancel below is visible.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) beginRunLocked() (uint64, string, types.QueryRequest, error) {
	c.runErr = ""
	if !c.state.Ready() {
		c.runErr = c.msgs.ValidationFailed
		return 0, "", types.QueryRequest{}, types.NewError(types.CodeValidation, c.msgs.ValidationFailed, nil)
	}
	c.runSeq++
	c.loading = true
	return c.runSeq, c.token, c.state.QueryRequest(c.limit), nil
}

func (c *Controller) executeRun(ctx context.Context, seq uint64, token string, req types.QueryRequest) {
	resp, err := c.backend.Query(ctx, token, req)

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if seq != c.runSeq {
		latest := c.runSeq
		c.mu.Unlock()
		slog.Debug("discarding superseded query result", "seq", seq, "latest", latest)
		return
	}
	if err != nil {
		slog.Warn("query failed", "dataset_id", req.DatasetID, "dimension", req.Dimension, "measure", req.Measure, "error", err)
		c.rows = []types.Row{}
		c.runErr = c.msgs.QueryFailed
	} else {
		rows := resp.Rows
		if rows == nil {
			rows = []types.Row{}
		}
		c.rows = rows
		c.runErr = ""
		slog.Debug("query applied", "dataset_id", req.DatasetID, "rows", len(rows))
	}
	c.loading = false
	c.version++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) startDatasetsLocked() {
	if c.ctx.Err() != nil {
		return
	}
	gen, token := c.datasetsGen, c.token
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		list, err := c.backend.ListDatasets(c.ctx, token)
		c.applyDatasets(gen, list, err)
	}()
}

func (c *Controller) applyDatasets(gen uint64, list []types.Dataset, err error) {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if gen != c.datasetsGen {
		latest := c.datasetsGen
		c.mu.Unlock()
		slog.Debug("discarding stale dataset list", "gen", gen, "latest", latest)
		return
	}
	if err != nil {
		slog.Warn("dataset list unavailable, using mock datasets", "error", err)
	}
	list, mock := FallbackDatasets(list, err)
	c.datasets = list
	c.datasetsMock = mock
	c.pageErr = ""
	if c.state.DatasetID == "" && len(list) > 0 {
		c.state.DatasetID = list[0].ID
		c.fieldsGen++
		c.startFieldsLocked()
	}
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) startFieldsLocked() {
	c.clearFieldsLocked()
	if c.ctx.Err() != nil {
		return
	}
	gen, token, datasetID := c.fieldsGen, c.token, c.state.DatasetID
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f, err := c.backend.GetFields(c.ctx, token, datasetID)
		c.applyFields(gen, datasetID, f, err)
	}()
}

func (c *Controller) clearFieldsLocked() {
	if c.fields != nil {
		c.fieldsRev++
	}
	c.fields = nil
	c.fieldsMock = false
}

func (c *Controller) applyFields(gen uint64, datasetID string, f types.FieldCatalog, err error) {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if gen != c.fieldsGen {
		latest := c.fieldsGen
		c.mu.Unlock()
		slog.Debug("discarding stale field catalog", "dataset_id", datasetID, "gen", gen, "latest", latest)
		return
	}
	if err != nil {
		slog.Warn("field catalog unavailable, using mock fields", "dataset_id", datasetID, "error", err)
	}
	f, mock := FallbackFields(f, err)
	c.fields = &f
	c.fieldsMock = mock
	c.fieldsRev++
	c.pageErr = ""
	c.state = applyFieldDefaults(c.state, f)
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// afterChangeLocked bumps the version and starts an automatic run when the
// trigger inputs changed and the selection is complete.
func (c *Controller) afterChangeLocked() {
	c.version++
	key := c.keyLocked()
	if key == c.lastKey {
		return
	}
	c.lastKey = key
	if !shouldAutoRun(key) || c.ctx.Err() != nil {
		return
	}
	seq, token, req, err := c.beginRunLocked()
	if err != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.executeRun(c.ctx, seq, token, req)
	}()
}

func (c *Controller) keyLocked() autoRunKey {
	return autoRunKey{
		token:     c.token,
		fieldsRev: c.fieldsRev,
		fieldsSet: c.fields != nil,
		datasetID: c.state.DatasetID,
		dimension: c.state.Dimension,
		measure:   c.state.Measure,
	}
}

// shouldAutoRun holds once a token and catalog are present and the three
// required selections are made.
func shouldAutoRun(k autoRunKey) bool {
	return k.token != "" && k.fieldsSet && k.datasetID != "" && k.dimension != "" && k.measure != ""
}

func (c *Controller) viewLocked() View {
	v := View{
		Version:      c.version,
		Token:        c.token,
		State:        c.state,
		DatasetsMock: c.datasetsMock,
		FieldsMock:   c.fieldsMock,
		Loading:      c.loading,
		PageError:    c.pageErr,
		Limit:        c.limit,
		RunError:     c.runErr,
	}
	if c.datasets != nil {
		v.Datasets = append([]types.Dataset{}, c.datasets...)
	}
	if c.fields != nil {
		f := types.FieldCatalog{
			Dimensions: append([]string{}, c.fields.Dimensions...),
			Measures:   append([]string{}, c.fields.Measures...),
		}
		v.Fields = &f
		v.StaleDimension = c.state.Dimension != "" && !f.HasDimension(c.state.Dimension)
		v.StaleMeasure = c.state.Measure != "" && !f.HasMeasure(c.state.Measure)
	}
	v.Rows = append([]types.Row{}, c.rows...)
	return v
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if len(c.listeners) == 0 {
		return
	}
	v := c.View()
	for _, fn := range c.listeners {
		fn(v)
	}
}

func containsDataset(list []types.Dataset, id string) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}
