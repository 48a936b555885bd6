package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/explorer"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/snapshot"
	"github.com/dgnsrekt/share_explorer/internal/storage"
	"github.com/dgnsrekt/share_explorer/internal/types"
	"github.com/google/uuid"
)

const (
	minSnapshotWidth = 200
	maxSnapshotWidth = 4096
)

// Backend is the analytics API used by every session plus its health probe.
type Backend interface {
	explorer.Backend
	Health(ctx context.Context) (types.HealthStatus, error)
}

// Options tunes sessions created by the Service.
type Options struct {
	Limit       int
	MaxLimit    int
	ChartHeight int
	Palette     chart.Palette
	Messages    explorer.Messages
	Now         func() time.Time
	// History, when set, receives one record per backend query.
	History *storage.RunLog
	// IdleTimeout closes sessions that saw no request and had no live
	// subscriber for this long. Zero disables expiry.
	IdleTimeout time.Duration
}

// SessionInfo is the listing entry for one open session.
type SessionInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	TokenBadge string    `json:"token_badge,omitempty"`
}

// SessionView is a session's controller view plus the presentation derived
// from it.
type SessionView struct {
	SessionID  string        `json:"session_id"`
	View       explorer.View `json:"view"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
	TokenBadge string        `json:"token_badge,omitempty"`
	Option     chart.Option  `json:"option"`
}

// DeepHealthResult reports the service and backend status.
type DeepHealthResult struct {
	Status        string `json:"status"`
	Backend       string `json:"backend"`
	BackendDetail string `json:"backend_detail,omitempty"`
	Sessions      int    `json:"sessions"`
	Subscribers   int    `json:"subscribers"`
}

type session struct {
	id         string
	createdAt  time.Time
	ctrl       *explorer.Controller
	lastActive atomic.Int64
}

func (sess *session) touch(now time.Time) {
	sess.lastActive.Store(now.UnixNano())
}

func (sess *session) idleSince() time.Time {
	return time.Unix(0, sess.lastActive.Load())
}

// Service owns the exploration sessions and everything derived from them:
// chart options, exports and snapshots.
type Service struct {
	backend Backend
	snaps   *snapshot.Store
	relay   *relay.Relay
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*session

	done      chan struct{}
	closeOnce sync.Once
	janitor   sync.WaitGroup
}

func NewService(backend Backend, snaps *snapshot.Store, rel *relay.Relay, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 450
	}
	if opts.Messages.QueryFailed == "" {
		opts.Messages = explorer.MessagesFor("en")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		backend:  backend,
		snaps:    snaps,
		relay:    rel,
		opts:     opts,
		sessions: make(map[string]*session),
		done:     make(chan struct{}),
	}
	if opts.IdleTimeout > 0 {
		s.janitor.Add(1)
		go s.janitorLoop(sweepInterval(opts.IdleTimeout))
	}
	return s
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &types.CodedError{Code: types.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

func (s *Service) lookup(id string) (*session, error) {
	if err := s.requireNonEmpty(id, "session_id"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, ok := s.sessions[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, &types.CodedError{Code: types.CodeSessionNotFound, Message: fmt.Sprintf("session %q not found", id)}
	}
	sess.touch(s.opts.Now())
	return sess, nil
}

func (s *Service) present(sess *session) SessionView {
	v := sess.ctrl.View()
	out := SessionView{
		SessionID: sess.id,
		View:      v,
		Title:     s.opts.Messages.ChartTitles[v.State.ChartType],
		Subtitle:  s.opts.Messages.ChartSubtitle(v.State.Dimension, v.State.Measure, len(v.Rows)),
		Option:    chart.BuildWithPalette(v.State.ChartType, v.Rows, v.State.Dimension, v.State.Measure, s.opts.Palette),
	}
	if v.Token != "" {
		out.TokenBadge = explorer.TokenBadge(v.Token)
	}
	return out
}

// --- Session methods ---

// CreateSession opens a session. A non-empty token starts loading datasets
// right away; an empty one leaves the session idle until SetToken.
func (s *Service) CreateSession(ctx context.Context, token string) (SessionView, error) {
	sess := &session{
		id:        uuid.New().String(),
		createdAt: s.opts.Now().UTC(),
	}
	sess.touch(s.opts.Now())
	sess.ctrl = explorer.New(s.sessionBackend(sess.id), explorer.Options{
		Limit:    s.opts.Limit,
		MaxLimit: s.opts.MaxLimit,
		Messages: s.opts.Messages,
		Now:      s.opts.Now,
	})

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if s.relay != nil {
		s.relay.Attach(sess.id, sess.ctrl)
	}
	slog.Info("session created", "session_id", sess.id, "has_token", strings.TrimSpace(token) != "")

	sess.ctrl.SetToken(token)
	return s.present(sess), nil
}

func (s *Service) ListSessions(ctx context.Context) []SessionInfo {
	s.mu.RLock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		info := SessionInfo{ID: sess.id, CreatedAt: sess.createdAt}
		if tok := sess.ctrl.View().Token; tok != "" {
			info.TokenBadge = explorer.TokenBadge(tok)
		}
		out = append(out, info)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Service) GetSession(ctx context.Context, id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

// CloseSession cancels the session's in-flight work and forgets it.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.remove(sess, "closed")
	return nil
}

// remove forgets sess and releases its controller. It reports false when the
// session was already gone.
func (s *Service) remove(sess *session, reason string) bool {
	s.mu.Lock()
	if s.sessions[sess.id] != sess {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	if s.relay != nil {
		s.relay.Detach(sess.id)
	}
	sess.ctrl.Close()
	slog.Info("session closed", "session_id", sess.id, "reason", reason)
	return true
}

// Close shuts down every open session.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.janitor.Wait()

	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		if s.relay != nil {
			s.relay.Detach(sess.id)
		}
		sess.ctrl.Close()
	}
}

// --- Selection methods ---

func (s *Service) SetToken(ctx context.Context, id, token string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.ctrl.SetToken(token)
	return s.present(sess), nil
}

func (s *Service) SelectDataset(ctx context.Context, id, datasetID string) (SessionView, error) {
	if err := s.requireNonEmpty(datasetID, "dataset_id"); err != nil {
		return SessionView{}, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SelectDataset(datasetID); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

func (s *Service) SetDimension(ctx context.Context, id, dimension string) (SessionView, error) {
	if err := s.requireNonEmpty(dimension, "dimension"); err != nil {
		return SessionView{}, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SetDimension(strings.TrimSpace(dimension)); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

func (s *Service) SetMeasure(ctx context.Context, id, measure string) (SessionView, error) {
	if err := s.requireNonEmpty(measure, "measure"); err != nil {
		return SessionView{}, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SetMeasure(strings.TrimSpace(measure)); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

func (s *Service) SetDates(ctx context.Context, id, from, to string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SetDateRange(strings.TrimSpace(from), strings.TrimSpace(to)); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

func (s *Service) SetPlatform(ctx context.Context, id, platform string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.ctrl.SetPlatform(platform)
	return s.present(sess), nil
}

func (s *Service) SetLimit(ctx context.Context, id string, limit int) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SetLimit(limit); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

func (s *Service) SetChartType(ctx context.Context, id, chartType string) (SessionView, error) {
	ct, err := types.ParseChartType(chartType)
	if err != nil {
		return SessionView{}, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.SetChartType(ct); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

// Run executes the session's query and returns the settled view. Backend
// failures land in the view's run_error; only validation failures are
// returned as errors.
func (s *Service) Run(ctx context.Context, id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ctrl.Run(ctx); err != nil {
		return SessionView{}, err
	}
	return s.present(sess), nil
}

// --- Chart methods ---

func (s *Service) ChartOption(ctx context.Context, id string) (chart.Option, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return chart.Option{}, err
	}
	return s.present(sess).Option, nil
}

func (s *Service) exportSpec(sv SessionView) chart.ExportSpec {
	v := sv.View
	return chart.ExportSpec{
		Title:     sv.Title,
		Subtitle:  sv.Subtitle,
		ChartType: v.State.ChartType,
		Rows:      v.Rows,
		XKey:      v.State.Dimension,
		YKey:      v.State.Measure,
		Height:    s.opts.ChartHeight,
		Palette:   s.opts.Palette,
	}
}

// ExportHTML renders the session's current chart as a standalone page.
func (s *Service) ExportHTML(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, s.exportSpec(s.present(sess))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- Snapshot methods ---

func (s *Service) TakeSnapshot(ctx context.Context, id string, width int, notes string) (snapshot.SnapshotMeta, error) {
	if width == 0 {
		width = chart.DefaultPNGWidth
	}
	if width < minSnapshotWidth || width > maxSnapshotWidth {
		return snapshot.SnapshotMeta{}, &types.CodedError{Code: types.CodeValidation, Message: fmt.Sprintf("width must be between %d and %d", minSnapshotWidth, maxSnapshotWidth)}
	}
	sess, err := s.lookup(id)
	if err != nil {
		return snapshot.SnapshotMeta{}, err
	}

	sv := s.present(sess)
	v := sv.View
	if len(v.Rows) == 0 {
		return snapshot.SnapshotMeta{}, &types.CodedError{Code: types.CodeValidation, Message: "no rows to snapshot; run the query first"}
	}

	spec := s.exportSpec(sv)
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, spec, width); err != nil {
		return snapshot.SnapshotMeta{}, err
	}

	meta := snapshot.SnapshotMeta{
		ID:        snapshot.NewID(),
		SessionID: sess.id,
		Format:    "png",
		Width:     width,
		Height:    spec.Height,
		SizeBytes: buf.Len(),
		CreatedAt: s.opts.Now().UTC(),
		DatasetID: v.State.DatasetID,
		Dimension: v.State.Dimension,
		Measure:   v.State.Measure,
		ChartType: string(v.State.ChartType),
		DateFrom:  v.State.DateFrom,
		DateTo:    v.State.DateTo,
		Platform:  v.State.Platform,
		RowCount:  len(v.Rows),
		Notes:     strings.TrimSpace(notes),
	}

	if err := s.snaps.Save(meta, buf.Bytes()); err != nil {
		return snapshot.SnapshotMeta{}, &types.CodedError{Code: types.CodeRenderFailure, Message: fmt.Sprintf("save snapshot: %v", err), Cause: err}
	}
	slog.Info("snapshot saved", "snapshot_id", meta.ID, "session_id", sess.id, "bytes", meta.SizeBytes)
	return meta, nil
}

// ListSnapshots returns stored snapshots, newest first. A non-empty
// sessionID limits the list to that session.
func (s *Service) ListSnapshots(ctx context.Context, sessionID string) ([]snapshot.SnapshotMeta, error) {
	metas, err := s.snaps.List(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, &types.CodedError{Code: types.CodeRenderFailure, Message: "list snapshots", Cause: err}
	}
	return metas, nil
}

func (s *Service) GetSnapshot(ctx context.Context, id string) (snapshot.SnapshotMeta, error) {
	if err := s.requireNonEmpty(id, "snapshot_id"); err != nil {
		return snapshot.SnapshotMeta{}, err
	}

	meta, err := s.snaps.Get(strings.TrimSpace(id))
	if err != nil {
		return snapshot.SnapshotMeta{}, snapshotErr(err)
	}
	return meta, nil
}

func (s *Service) ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error) {
	if err := s.requireNonEmpty(id, "snapshot_id"); err != nil {
		return nil, "", err
	}

	data, format, err := s.snaps.ReadImage(strings.TrimSpace(id))
	if err != nil {
		return nil, "", snapshotErr(err)
	}
	return data, format, nil
}

func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	if err := s.requireNonEmpty(id, "snapshot_id"); err != nil {
		return err
	}

	if err := s.snaps.Delete(strings.TrimSpace(id)); err != nil {
		return snapshotErr(err)
	}
	return nil
}

func snapshotErr(err error) error {
	if errors.Is(err, snapshot.ErrNotFound) || errors.Is(err, snapshot.ErrInvalidID) {
		return &types.CodedError{Code: types.CodeSnapshotNotFound, Message: err.Error()}
	}
	return &types.CodedError{Code: types.CodeRenderFailure, Message: "snapshot store", Cause: err}
}

// --- Health methods ---

// DeepHealthCheck probes the backend. A failing backend degrades the result
// rather than failing the call.
func (s *Service) DeepHealthCheck(ctx context.Context) (DeepHealthResult, error) {
	s.mu.RLock()
	out := DeepHealthResult{Status: "ok", Sessions: len(s.sessions)}
	s.mu.RUnlock()
	if s.relay != nil {
		out.Subscribers = s.relay.Broker().ClientCount()
	}

	status, err := s.backend.Health(ctx)
	if err != nil {
		slog.Warn("backend health check failed", "error", err)
		out.Status = "degraded"
		out.Backend = "unreachable"
		out.BackendDetail = err.Error()
		return out, nil
	}
	out.Backend = status.Status
	if out.Backend == "" {
		out.Backend = "ok"
	}
	return out, nil
}

// --- Idle expiry ---

func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

func (s *Service) janitorLoop(interval time.Duration) {
	defer s.janitor.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.closeIdle(s.opts.Now()); n > 0 {
				slog.Debug("idle sessions closed", "count", n)
			}
		case <-s.done:
			return
		}
	}
}

// closeIdle closes every session idle since before now-IdleTimeout that has
// no dashboard or stream attached, and returns how many it closed.
func (s *Service) closeIdle(now time.Time) int {
	threshold := now.Add(-s.opts.IdleTimeout)

	s.mu.RLock()
	var stale []*session
	for _, sess := range s.sessions {
		if sess.idleSince().Before(threshold) {
			stale = append(stale, sess)
		}
	}
	s.mu.RUnlock()

	closed := 0
	for _, sess := range stale {
		if s.relay != nil && s.relay.Broker().SessionClientCount(sess.id) > 0 {
			sess.touch(now)
			continue
		}
		if !sess.idleSince().Before(threshold) {
			continue
		}
		if s.remove(sess, "idle") {
			closed++
		}
	}
	return closed
}
