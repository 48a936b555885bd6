package controller

import (
	"context"
	"strings"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/explorer"
	"github.com/dgnsrekt/share_explorer/internal/storage"
	"github.com/dgnsrekt/share_explorer/internal/types"
)

// recordingBackend logs every query a session issues to the run log.
type recordingBackend struct {
	explorer.Backend
	session string
	log     *storage.RunLog
	now     func() time.Time
}

func (b *recordingBackend) Query(ctx context.Context, token string, req types.QueryRequest) (types.QueryResponse, error) {
	start := b.now()
	resp, err := b.Backend.Query(ctx, token, req)

	rec := storage.RunRecord{
		Time:       start.UTC(),
		SessionID:  b.session,
		Token:      storage.TokenFingerprint(token),
		DatasetID:  req.DatasetID,
		Dimension:  req.Dimension,
		Measure:    req.Measure,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Limit:      req.Limit,
		Rows:       len(resp.Rows),
		DurationMS: b.now().Sub(start).Milliseconds(),
	}
	if req.Platform != nil {
		rec.Platform = *req.Platform
	}
	if err != nil {
		rec.Error = err.Error()
	}
	_ = b.log.Record(rec)

	return resp, err
}

func (s *Service) sessionBackend(id string) explorer.Backend {
	if s.opts.History == nil {
		return s.backend
	}
	return &recordingBackend{Backend: s.backend, session: id, log: s.opts.History, now: s.opts.Now}
}

// ListRuns returns the queries logged on date (YYYY-MM-DD, default today),
// optionally for one session.
func (s *Service) ListRuns(ctx context.Context, date, sessionID string) ([]storage.RunRecord, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.opts.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &types.CodedError{Code: types.CodeValidation, Message: "date must be YYYY-MM-DD"}
	}
	if s.opts.History == nil {
		return []storage.RunRecord{}, nil
	}
	runs, err := storage.ReadRuns(s.opts.History.Dir(), date, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, types.NewError(types.CodeRenderFailure, "failed to read run history", err)
	}
	return runs, nil
}
