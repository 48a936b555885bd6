package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const runsFile = "runs.jsonl"

var (
	ErrClosed     = errors.New("run log is closed")
	ErrBufferFull = errors.New("run log buffer full")
)

// RunLog appends RunRecords as JSON lines to baseDir/<date>/runs.jsonl.
// Writes are queued and flushed by a single goroutine.
type RunLog struct {
	baseDir   string
	maxSizeMB int
	writeCh   chan RunRecord
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu          sync.Mutex
	currentDate string
	logger      *lumberjack.Logger
}

// NewRunLog starts a run log under baseDir.
func NewRunLog(baseDir string, bufferSize, maxSizeMB int) *RunLog {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	l := &RunLog{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan RunRecord, bufferSize),
		done:      make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writeLoop()

	return l
}

// Dir returns the log's base directory.
func (l *RunLog) Dir() string { return l.baseDir }

// Record queues rec without blocking. A full buffer drops the record.
func (l *RunLog) Record(rec RunRecord) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.writeCh <- rec:
		return nil
	default:
		slog.Warn("run log buffer full, dropping record", "session_id", rec.SessionID)
		return ErrBufferFull
	}
}

// Close stops the writer and flushes queued records.
func (l *RunLog) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case rec := <-l.writeCh:
			l.writeRecord(rec)
			continue
		case <-timeout:
			slog.Warn("run log close timeout, some records may be lost")
		default:
		}
		break
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logger != nil {
		err := l.logger.Close()
		l.logger = nil
		return err
	}
	return nil
}

func (l *RunLog) writeLoop() {
	defer l.wg.Done()

	for {
		select {
		case rec := <-l.writeCh:
			l.writeRecord(rec)
		case <-l.done:
			return
		}
	}
}

func (l *RunLog) writeRecord(rec RunRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("run record marshal failed", "error", err, "session_id", rec.SessionID)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	date := rec.Time.UTC().Format(dateLayout)
	if date != l.currentDate || l.logger == nil {
		if err := l.rotateForDate(date); err != nil {
			slog.Error("run log rotate failed", "error", err, "date", date)
			return
		}
	}

	if _, err := l.logger.Write(append(data, '\n')); err != nil {
		slog.Error("run record write failed", "error", err, "session_id", rec.SessionID)
	}
}

func (l *RunLog) rotateForDate(date string) error {
	if l.logger != nil {
		_ = l.logger.Close()
		l.logger = nil
	}

	dir := filepath.Join(l.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filename := filepath.Join(dir, runsFile)
	l.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    l.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		LocalTime:  false,
	}
	l.currentDate = date
	slog.Debug("run log opened", "file", filename)
	return nil
}
