package storage

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// RunRecord is one backend query issued on behalf of a session.
type RunRecord struct {
	Time       time.Time `json:"time"`
	SessionID  string    `json:"session_id"`
	Token      string    `json:"token"` // fingerprint, never the raw token
	DatasetID  string    `json:"dataset_id"`
	Dimension  string    `json:"dimension"`
	Measure    string    `json:"measure"`
	DateFrom   string    `json:"date_from"`
	DateTo     string    `json:"date_to"`
	Platform   string    `json:"platform,omitempty"`
	Limit      int       `json:"limit"`
	Rows       int       `json:"rows"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// TokenFingerprint returns a short stable hash of token for correlating runs
// without storing the token.
func TokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// ReadRuns returns the records logged on date (YYYY-MM-DD), oldest first,
// including rotated backups. A non-empty sessionID filters the result.
// A day with no log yields an empty slice.
func ReadRuns(baseDir, date, sessionID string) ([]RunRecord, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	files, err := filepath.Glob(filepath.Join(baseDir, date, "*.jsonl"))
	if err != nil {
		return nil, err
	}

	out := []RunRecord{}
	for _, name := range files {
		recs, err := readFile(name, sessionID)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func readFile(name, sessionID string) ([]RunRecord, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []RunRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec RunRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			slog.Debug("skipping malformed run record", "file", name, "error", err)
			continue
		}
		if sessionID != "" && rec.SessionID != sessionID {
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
