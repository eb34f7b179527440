// Package audit records rejected unit records for periodic human review.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/council-ops/unit-roster/internal/model"
)

// Log collects the rejections of one pipeline run. When constructed with a
// directory it also writes each rejection as a JSON line to
// rejections-<runID>.jsonl. Safe for concurrent use.
type Log struct {
	runID  string
	path   string
	file   *os.File
	logger *zap.Logger

	mu      sync.Mutex
	entries []model.Rejection
}

// New opens an audit log for runID. An empty dir keeps rejections in memory
// only.
func New(runID, dir string) (*Log, error) {
	l := &Log{runID: runID, logger: zap.NewNop()}
	if dir == "" {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "audit: create dir %s", dir)
	}
	l.path = filepath.Join(dir, "rejections-"+runID+".jsonl")
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: open %s", l.path)
	}
	l.file = f

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zap.InfoLevel)
	l.logger = zap.New(core).With(zap.String("run_id", runID))

	return l, nil
}

// Reject records one rejection.
func (l *Log) Reject(r model.Rejection) {
	l.mu.Lock()
	l.entries = append(l.entries, r)
	l.mu.Unlock()

	l.logger.Info("rejected",
		zap.String("type", r.Type),
		zap.String("number", r.Number),
		zap.String("locality", r.Locality),
		zap.String("organization", r.Organization),
		zap.String("reason", r.Reason),
		zap.String("source", string(r.Source)),
		zap.String("batch", r.Batch),
	)
}

// Entries returns a copy of the rejections recorded so far, in arrival order.
func (l *Log) Entries() []model.Rejection {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Rejection, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of rejections recorded.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Path returns the JSON-lines file, or "" for an in-memory log.
func (l *Log) Path() string {
	return l.path
}

// Close flushes and closes the file, if any.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	_ = l.logger.Sync()
	if err := l.file.Close(); err != nil {
		return eris.Wrap(err, "audit: close")
	}
	l.file = nil
	return nil
}

// ReadFile loads the rejections written to an audit file.
func ReadFile(path string) ([]model.Rejection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: open %s", path)
	}
	defer f.Close()

	var out []model.Rejection
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r model.Rejection
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, eris.Wrap(err, "audit: decode line")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(sc.Err(), "audit: scan")
}
