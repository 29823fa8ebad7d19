package versions

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the first version in a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log is an append-only JSONL version log. Each line carries the hash of the
// line before it, so edits and deletions are detectable with Verify.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	mu       sync.Mutex
}

// OpenLog opens (or creates) a version log, recovering the chain tail from
// the last line of an existing file.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("versions: create directory: %w", err)
	}

	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastLine(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			prevHash = HashLine(last)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("versions: open file: %w", err)
	}

	return &Log{path: path, file: file, prevHash: prevHash}, nil
}

// DefaultLogPath returns ~/.tripcheck/versions.jsonl.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tripcheck-versions.jsonl")
	}
	return filepath.Join(home, ".tripcheck", "versions.jsonl")
}

// CreateVersion appends v to the log and syncs it to disk.
func (l *Log) CreateVersion(_ context.Context, v Version) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.PrevHash = l.prevHash

	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("versions: marshal: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("versions: write: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("versions: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// VerifyResult is the outcome of checking a log's hash chain.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify walks the log and reports the first broken link, if any.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	expected := GenesisHash
	n := 0
	for scanner.Scan() {
		n++
		line := append([]byte(nil), scanner.Bytes()...)

		var v Version
		if err := json.Unmarshal(line, &v); err != nil {
			return VerifyResult{Error: fmt.Sprintf("parse error: %v", err), ErrorLine: n}
		}
		if v.PrevHash != expected {
			return VerifyResult{
				Error:     fmt.Sprintf("hash mismatch: expected %s, got %s", expected, v.PrevHash),
				ErrorLine: n,
			}
		}
		expected = HashLine(line)
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: n}
}

// ReadLog returns every version in the log, optionally filtered by trip id.
func ReadLog(path, tripID string) ([]Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("versions: open log: %w", err)
	}
	defer f.Close()

	var out []Version
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var v Version
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			return nil, fmt.Errorf("versions: parse log: %w", err)
		}
		if tripID == "" || v.TripID == tripID {
			out = append(out, v)
		}
	}
	return out, scanner.Err()
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("versions: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("versions: scan existing log: %w", err)
	}
	return last, nil
}
