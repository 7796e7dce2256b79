package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var ErrChainBroken = errors.New("audit hash chain broken")

// record is the on-disk form of an event. Hash covers the record with
// Hash empty, so editing or removing any line breaks the chain.
type record struct {
	*Event
	PreviousHash string `json:"previous_hash,omitempty"`
	Hash         string `json:"hash,omitempty"`
}

func (r *record) digest() (string, error) {
	saved := r.Hash
	r.Hash = ""
	data, err := json.Marshal(r)
	r.Hash = saved
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FileSink appends events as JSON lines and fsyncs each one
type FileSink struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	lastHash string
}

// OpenFileSink opens path for appending, continuing the hash chain of
// any records already in it
func OpenFileSink(path string) (*FileSink, error) {
	last, _, err := verify(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileSink{file: f, writer: bufio.NewWriter(f), lastHash: last}, nil
}

func (s *FileSink) Write(e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{Event: e, PreviousHash: s.lastHash}
	hash, err := rec.digest()
	if err != nil {
		return fmt.Errorf("failed to hash audit event: %w", err)
	}
	rec.Hash = hash

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit event: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}
	s.lastHash = hash
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.writer.Flush(), s.file.Close())
}

// Verify checks the hash chain of the audit log at path and returns the
// number of intact records
func Verify(path string) (int, error) {
	_, n, err := verify(path)
	return n, err
}

func verify(path string) (last string, n int, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()
	return verifyReader(f)
}

func verifyReader(r io.Reader) (last string, n int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		n++
		rec := &record{Event: &Event{}}
		if err := json.Unmarshal(scanner.Bytes(), rec); err != nil {
			return last, n - 1, fmt.Errorf("line %d: %w", n, err)
		}
		if rec.PreviousHash != last {
			return last, n - 1, fmt.Errorf("%w at line %d: previous hash mismatch", ErrChainBroken, n)
		}
		want, err := rec.digest()
		if err != nil {
			return last, n - 1, err
		}
		if want != rec.Hash {
			return last, n - 1, fmt.Errorf("%w at line %d: event hash mismatch", ErrChainBroken, n)
		}
		last = rec.Hash
	}
	return last, n, scanner.Err()
}
