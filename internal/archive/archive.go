// Package archive keeps a zstd-compressed journal of the raw input lines of
// one invocation so a session can be replayed later.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Ext is the journal file extension.
const Ext = ".jsonl.zst"

// Journal appends raw lines to a compressed file.
type Journal struct {
	path string
	file *os.File
	enc  *zstd.Encoder
}

// JournalPath returns the journal path for an invocation started at start
// by process pid.
func JournalPath(dir string, start time.Time, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d%s", start.Format("20060102T150405"), pid, Ext))
}

// Create opens a new journal under dir, creating dir if needed.
func Create(dir string, start time.Time, pid int) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	path := JournalPath(dir, start, pid)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &Journal{path: path, file: f, enc: enc}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// WriteLine appends line followed by a newline.
func (j *Journal) WriteLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if _, err := io.WriteString(j.enc, line+"\n"); err != nil {
		return fmt.Errorf("write journal %s: %w", j.path, err)
	}
	return nil
}

// Close flushes the compressed stream and closes the file.
func (j *Journal) Close() error {
	if err := j.enc.Close(); err != nil {
		j.file.Close()
		return fmt.Errorf("finalize compression: %w", err)
	}
	return j.file.Close()
}

type reader struct {
	file *os.File
	dec  *zstd.Decoder
}

func (r *reader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *reader) Close() error {
	r.dec.Close()
	return r.file.Close()
}

// Open returns a reader of the decompressed journal at path.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &reader{file: f, dec: dec}, nil
}

// List returns the journal files in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Ext) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
