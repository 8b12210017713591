package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// row é uma linha do arquivo: um registro, ou uma linha malformada
// preservada como veio para ser regravada no mesmo lugar.
type row struct {
	rec *models.Record
	raw string
}

type fileVersion struct {
	exists  bool
	size    int64
	modTime time.Time
}

// FileStore keeps the records of a flat CSV file in memory and rewrites
// the whole file on every status edit or deletion. Writes from this
// process are serialised; writes from elsewhere are detected by size and
// mtime and surface as ErrStale.
type FileStore struct {
	path          string
	skipMalformed bool
	log           *slog.Logger
	newID         func() string

	mu      sync.Mutex
	loaded  bool
	rows    []row
	skipped int
	version fileVersion
}

type FileOption func(*FileStore)

// WithSkipMalformed controls whether malformed rows are left out of the
// working set (they are still written back untouched).
func WithSkipMalformed(skip bool) FileOption {
	return func(s *FileStore) { s.skipMalformed = skip }
}

func WithLogger(l *slog.Logger) FileOption {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}

func WithIDGenerator(fn func() string) FileOption {
	return func(s *FileStore) { s.newID = fn }
}

func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:          path,
		skipMalformed: true,
		log:           slog.Default(),
		newID:         uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("cmp", "repository.file", "path", path)
	return s
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) LoadAll(ctx context.Context) (models.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return models.RecordSet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncLocked(); err != nil {
		return models.RecordSet{}, err
	}
	return s.snapshotLocked(), nil
}

func (s *FileStore) Append(ctx context.Context, r *models.Record) error {
	if err := ValidateRequired(*r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// append não depende dos IDs carregados, então mudança externa não bloqueia
	if _, err := s.syncLocked(); err != nil {
		return err
	}

	var buf bytes.Buffer
	switch {
	case !s.version.exists || s.version.size == 0:
		buf.WriteString(encodeLine(models.Header))
	case !s.endsWithNewline():
		buf.WriteByte('\n')
	}
	buf.WriteString(encodeLine(r.Row()))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	rec := *r
	rec.ID = s.newID()
	rec.Issues = nil
	s.rows = append(s.rows, row{rec: &rec})
	r.ID = rec.ID
	s.version = s.stat()
	s.log.Info("record_appended", "id", rec.ID, "nome", rec.Name)
	return nil
}

func (s *FileStore) UpdateStatuses(ctx context.Context, changes map[string]models.Status) error {
	if len(changes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFreshLocked(); err != nil {
		return err
	}

	next := make([]row, len(s.rows))
	found := 0
	for i, rw := range s.rows {
		next[i] = rw
		if rw.rec == nil {
			continue
		}
		if st, ok := changes[rw.rec.ID]; ok {
			rec := *rw.rec
			rec.Status = st
			next[i] = row{rec: &rec}
			found++
		}
	}
	if found != len(changes) {
		for id := range changes {
			if !s.hasIDLocked(id) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
		}
	}

	if err := s.rewriteLocked(next); err != nil {
		return err
	}
	s.rows = next
	s.log.Info("statuses_updated", "count", found)
	return nil
}

func (s *FileStore) Delete(ctx context.Context, ids ...string) ([]models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFreshLocked(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !s.hasIDLocked(id) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}

	next := make([]row, 0, len(s.rows))
	var removed []models.Record
	for _, rw := range s.rows {
		if rw.rec != nil && slices.Contains(ids, rw.rec.ID) {
			rec := *rw.rec
			rec.Issues = slices.Clone(rec.Issues)
			removed = append(removed, rec)
			continue
		}
		next = append(next, rw)
	}

	if err := s.rewriteLocked(next); err != nil {
		return nil, err
	}
	s.rows = next
	s.log.Info("records_deleted", "count", len(removed))
	return removed, nil
}

// checkFreshLocked loads the file if needed and fails with ErrStale when it
// changed on disk after the last load.
func (s *FileStore) checkFreshLocked() error {
	changed, err := s.syncLocked()
	if err != nil {
		return err
	}
	if changed {
		s.log.Warn("store_changed_on_disk")
		return ErrStale
	}
	return nil
}

// syncLocked (re)loads the file when it was never loaded or differs from the
// version seen last. changed is true only in the second case.
func (s *FileStore) syncLocked() (changed bool, err error) {
	v := s.stat()
	if s.loaded && v == s.version {
		return false, nil
	}
	wasLoaded := s.loaded
	if err := s.loadLocked(); err != nil {
		return false, err
	}
	return wasLoaded, nil
}

func (s *FileStore) loadLocked() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		// ainda não há dados: conjunto vazio
		s.rows, s.skipped, s.loaded = nil, 0, true
		s.version = fileVersion{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	rows, skipped, err := s.parse(f)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	s.rows, s.skipped, s.loaded = rows, skipped, true
	s.version = s.stat()
	s.log.Debug("store_loaded", "records", len(rows)-skipped, "skipped", skipped)
	return nil
}

// parse reads line by line without a length limit. Only the first
// non-empty line can be the header.
func (s *FileStore) parse(r io.Reader) ([]row, int, error) {
	br := bufio.NewReader(r)

	var (
		rows      []row
		skipped   int
		lineNo    int
		seenFirst bool
	)
	for {
		line, rerr := br.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, 0, rerr
		}
		if line == "" && rerr != nil {
			break
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if rerr != nil {
				break
			}
			continue
		}
		cols, err := decodeLine(line)
		if err != nil {
			cols = strings.Split(line, ",")
		}
		first := !seenFirst
		seenFirst = true
		if first && models.IsHeader(cols) {
			continue
		}

		rec := models.DecodeRow(cols)
		if err != nil {
			rec.Issues = append(rec.Issues, models.Issue{Field: "row", Value: line, Reason: err.Error()})
		}
		if s.skipMalformed && rec.Malformed() {
			skipped++
			rows = append(rows, row{raw: line})
			s.log.Warn("row_skipped", "line", lineNo, "issues", len(rec.Issues))
			continue
		}
		rec.ID = s.newID()
		rows = append(rows, row{rec: &rec})
		if rerr != nil {
			break
		}
	}
	return rows, skipped, nil
}

// rewriteLocked replaces the file with rows through a temp file + rename,
// so a crash leaves either the old or the new content.
func (s *FileStore) rewriteLocked(rows []row) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("rewrite store: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("rewrite store: %w", err)
	}

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(encodeLine(models.Header)); err != nil {
		return cleanup(err)
	}
	for _, rw := range rows {
		line := rw.raw + "\n"
		if rw.rec != nil {
			line = encodeLine(rw.rec.Row())
		}
		if _, err := w.WriteString(line); err != nil {
			return cleanup(err)
		}
	}
	if err := w.Flush(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rewrite store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rewrite store: %w", err)
	}
	s.version = s.stat()
	return nil
}

func (s *FileStore) snapshotLocked() models.RecordSet {
	set := models.RecordSet{Records: make([]models.Record, 0, len(s.rows)), Skipped: s.skipped}
	for _, rw := range s.rows {
		if rw.rec == nil {
			continue
		}
		rec := *rw.rec
		rec.Issues = slices.Clone(rec.Issues)
		set.Records = append(set.Records, rec)
	}
	return set
}

func (s *FileStore) hasIDLocked(id string) bool {
	for _, rw := range s.rows {
		if rw.rec != nil && rw.rec.ID == id {
			return true
		}
	}
	return false
}

func (s *FileStore) stat() fileVersion {
	fi, err := os.Stat(s.path)
	if err != nil {
		return fileVersion{}
	}
	return fileVersion{exists: true, size: fi.Size(), modTime: fi.ModTime()}
}

// o cadastro antigo gravava sem quebra de linha no final
func (s *FileStore) endsWithNewline() bool {
	f, err := os.Open(s.path)
	if err != nil {
		return true
	}
	defer f.Close()
	if _, err := f.Seek(-1, io.SeekEnd); err != nil {
		return true
	}
	b := make([]byte, 1)
	if _, err := f.Read(b); err != nil {
		return true
	}
	return b[0] == '\n'
}

func decodeLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// encodeLine returns one CSV line terminated by \n. Line breaks inside
// fields are flattened since the file is read line by line.
func encodeLine(cols []string) string {
	clean := make([]string, len(cols))
	for i, c := range cols {
		clean[i] = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(c)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(clean)
	w.Flush()
	return buf.String()
}
