// Package auditlog keeps an append-only CSV record of uploads, saves and
// categorization runs.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Action names what happened to a profile's data.
type Action string

const (
	ActionUpload     Action = "upload"
	ActionSave       Action = "save"
	ActionCategorize Action = "categorize"
	ActionReject     Action = "reject"
)

// Entry is one row in the ingest log.
type Entry struct {
	Timestamp time.Time
	Action    Action
	Profile   string
	Bank      string
	Context   string
	Rows      int
	BatchID   string
}

// Header is the CSV header for ingest-log.csv.
const Header = "timestamp,action,profile,bank,context,rows,batch_id"

const (
	numFields    = 7
	logDir       = "logs"
	logFile      = "ingest-log.csv"
	colTimestamp = 0
	colAction    = 1
	colProfile   = 2
	colBank      = 3
	colContext   = 4
	colRows      = 5
	colBatchID   = 6
)

// Log appends entries under <dataDir>/logs. Appends from one Log are
// serialized.
type Log struct {
	dataDir string
	mu      sync.Mutex
}

// New returns a Log rooted at dataDir.
func New(dataDir string) *Log {
	return &Log{dataDir: dataDir}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return filepath.Join(l.dataDir, logDir, logFile)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = string(e.Action)
	row[colProfile] = e.Profile
	row[colBank] = e.Bank
	row[colContext] = e.Context
	row[colRows] = strconv.Itoa(e.Rows)
	row[colBatchID] = e.BatchID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	rows, err := strconv.Atoi(record[colRows])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows %q: %w", record[colRows], err)
	}

	return Entry{
		Timestamp: ts,
		Action:    Action(record[colAction]),
		Profile:   record[colProfile],
		Bank:      record[colBank],
		Context:   record[colContext],
		Rows:      rows,
		BatchID:   record[colBatchID],
	}, nil
}

// Append writes entries to the log, creating the file and header if needed.
// A zero Timestamp is stamped with the current time.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(l.dataDir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := l.Path()
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	now := time.Now()
	for i, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ingest log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
