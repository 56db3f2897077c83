// Package export renders boards into timestamped plain-text reports.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// BoardExport is everything a report shows about a board.
type BoardExport struct {
	BoardName   string
	Description string
	Status      string
	TeamName    string
	Tasks       []TaskLine
}

// TaskLine is one row of the task table.
type TaskLine struct {
	Title       string
	Description string
	Assignee    string
	Status      string
}

// Exporter writes board reports into a directory.
type Exporter struct {
	dir    string
	now    func() time.Time
	logger logrus.FieldLogger
}

// New creates an exporter writing into dir.
func New(dir string, logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{dir: dir, now: time.Now, logger: logger}
}

// WithClock replaces the time source used for file names.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Write renders the report to a new file and returns its name. An existing
// file is never overwritten: a name already taken gets a numeric suffix.
// Nothing is left behind when writing fails.
func (e *Exporter) Write(b BoardExport) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, b); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name, err := e.create(FileName(b.BoardName, e.now()), buf.Bytes())
	if err != nil {
		return "", err
	}

	e.logger.WithFields(logrus.Fields{"board": b.BoardName, "file": name}).Info("exported board")
	return name, nil
}

// maxNameAttempts bounds the numbered names tried when a report name is taken.
const maxNameAttempts = 100

// create writes data to a new file named base, or base with a "_<n>" suffix
// when earlier exports already hold that name.
func (e *Exporter) create(base string, data []byte) (string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		name := numbered(base, n)
		path := filepath.Join(e.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write export file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("create export file: %d names taken for %s", maxNameAttempts, base)
}

// numbered returns base for n == 0 and "<stem>_<n><ext>" otherwise.
func numbered(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(base, ext), n, ext)
}

// Render writes the report header followed by the task table.
func Render(w io.Writer, b BoardExport) error {
	header := fmt.Sprintf("Board: %s   Team: %s\nAbout Board: %s\nBoard Status: %s\n\n",
		b.BoardName, b.TeamName, b.Description, b.Status)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Task", "Detail", "Assigned to", "Status"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, t := range b.Tasks {
		table.Append([]string{t.Title, t.Description, t.Assignee, t.Status})
	}
	table.Render()
	return nil
}

// FileName builds "<board>_<UTC yyyymmddhhmmss>.txt".
func FileName(boardName string, at time.Time) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(boardName)
	if safe == "" {
		safe = "board"
	}
	return fmt.Sprintf("%s_%s.txt", safe, at.UTC().Format("20060102150405"))
}
