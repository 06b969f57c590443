package fileledger

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/metrics"
)

const TimeLayout = "2006-01-02 15:04:05"

var Header = []string{"timestamp", "courier_user_id", "courier_username", "amount", "message_id", "status"}

var (
	ErrFieldCount = errors.New("unexpected field count")
	ErrEmptyField = errors.New("required field is empty")
	ErrMultiline  = errors.New("row spans more than one record")
	ErrLineBreak  = errors.New("field contains a line break")
)

const maxLineSize = 1 << 20

// Repository keeps the ledger as a UTF-8 CSV file, one row per delivery.
type Repository struct {
	path string
	loc  *time.Location
	mu   sync.Mutex
}

func New(path string, loc *time.Location) *Repository {
	return &Repository{
		path: path,
		loc:  loc,
	}
}

// Init creates the file with its header row when it does not exist yet.
// Existing data is left untouched.
func (r *Repository) Init(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}
	if info.Size() > 0 {
		return nil
	}

	if err := writeRow(f, Header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	zap.L().Info("created ledger file", zap.String("path", r.path))
	return nil
}

// Append writes rec as one row and fsyncs it. A torn last line left by an
// earlier failed write is terminated first, so the new row stays readable.
func (r *Repository) Append(_ context.Context, rec domain.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer f.Close()

	row := r.encode(rec)
	for _, field := range row {
		if strings.ContainsAny(field, "\r\n") {
			return fmt.Errorf("append ledger row: %w", ErrLineBreak)
		}
	}

	if err := terminateTail(f); err != nil {
		return fmt.Errorf("repair ledger tail: %w", err)
	}
	if err := writeRow(f, row); err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	return nil
}

// Scan streams every stored record to fn. Each physical line is decoded on
// its own, so a damaged row is logged and skipped without affecting the
// rows after it. Each call rereads the file from the start.
func (r *Repository) Scan(ctx context.Context, fn func(domain.DeliveryRecord) error) error {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open ledger for scan: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := parseLine(line)
		if err != nil {
			skip(n, []string{line}, err)
			continue
		}
		if isHeader(row) {
			continue
		}

		rec, err := r.decode(row)
		if err != nil {
			skip(n, row, err)
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	return ctx.Err()
}

func (r *Repository) encode(rec domain.DeliveryRecord) []string {
	return []string{
		rec.Timestamp.In(r.loc).Format(TimeLayout),
		rec.CourierID,
		rec.CourierHandle.String,
		strconv.FormatInt(rec.Amount, 10),
		rec.MessageRef,
		string(rec.Status),
	}
}

func (r *Repository) decode(row []string) (domain.DeliveryRecord, error) {
	if len(row) != len(Header) {
		return domain.DeliveryRecord{}, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(row), len(Header))
	}
	ts, err := time.ParseInLocation(TimeLayout, row[0], r.loc)
	if err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	if row[1] == "" {
		return domain.DeliveryRecord{}, fmt.Errorf("courier id: %w", ErrEmptyField)
	}
	amount, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("amount: %w", err)
	}
	if amount <= 0 {
		return domain.DeliveryRecord{}, fmt.Errorf("amount: %d is not positive", amount)
	}
	if row[5] == "" {
		return domain.DeliveryRecord{}, fmt.Errorf("status: %w", ErrEmptyField)
	}
	if !domain.Status(row[5]).Valid() {
		return domain.DeliveryRecord{}, fmt.Errorf("status: unknown value %q", row[5])
	}

	return domain.DeliveryRecord{
		Timestamp:     ts,
		CourierID:     row[1],
		CourierHandle: domain.Handle(row[2]),
		Amount:        amount,
		MessageRef:    row[4],
		Status:        domain.Status(row[5]),
	}, nil
}

func writeRow(f *os.File, row []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// terminateTail appends a newline when the file is non-empty and its last
// byte is not one.
func terminateTail(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte{'\n'})
	return err
}

// parseLine decodes a single CSV line. Quoted fields may not span lines.
func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	row, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, ErrMultiline
	}
	return row, nil
}

func isHeader(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i := range row {
		if row[i] != Header[i] {
			return false
		}
	}
	return true
}

func skip(n int, row []string, err error) {
	metrics.MalformedRowsTotal.Inc()
	zap.L().Warn("skipping malformed ledger row",
		zap.Int("line", n),
		zap.Strings("row", row),
		zap.Error(err),
	)
}
