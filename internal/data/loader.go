package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for data files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported data file format")

// Spec declares where a source's items come from: a workbook on disk or
// inline rows.
type Spec struct {
	Name string
	// File is the path of an .xlsx workbook.
	File string
	// Sheet selects the worksheet; empty means the first one.
	Sheet string
	// Header treats the first row as column names. Without a header the
	// columns are named A, B, C...
	Header bool
	// Rows are inline items used when File is empty.
	Rows []Item
}

// Fingerprint is the BLAKE2b-256 digest of a data file.
type Fingerprint [blake2b.Size256]byte

// String returns the first 8 bytes in hex, enough for logs.
func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:8]) }

// Loaded is the result of loading one Spec.
type Loaded struct {
	Spec        Spec
	Items       []Item
	Fingerprint Fingerprint
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h, err := blake2b.New256(nil)
	if err != nil {
		return Fingerprint{}, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, fmt.Errorf("read %s: %w", path, err)
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp, nil
}

// Supported reports whether path has a workbook extension Load reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Load reads the items of one spec.
func Load(spec Spec) (Loaded, error) {
	if spec.File == "" {
		return Loaded{Spec: spec, Items: spec.Rows}, nil
	}
	if !Supported(spec.File) {
		return Loaded{}, fmt.Errorf("source %s: %s: %w", spec.Name, spec.File, ErrUnsupportedFormat)
	}
	fp, err := FingerprintFile(spec.File)
	if err != nil {
		return Loaded{}, fmt.Errorf("source %s: %w", spec.Name, err)
	}
	items, err := LoadXLSX(spec.File, spec.Sheet, spec.Header)
	if err != nil {
		return Loaded{}, fmt.Errorf("source %s: %w", spec.Name, err)
	}
	return Loaded{Spec: spec, Items: items, Fingerprint: fp}, nil
}

// LoadXLSX reads a worksheet into items. Cells that parse as numbers are
// stored as float64, everything else as string. Empty cells are omitted.
func LoadXLSX(path, sheet string, header bool) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}

	var names []string
	if header && len(rows) > 0 {
		names = rows[0]
		rows = rows[1:]
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := make(Item, len(row))
		for col, cell := range row {
			if cell == "" {
				continue
			}
			key, err := columnKey(names, col)
			if err != nil {
				return nil, err
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				item[key] = f
			} else {
				item[key] = cell
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func columnKey(names []string, col int) (string, error) {
	if col < len(names) && names[col] != "" {
		return names[col], nil
	}
	return excelize.ColumnNumberToName(col + 1)
}

// LoadAll loads every spec concurrently. The first error cancels the rest.
func LoadAll(ctx context.Context, specs []Spec) (map[string]Loaded, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	out := make(map[string]Loaded, len(specs))
	for _, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := Load(spec)
			if err != nil {
				return err
			}
			mu.Lock()
			out[spec.Name] = l
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
