// Package ingest reads checkup record spreadsheets (CSV, TSV, XLSX) into store
// rows for `reconcile import`.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/store"
)

// ErrNoRows is returned for a file with no header row.
var ErrNoRows = errors.New("file has no rows")

// MissingColumnError names a configured column absent from the header row.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found in header [%s]", e.Column, strings.Join(e.Header, ", "))
}

// Result is what one file yielded.
type Result struct {
	Records []store.Checkup
	Rows    int // data rows read, header excluded
	Skipped int // rows without a receipt number
}

// ReadFile picks a reader from the file extension.
func ReadFile(path string, cols config.ImportConfig) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, cols)
	case ".tsv":
		return readDelimited(path, '\t', cols)
	case ".csv", ".txt":
		return readDelimited(path, ',', cols)
	default:
		return Result{}, fmt.Errorf("%s: unsupported file type", filepath.Base(path))
	}
}

func readDelimited(path string, comma rune, cols config.ImportConfig) (Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user supplied import path
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	res, err := ReadCSV(bytes.NewReader(data), comma, cols)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// ReadCSV parses delimited text. Input that is not valid UTF-8 is decoded as
// EUC-KR, the usual encoding of spreadsheets exported on Korean Windows.
func ReadCSV(r io.Reader, comma rune, cols config.ImportConfig) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
		if err != nil {
			return Result{}, fmt.Errorf("decode EUC-KR: %w", err)
		}
		log.Debug(log.CatImport, "Decoded input as EUC-KR", "bytes", len(data))
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("parse: %w", err)
	}
	return fromRows(rows, cols)
}

func readXLSX(path string, cols config.ImportConfig) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	sheet := cols.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return Result{}, fmt.Errorf("%s: no worksheet found", filepath.Base(path))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("%s: sheet %q: %w", filepath.Base(path), sheet, err)
	}
	res, err := fromRows(rows, cols)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, nil
}

func fromRows(rows [][]string, cols config.ImportConfig) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrNoRows
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = cleanCell(h)
	}

	company := column(header, cols.CompanyColumn)
	if company < 0 {
		return Result{}, &MissingColumnError{Column: cols.CompanyColumn, Header: header}
	}
	receipt := column(header, cols.ReceiptColumn)
	if receipt < 0 {
		return Result{}, &MissingColumnError{Column: cols.ReceiptColumn, Header: header}
	}
	date := column(header, cols.DateColumn)

	res := Result{Records: make([]store.Checkup, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		res.Rows++
		rec := store.Checkup{
			ReceiptNo:   cell(row, receipt),
			CompanyName: cell(row, company),
			CheckupDate: NormalizeDate(cell(row, date)),
		}
		if rec.ReceiptNo == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func column(header []string, name string) int {
	if name == "" {
		return -1
	}
	want := norm.NFC.String(strings.TrimSpace(name))
	for i, h := range header {
		if strings.EqualFold(h, want) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(v))
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// NormalizeDate rewrites the date forms seen in checkup exports as
// YYYY-MM-DD: 20240115, 2024.01.15, 2024/01/15 and Excel serial numbers.
// Anything else is returned unchanged.
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range []string{"20060102", "2006-01-02", "2006.01.02", "2006/01/02", "2006.1.2", "2006/1/2", "2006-1-2"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= 20000 && serial <= 80000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return v
}
