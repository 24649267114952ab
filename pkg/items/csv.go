package items

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/models"
)

// ImportResult reports what a CSV import did. Row errors are collected, not
// fatal: a bad row skips that row only.
type ImportResult struct {
	Imported  int      `json:"imported"`
	RowErrors []string `json:"row_errors"`
}

// Recognized CSV header names (case-insensitive). "authors" splits on ";".
var csvColumns = map[string]struct{}{
	"title":     {},
	"authors":   {},
	"series":    {},
	"position":  {},
	"isbn":      {},
	"format":    {},
	"publisher": {},
	"notes":     {},
}

// ImportCSV reads owned items from CSV. The first record must be a header
// row; unknown columns are ignored so exports from other tools import
// without trimming.
func (svc *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	index := map[string]int{}
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, known := csvColumns[name]; known {
			index[name] = i
		}
	}
	if _, ok := index["title"]; !ok {
		return nil, errors.New(`CSV is missing the required "title" column`)
	}

	result := &ImportResult{}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		item, err := itemFromRecord(record, index)
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		if err := svc.CreateOwnedItem(ctx, item); err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

func itemFromRecord(record []string, index map[string]int) (*models.OwnedItem, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	title := field("title")
	if title == "" {
		return nil, errors.New("title is empty")
	}

	item := &models.OwnedItem{Title: title}

	if authors := field("authors"); authors != "" {
		for _, a := range strings.Split(authors, ";") {
			if a = strings.TrimSpace(a); a != "" {
				item.Authors = append(item.Authors, a)
			}
		}
	}
	if name := field("series"); name != "" {
		item.SeriesName = &name
	}
	if pos := field("position"); pos != "" {
		n, err := strconv.Atoi(pos)
		if err != nil || n <= 0 {
			return nil, errors.Errorf("invalid position %q", pos)
		}
		item.Position = &n
	}
	if notes := field("notes"); notes != "" {
		item.Notes = &notes
	}

	edition := &models.Edition{IsPrimary: true}
	hasEdition := false
	if raw := field("isbn"); raw != "" {
		normalized := isbn.Normalize(raw)
		if !isbn.Valid(normalized) {
			return nil, errors.Errorf("invalid ISBN %q", raw)
		}
		edition.ISBN = &normalized
		hasEdition = true
	}
	if format := field("format"); format != "" {
		edition.Format = &format
		hasEdition = true
	}
	if publisher := field("publisher"); publisher != "" {
		edition.Publisher = &publisher
		hasEdition = true
	}
	if hasEdition {
		item.Editions = []*models.Edition{edition}
	}

	return item, nil
}
