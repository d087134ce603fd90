package catalog

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// listSeparator splits multi-value spreadsheet cells.
const listSeparator = ";"

// workbookColumns is the header row written by WriteWorkbook. ReadWorkbook
// matches headers case-insensitively and ignores unknown columns.
var workbookColumns = []string{
	"identifier", "title", "description", "contentType", "url", "source",
	"duration", "language", "dimension", "category", "difficulty",
	"primaryConcepts", "learningOutcomes", "semanticKeywords",
	"primaryLevel", "secondaryLevels",
}

// ReadWorkbook reads records from the first sheet of an XLSX file. The first
// row names the columns; list columns hold ";"-separated values. Spreadsheet
// rows never carry embeddings.
func ReadWorkbook(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["title"]; !ok {
		return nil, fmt.Errorf("workbook %s: header row has no title column", path)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := index[strings.ToLower(name)]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if cell("identifier") == "" && cell("title") == "" {
			continue // blank row
		}

		records = append(records, Record{
			Identifier:  cell("identifier"),
			Title:       cell("title"),
			Description: cell("description"),
			ContentType: cell("contentType"),
			URL:         cell("url"),
			Source:      cell("source"),
			Duration:    cell("duration"),
			Language:    cell("language"),
			LearningStyle: recommend.LearningStyle{
				Dimension: cell("dimension"),
				Category:  cell("category"),
			},
			Difficulty:       cell("difficulty"),
			PrimaryConcepts:  splitList(cell("primaryConcepts")),
			LearningOutcomes: splitList(cell("learningOutcomes")),
			SemanticKeywords: splitList(cell("semanticKeywords")),
			PrimaryLevel:     cell("primaryLevel"),
			SecondaryLevels:  splitList(cell("secondaryLevels")),
		})
	}
	return records, nil
}

// WriteWorkbook writes records to a new XLSX file in the layout ReadWorkbook reads.
func WriteWorkbook(path string, records []Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header := make([]any, len(workbookColumns))
	for i, c := range workbookColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.ID(), r.Title, r.Description, r.ContentType, r.URL, r.Source,
			r.Duration, r.Language, r.LearningStyle.Dimension, r.LearningStyle.Category, r.Difficulty,
			strings.Join(r.PrimaryConcepts, listSeparator),
			strings.Join(r.LearningOutcomes, listSeparator),
			strings.Join(r.SemanticKeywords, listSeparator),
			r.PrimaryLevel,
			strings.Join(r.SecondaryLevels, listSeparator),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
