package review

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/storefront-widgets/review-service/internal/domain"
)

// Excel column layout: product_no, product_name, author, rating, title, content.
const excelColumns = 6

// ExcelRowError reports one rejected import row
type ExcelRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ExcelImportResult summarizes a bulk import
type ExcelImportResult struct {
	SuccessCount int             `json:"success_count"`
	FailCount    int             `json:"fail_count"`
	Errors       []ExcelRowError `json:"errors"`
}

// ImportExcel bulk-creates reviews from an .xlsx file. Each row goes through
// the same creation contract as a single create; row failures are collected
// without aborting the batch. Blank rows are skipped.
func (s *Service) ImportExcel(ctx context.Context, r io.Reader) (*ExcelImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		s.logger.Error("Failed to open Excel upload", err)
		return nil, fmt.Errorf("%w: unreadable xlsx file", domain.ErrInvalidInput)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: xlsx file has no sheets", domain.ErrInvalidInput)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	result := &ExcelImportResult{Errors: []ExcelRowError{}}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1

		if isBlankRow(row) {
			continue
		}

		// Trailing empty cells are trimmed by the reader
		cells := make([]string, excelColumns)
		for j := 0; j < excelColumns && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}

		review, rowErr := parseExcelRow(cells)
		if rowErr != "" {
			result.FailCount++
			result.Errors = append(result.Errors, ExcelRowError{Row: rowNum, Message: rowErr})
			continue
		}

		if err := s.validate.Struct(review); err != nil {
			result.FailCount++
			result.Errors = append(result.Errors, ExcelRowError{Row: rowNum, Message: "invalid field values"})
			continue
		}

		if err := s.repo.Create(ctx, review); err != nil {
			s.logger.Errorf(err, "Failed to insert Excel row %d", rowNum)
			result.FailCount++
			result.Errors = append(result.Errors, ExcelRowError{Row: rowNum, Message: "insert failed"})
			continue
		}

		s.publishEvent(ctx, "review.created", review)
		result.SuccessCount++
	}

	s.logger.WithFields(map[string]interface{}{
		"success": result.SuccessCount,
		"failed":  result.FailCount,
	}).Info("Excel import finished")

	return result, nil
}

// BuildTemplate returns a one-header-row workbook for bulk imports.
func (s *Service) BuildTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := f.GetSheetName(0)
	header := []interface{}{"product_no", "product_name", "author", "rating(1-5)", "title", "content"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}

	return f, nil
}

func parseExcelRow(cells []string) (*domain.Review, string) {
	var problems []string

	if cells[0] == "" {
		problems = append(problems, "product_no is required")
	}
	if cells[2] == "" {
		problems = append(problems, "author is required")
	}
	if cells[5] == "" {
		problems = append(problems, "content is required")
	}

	rating, err := strconv.Atoi(cells[3])
	if err != nil || rating < 1 || rating > 5 {
		problems = append(problems, "rating must be an integer between 1 and 5")
	}

	if len(problems) > 0 {
		return nil, strings.Join(problems, "; ")
	}

	return &domain.Review{
		ProductNo:   cells[0],
		ProductName: cells[1],
		Author:      cells[2],
		Rating:      rating,
		Title:       cells[4],
		Content:     cells[5],
		IsVisible:   true,
	}, ""
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
