package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

const questionSheetName = "Questions"

// Column layout of the question workbook. Options hold up to four choices;
// the correct column names the winning letter (A-D).
var questionSheetHeader = []string{
	"Type", "Stem", "Vignette", "TopicID", "Tags", "Explanation",
	"Option A", "Option B", "Option C", "Option D", "Correct",
}

type importExportService struct {
	repo      repositories.Repository
	questions QuestionService
	validator *validator.Validator
	logger    *slog.Logger
}

func NewImportExportService(repo repositories.Repository, questions QuestionService, v *validator.Validator, logger *slog.Logger) ImportExportService {
	return &importExportService{
		repo:      repo,
		questions: questions,
		validator: v,
		logger:    logger,
	}
}

// ImportQuestionsXLSX reads a question workbook and creates the rows that
// parse cleanly. Bad rows are reported per row number and skipped; they never
// abort the rest of the file.
func (s *importExportService) ImportQuestionsXLSX(ctx context.Context, data []byte, creatorID string) (*ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := questionSheetName
	if idx, idxErr := f.GetSheetIndex(sheet); idxErr != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		if isEmptyRow(row) {
			continue
		}

		req, parseErr := parseQuestionRow(row)
		if parseErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, parseErr))
			continue
		}

		if _, createErr := s.questions.Create(ctx, req, creatorID); createErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, createErr))
			continue
		}
		result.Imported++
	}

	s.logger.Info("question import finished",
		"imported", result.Imported, "skipped", result.Skipped, "created_by", creatorID)
	return result, nil
}

// ExportQuestionsXLSX writes the filtered question bank into a workbook
func (s *importExportService) ExportQuestionsXLSX(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error) {
	// Export ignores pagination; it always covers the whole filtered set.
	filters.Limit = 0
	filters.Offset = 0

	questions, _, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(questionSheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")

	for col, title := range questionSheetHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(questionSheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, question := range questions {
		if err := writeQuestionRow(f, i+2, question); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("question export finished", "questions", len(questions))
	return buf.Bytes(), nil
}

func parseQuestionRow(row []string) (*CreateQuestionRequest, error) {
	qType := models.QuestionType(strings.TrimSpace(cellAt(row, 0)))
	switch qType {
	case models.MultipleChoice, models.VignetteChoice, models.ConstructedResponse:
	default:
		return nil, fmt.Errorf("unknown question type %q", cellAt(row, 0))
	}

	stem := strings.TrimSpace(cellAt(row, 1))
	if stem == "" {
		return nil, fmt.Errorf("stem is empty")
	}

	req := &CreateQuestionRequest{
		Type: qType,
		Stem: stem,
	}

	if vignette := strings.TrimSpace(cellAt(row, 2)); vignette != "" {
		req.VignetteText = &vignette
	}
	if topicCell := strings.TrimSpace(cellAt(row, 3)); topicCell != "" {
		topicID, err := strconv.ParseUint(topicCell, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid topic id %q", topicCell)
		}
		id := uint(topicID)
		req.TopicID = &id
	}
	if tagsCell := strings.TrimSpace(cellAt(row, 4)); tagsCell != "" {
		for _, tag := range strings.Split(tagsCell, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}
	if explanation := strings.TrimSpace(cellAt(row, 5)); explanation != "" {
		req.Explanation = &explanation
	}

	if !qType.IsOptionBased() {
		return req, nil
	}

	correct := strings.ToUpper(strings.TrimSpace(cellAt(row, 10)))
	if len(correct) != 1 || correct[0] < 'A' || correct[0] > 'D' {
		return nil, fmt.Errorf("correct column must name one of A-D, got %q", cellAt(row, 10))
	}
	correctIdx := int(correct[0] - 'A')

	for i := 0; i < 4; i++ {
		text := strings.TrimSpace(cellAt(row, 6+i))
		if text == "" {
			continue
		}
		req.Options = append(req.Options, OptionRequest{
			Text:      text,
			IsCorrect: i == correctIdx,
			Position:  i,
		})
	}
	if len(req.Options) < 2 {
		return nil, fmt.Errorf("option based questions need at least two options")
	}

	return req, nil
}

func writeQuestionRow(f *excelize.File, rowNum int, question *models.Question) error {
	values := make([]interface{}, len(questionSheetHeader))
	values[0] = string(question.Type)
	values[1] = question.Stem
	if question.VignetteText != nil {
		values[2] = *question.VignetteText
	}
	if question.TopicID != nil {
		values[3] = *question.TopicID
	}
	values[4] = tagsToCell(question.Tags)
	if question.Explanation != nil {
		values[5] = *question.Explanation
	}
	for i, option := range question.Options {
		if i >= 4 {
			break
		}
		values[6+i] = option.Text
		if option.IsCorrect {
			values[10] = string(rune('A' + i))
		}
	}

	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(questionSheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
	}
	return nil
}

func tagsToCell(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return ""
	}
	return strings.Join(tags, ", ")
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
