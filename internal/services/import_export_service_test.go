package services

import (
	"testing"

	"github.com/cfaprep/exam-service/internal/models"
)

func TestParseQuestionRow(t *testing.T) {
	t.Run("mcq row with options and tags", func(t *testing.T) {
		row := []string{
			"mcq", "What is duration?", "", "3", "fixed-income, risk", "Measures price sensitivity.",
			"Price sensitivity", "Coupon rate", "Credit spread", "", "A",
		}

		req, err := parseQuestionRow(row)
		if err != nil {
			t.Fatalf("parseQuestionRow() error = %v", err)
		}

		if req.Type != models.MultipleChoice {
			t.Errorf("Type = %v, want mcq", req.Type)
		}
		if req.TopicID == nil || *req.TopicID != 3 {
			t.Errorf("TopicID = %v, want 3", req.TopicID)
		}
		if len(req.Tags) != 2 || req.Tags[0] != "fixed-income" || req.Tags[1] != "risk" {
			t.Errorf("Tags = %v, want [fixed-income risk]", req.Tags)
		}
		if len(req.Options) != 3 {
			t.Fatalf("expected 3 options, got %d", len(req.Options))
		}
		if !req.Options[0].IsCorrect || req.Options[1].IsCorrect || req.Options[2].IsCorrect {
			t.Error("only option A should be marked correct")
		}
	})

	t.Run("constructed response carries no options", func(t *testing.T) {
		row := []string{"constructed_response", "Explain the dividend discount model."}

		req, err := parseQuestionRow(row)
		if err != nil {
			t.Fatalf("parseQuestionRow() error = %v", err)
		}
		if len(req.Options) != 0 {
			t.Errorf("expected no options, got %d", len(req.Options))
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		if _, err := parseQuestionRow([]string{"essay", "stem"}); err == nil {
			t.Error("expected error for unknown question type")
		}
	})

	t.Run("rejects empty stem", func(t *testing.T) {
		if _, err := parseQuestionRow([]string{"mcq", "  "}); err == nil {
			t.Error("expected error for empty stem")
		}
	})

	t.Run("rejects missing correct letter", func(t *testing.T) {
		row := []string{"mcq", "stem", "", "", "", "", "Option A", "Option B", "", "", ""}
		if _, err := parseQuestionRow(row); err == nil {
			t.Error("expected error when the correct column is empty")
		}
	})

	t.Run("rejects single option", func(t *testing.T) {
		row := []string{"mcq", "stem", "", "", "", "", "Only option", "", "", "", "A"}
		if _, err := parseQuestionRow(row); err == nil {
			t.Error("expected error for fewer than two options")
		}
	})
}

func TestTagsToCell(t *testing.T) {
	if got := tagsToCell([]byte(`["ethics","quant"]`)); got != "ethics, quant" {
		t.Errorf("tagsToCell = %q, want %q", got, "ethics, quant")
	}
	if got := tagsToCell(nil); got != "" {
		t.Errorf("tagsToCell(nil) = %q, want empty", got)
	}
	if got := tagsToCell([]byte("not json")); got != "" {
		t.Errorf("tagsToCell(invalid) = %q, want empty", got)
	}
}

func TestCheckOptionSet(t *testing.T) {
	twoOptions := []OptionRequest{
		{Text: "A", IsCorrect: true},
		{Text: "B"},
	}

	if err := checkOptionSet(models.MultipleChoice, twoOptions); err != nil {
		t.Errorf("valid option set rejected: %v", err)
	}
	if err := checkOptionSet(models.ConstructedResponse, nil); err != nil {
		t.Errorf("constructed response without options rejected: %v", err)
	}
	if err := checkOptionSet(models.ConstructedResponse, twoOptions); err == nil {
		t.Error("constructed response with options should be rejected")
	}
	if err := checkOptionSet(models.MultipleChoice, twoOptions[:1]); err == nil {
		t.Error("single option should be rejected")
	}
	if err := checkOptionSet(models.MultipleChoice, []OptionRequest{{Text: "A", IsCorrect: true}, {Text: "B", IsCorrect: true}}); err == nil {
		t.Error("two correct options should be rejected")
	}
}
