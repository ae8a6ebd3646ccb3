package validator

import "testing"

type examSettings struct {
	Name             string `validate:"required,min=1,max=200"`
	TimeLimitMinutes *int   `validate:"omitempty,exam_time_limit"`
	PassScorePercent *int   `validate:"omitempty,score_percent"`
}

func TestValidate_ExamTimeLimit(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		minutes int
		wantErr bool
	}{
		{"one minute floor", 1, false},
		{"six hour ceiling", 360, false},
		{"zero rejected", 0, true},
		{"above ceiling rejected", 361, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minutes := tt.minutes
			errs := v.Validate(&examSettings{Name: "Mock Exam", TimeLimitMinutes: &minutes})
			if errs.HasErrors() != tt.wantErr {
				t.Errorf("Validate() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_ScorePercent(t *testing.T) {
	v := New()

	for _, score := range []int{0, 70, 100} {
		s := score
		if errs := v.Validate(&examSettings{Name: "Quiz", PassScorePercent: &s}); errs.HasErrors() {
			t.Errorf("score %d should be valid: %v", score, errs)
		}
	}
	for _, score := range []int{-1, 101} {
		s := score
		if errs := v.Validate(&examSettings{Name: "Quiz", PassScorePercent: &s}); !errs.HasErrors() {
			t.Errorf("score %d should be rejected", score)
		}
	}
}

func TestValidate_FieldNamesAreSnakeCase(t *testing.T) {
	v := New()

	errs := v.Validate(&examSettings{})
	if !errs.HasErrors() {
		t.Fatal("expected a required error for Name")
	}
	if errs[0].Field != "name" {
		t.Errorf("Field = %q, want snake_case %q", errs[0].Field, "name")
	}
}
