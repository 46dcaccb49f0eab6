package gate

import (
	"testing"

	"leadtriage_backend/internal/intake"
	"leadtriage_backend/internal/quality"
)

func assessmentWithGaps(grade quality.Grade, gaps ...quality.Gap) quality.Assessment {
	return quality.Assessment{Grade: grade, Gaps: gaps}
}

func TestDecideProceedsOnAcceptableGrade(t *testing.T) {
	state := NewState()
	a := assessmentWithGaps(quality.GradeB,
		quality.Gap{Key: intake.KeyCondoMax, Severity: quality.SeverityDealbreaker},
	)

	got := Decide(state, a, 0)
	if !got.Proceed || got.Reason != ReasonGradeMet {
		t.Fatalf("decision = %+v, want proceed on grade", got)
	}
	if state.QuestionsAsked != 0 {
		t.Errorf("questions asked = %d, want 0", state.QuestionsAsked)
	}
}

func TestDecideAsksTopRankedGap(t *testing.T) {
	state := NewState()
	a := assessmentWithGaps(quality.GradeC,
		quality.Gap{Key: intake.KeyPaymentType, Severity: quality.SeverityDealbreaker},
		quality.Gap{Key: intake.KeyTimeline, Severity: quality.SeverityCriticalMissing},
	)

	got := Decide(state, a, 0)
	if got.Proceed {
		t.Fatalf("decision = %+v, want a question", got)
	}
	if got.Ask != intake.KeyPaymentType {
		t.Errorf("ask = %q, want payment_type", got.Ask)
	}
	if state.QuestionsAsked != 1 {
		t.Errorf("questions asked = %d, want 1", state.QuestionsAsked)
	}
	if state.LastQuestion != intake.KeyPaymentType {
		t.Errorf("last question = %q, want payment_type", state.LastQuestion)
	}
}

func TestDecideSkipsRefusedFields(t *testing.T) {
	state := NewState()
	state.MarkRefusal(intake.KeyPaymentType)
	a := assessmentWithGaps(quality.GradeD,
		quality.Gap{Key: intake.KeyPaymentType, Severity: quality.SeverityDealbreaker},
		quality.Gap{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
	)

	got := Decide(state, a, 0)
	if got.Ask != intake.KeyBudget {
		t.Errorf("ask = %q, want budget", got.Ask)
	}
}

func TestDecideDoesNotRepeatLastQuestion(t *testing.T) {
	state := NewState()
	a := assessmentWithGaps(quality.GradeD,
		quality.Gap{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
		quality.Gap{Key: intake.KeyTimeline, Severity: quality.SeverityCriticalMissing},
	)

	first := Decide(state, a, 0)
	if first.Ask != intake.KeyBudget {
		t.Fatalf("first ask = %q, want budget", first.Ask)
	}

	second := Decide(state, a, 0)
	if second.Ask != intake.KeyTimeline {
		t.Errorf("second ask = %q, want timeline", second.Ask)
	}
}

func TestDecideForcesProceedAtTurnLimit(t *testing.T) {
	state := NewState()
	a := assessmentWithGaps(quality.GradeD,
		quality.Gap{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
	)
	state.QuestionsAsked = DefaultMaxTurns

	got := Decide(state, a, 0)
	if !got.Proceed || got.Reason != ReasonTurnLimit {
		t.Fatalf("decision = %+v, want forced proceed", got)
	}
}

func TestDecideProceedsWhenAllGapsRefused(t *testing.T) {
	state := NewState()
	state.MarkRefusal(intake.KeyBudget)
	state.MarkRefusal(intake.KeyTimeline)
	a := assessmentWithGaps(quality.GradeD,
		quality.Gap{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
		quality.Gap{Key: intake.KeyTimeline, Severity: quality.SeverityCriticalMissing},
	)

	got := Decide(state, a, 0)
	if !got.Proceed || got.Reason != ReasonGapsExhausted {
		t.Fatalf("decision = %+v, want proceed with gaps exhausted", got)
	}
}

func TestDecideTerminatesWithinBudget(t *testing.T) {
	// Worst case: a low-grade assessment with fresh gaps every turn.
	state := NewState()
	gaps := []quality.Gap{
		{Key: intake.KeyIntent, Severity: quality.SeverityCriticalMissing},
		{Key: intake.KeyCity, Severity: quality.SeverityCriticalMissing},
		{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
		{Key: intake.KeyTimeline, Severity: quality.SeverityCriticalMissing},
		{Key: intake.KeyParking, Severity: quality.SeverityCriticalMissing},
	}
	a := assessmentWithGaps(quality.GradeD, gaps...)

	for call := 1; call <= DefaultMaxTurns+1; call++ {
		if got := Decide(state, a, 0); got.Proceed {
			return
		}
	}
	t.Fatalf("gate did not proceed within %d calls", DefaultMaxTurns+1)
}

func TestDecideCustomTurnLimit(t *testing.T) {
	state := NewState()
	a := assessmentWithGaps(quality.GradeD,
		quality.Gap{Key: intake.KeyBudget, Severity: quality.SeverityCriticalMissing},
		quality.Gap{Key: intake.KeyTimeline, Severity: quality.SeverityCriticalMissing},
	)

	if got := Decide(state, a, 1); got.Proceed {
		t.Fatalf("first call with limit 1 should ask, got %+v", got)
	}
	if got := Decide(state, a, 1); !got.Proceed || got.Reason != ReasonTurnLimit {
		t.Fatalf("second call with limit 1 should proceed, got %+v", got)
	}
}

func TestDetectRefusal(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"não sei", true},
		{"Nao sei ainda", true},
		{"prefiro não dizer", true},
		{"Tanto faz pra mim", true},
		{"pode pular essa", true},
		{"qualquer um serve", true},
		{"uns 800 mil", false},
		{"manaira ou tambau", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := DetectRefusal(tc.message); got != tc.want {
			t.Errorf("DetectRefusal(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
