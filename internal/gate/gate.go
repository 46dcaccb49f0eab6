// Package gate decides, per turn, whether a lead is ready for handoff
// or whether one more surgical question should be asked first. It holds
// the only mutable state of the qualification flow besides the field
// store: a per-session question counter and the set of refused fields.
package gate

import (
	"strings"

	"leadtriage_backend/internal/intake"
	"leadtriage_backend/internal/quality"
)

// DefaultMaxTurns caps how many gate questions a session gets before
// handoff is forced regardless of grade.
const DefaultMaxTurns = 3

// State is the per-session gate memory. It persists across turns.
type State struct {
	QuestionsAsked int                 `json:"questionsAsked"`
	Refused        map[intake.Key]bool `json:"refused"`
	LastQuestion   intake.Key          `json:"lastQuestion,omitempty"`
}

// NewState returns an empty gate state.
func NewState() *State {
	return &State{Refused: make(map[intake.Key]bool)}
}

// MarkRefusal records that the lead declined to answer for a field.
// Refused fields are never asked again.
func (s *State) MarkRefusal(key intake.Key) {
	if s.Refused == nil {
		s.Refused = make(map[intake.Key]bool)
	}
	s.Refused[key] = true
}

// Clone returns a copy with its own refused set.
func (s *State) Clone() *State {
	out := &State{
		QuestionsAsked: s.QuestionsAsked,
		LastQuestion:   s.LastQuestion,
		Refused:        make(map[intake.Key]bool, len(s.Refused)),
	}
	for k := range s.Refused {
		out.Refused[k] = true
	}
	return out
}

// Decision is the gate outcome for one turn. Exactly one of Proceed or
// Ask is meaningful: when Proceed is false, Ask names the field to
// question next.
type Decision struct {
	Proceed bool       `json:"proceed"`
	Ask     intake.Key `json:"ask,omitempty"`
	Reason  string     `json:"reason"`
}

const (
	ReasonGradeMet      = "grade_met"
	ReasonTurnLimit     = "turn_limit_reached"
	ReasonGapsExhausted = "gaps_exhausted"
	ReasonGapSelected   = "gap_selected"
)

// Decide runs the gate for one turn. The question counter increments
// exactly once per returned question and never on a proceed. maxTurns
// falls back to DefaultMaxTurns when zero or negative.
func Decide(state *State, assessment quality.Assessment, maxTurns int) Decision {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	if assessment.Grade.Acceptable() {
		return Decision{Proceed: true, Reason: ReasonGradeMet}
	}
	if state.QuestionsAsked >= maxTurns {
		return Decision{Proceed: true, Reason: ReasonTurnLimit}
	}

	for _, gap := range assessment.Gaps {
		if state.Refused[gap.Key] {
			continue
		}
		// Never re-issue the question from the previous turn back to back;
		// an unanswered repeat only burns the budget.
		if gap.Key == state.LastQuestion {
			continue
		}
		state.QuestionsAsked++
		state.LastQuestion = gap.Key
		return Decision{Ask: gap.Key, Reason: ReasonGapSelected}
	}

	return Decision{Proceed: true, Reason: ReasonGapsExhausted}
}

// refusalPatterns are the Portuguese phrasings a lead uses to decline a
// question. Matching is substring based on the lowercased message.
var refusalPatterns = []string{
	"não sei",
	"nao sei",
	"não tenho certeza",
	"nao tenho certeza",
	"não informo",
	"nao informo",
	"prefiro não",
	"prefiro nao",
	"não quero",
	"nao quero",
	"pular",
	"próxima",
	"proxima",
	"não importa",
	"nao importa",
	"tanto faz",
	"qualquer",
	"depois",
	"ainda não",
	"ainda nao",
}

// DetectRefusal reports whether a reply declines to provide the asked
// information.
func DetectRefusal(message string) bool {
	lowered := strings.ToLower(strings.TrimSpace(message))
	for _, pattern := range refusalPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
