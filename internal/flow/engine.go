package flow

import "strings"

type stateKind int

const (
	stateMain stateKind = iota
	stateSubflow
	stateWrapUp
	stateFreeform
	stateFreeformMore
	stateFinal
)

// Answer is one collected (step name, caller text) pair.
type Answer struct {
	Name string
	Text string
}

// Engine drives the claim decision tree for a single call. Advance consumes
// one caller utterance and moves the state; NextPrompt projects the state to
// the agent's next line without mutating anything. The engine is not safe
// for concurrent use; the call session serializes access.
type Engine struct {
	kind    stateKind
	mainIdx int
	subKind SubflowKind
	subIdx  int
	answers []Answer
}

// NewEngine starts at the first main-flow step.
func NewEngine() *Engine {
	return &Engine{}
}

// Advance records the caller's utterance and performs one state transition.
func (e *Engine) Advance(text string) {
	switch e.kind {
	case stateMain:
		step := mainFlow[e.mainIdx]
		e.record(step.Name, text)
		if step.Name == "claimType" {
			if kind, ok := Classify(text); ok {
				e.kind = stateSubflow
				e.subKind = kind
				e.subIdx = 0
			} else {
				e.kind = stateFreeform
			}
			return
		}
		e.mainIdx++

	case stateSubflow:
		steps := subflowSteps(e.subKind)
		if e.subIdx == len(steps)-1 {
			// terminal step: the answer is not recorded
			if saidDone(text) {
				e.kind = stateFinal
			} else {
				e.kind = stateWrapUp
			}
			return
		}
		e.record(steps[e.subIdx].Name, text)
		e.subIdx++

	case stateWrapUp, stateFreeform, stateFreeformMore:
		if saidDone(text) {
			e.kind = stateFinal
			return
		}
		if e.kind == stateFreeform {
			e.kind = stateFreeformMore
		}

	case stateFinal:
		// terminal
	}
}

// NextPrompt returns what the agent should say in the current state. In the
// final state this is the claim summary.
func (e *Engine) NextPrompt() string {
	switch e.kind {
	case stateMain:
		return mainFlow[e.mainIdx].Question
	case stateSubflow:
		return subflowSteps(e.subKind)[e.subIdx].Question
	case stateWrapUp:
		return promptWrapUp
	case stateFreeform:
		return promptFreeform
	case stateFreeformMore:
		return promptFreeformMore
	default:
		return e.Summary()
	}
}

// Finalized reports whether the claim is complete. Once true, Advance
// ignores further input.
func (e *Engine) Finalized() bool {
	return e.kind == stateFinal
}

// Answers returns the collected pairs in the order they were given.
func (e *Engine) Answers() []Answer {
	out := make([]Answer, len(e.answers))
	copy(out, e.answers)
	return out
}

// Summary enumerates every collected answer, one line each, in insertion
// order.
func (e *Engine) Summary() string {
	var b strings.Builder
	b.WriteString(summaryHeader)
	for _, a := range e.answers {
		b.WriteString("- ")
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(a.Text)
		b.WriteString("\n")
	}
	b.WriteString(summaryFooter)
	return b.String()
}

func (e *Engine) record(name, text string) {
	e.answers = append(e.answers, Answer{Name: name, Text: text})
}
