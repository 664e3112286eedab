package flow

import "strings"

// Instructions is the system prompt the speech engine is configured with
// for every call.
const Instructions = "You are a helpful and friendly AI assistant specialized in gathering information for auto insurance claims. You follow a decision tree approach to collect essential claim information. For recognized user input, you should store or parse the user's answers in a stateful conversation. Always confirm the user's statements politely and then ask the next required question."

// Greeting opens every conversation; the first question is never asked
// explicitly, the caller's first utterance is taken as the policy ID.
const Greeting = "Hello there! I am your AI assistant for auto insurance claims. Let's get started!"

const (
	promptFreeform     = "We have minimal details for your claim. Anything else to add? Otherwise say 'done'."
	promptFreeformMore = "Noted. Anything else? Or say 'done' to finalize."
	promptWrapUp       = "We have most details. Say 'done' to finalize or add more info."

	summaryHeader = "Here is the summary of your claim:\n"
	summaryFooter = "Thank you! We'll store these details. Have a wonderful day!"

	doneWord = "done"
)

// Step is one named question in a flow. The name doubles as the key the
// caller's answer is recorded under.
type Step struct {
	Name     string
	Question string
}

// SubflowKind identifies the branch selected by the claim-type answer.
type SubflowKind string

const (
	SubflowCarAccident SubflowKind = "carAccidentFlow"
	SubflowTheft       SubflowKind = "theftFlow"
	SubflowVandalism   SubflowKind = "vandalismFlow"
)

var mainFlow = []Step{
	{Name: "policyId", Question: "First, can you please tell me your policy ID?"},
	{Name: "claimType", Question: "Great, now please describe the nature of your claim: Car accident, theft, or vandalism?"},
}

// Each sub-flow ends with a *Complete step. Its answer is never recorded;
// it only decides between finalizing and one more wrap-up round.
var carAccidentFlow = []Step{
	{Name: "alcoholInvolvement", Question: "Was there any alcohol involved? (yes/no/details)"},
	{Name: "accidentSeverity", Question: "How severe was the accident? (minor, moderate, total loss?)"},
	{Name: "accidentInjuries", Question: "Were there any injuries? If so, please describe briefly."},
	{Name: "accidentComplete", Question: "Thanks. Anything else you'd like to add about the accident?"},
}

var theftFlow = []Step{
	{Name: "theftLocation", Question: "Where did the theft occur? (parking lot, street, home, etc.)"},
	{Name: "theftItemsStolen", Question: "Which items or parts were stolen?"},
	{Name: "theftPoliceReport", Question: "Have you filed a police report? If yes, do you have a report number?"},
	{Name: "theftComplete", Question: "Anything else you wish to add about this theft?"},
}

var vandalismFlow = []Step{
	{Name: "vandalismDetails", Question: "Please describe the vandalism (e.g., broken windows, spray paint)."},
	{Name: "vandalismPoliceReport", Question: "Did you report this vandalism to authorities? If so, any reference?"},
	{Name: "vandalismComplete", Question: "Understood. Anything else to add regarding this vandalism incident?"},
}

func subflowSteps(kind SubflowKind) []Step {
	switch kind {
	case SubflowCarAccident:
		return carAccidentFlow
	case SubflowTheft:
		return theftFlow
	case SubflowVandalism:
		return vandalismFlow
	}
	return nil
}

// Claim-type keywords, checked in declaration order against the lowercased
// answer. "car" wins over later keywords, so "someone keyed my car"
// classifies as a car accident.
var classifications = []struct {
	keyword string
	kind    SubflowKind
}{
	{"car", SubflowCarAccident},
	{"theft", SubflowTheft},
	{"vandalism", SubflowVandalism},
}

// Classify maps a free-form claim-type answer to a sub-flow.
func Classify(answer string) (SubflowKind, bool) {
	lowered := strings.ToLower(answer)
	for _, c := range classifications {
		if strings.Contains(lowered, c.keyword) {
			return c.kind, true
		}
	}
	return "", false
}

func saidDone(text string) bool {
	return strings.Contains(strings.ToLower(text), doneWord)
}
