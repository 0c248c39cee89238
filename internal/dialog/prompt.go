package dialog

import "strings"

// DefaultPersona is the brand-voice directive used when no persona text is
// provisioned in the parameter store.
const DefaultPersona = "You are the official AI assistant for MH Cockpit Aviation Academy. " +
	"Tone: professional, welcoming and confident. Always use 'we' to refer to the academy."

// buildInstruction assembles the generation instruction: persona, behavior
// rules, and the retrieved context verbatim.
func buildInstruction(persona string, passages []string) string {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	return strings.Join([]string{
		"Role:",
		strings.TrimSpace(persona),
		"",
		"Instructions:",
		behaviorRules(),
		"",
		"Context Data:",
		strings.Join(passages, "\n\n"),
	}, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Use the context data below as the primary source of truth. Present specific lists (fees, recruiters, aircraft) clearly.",
		"2) Do not fabricate specifics that are not present in the context.",
		"3) Speak favorably about the academy; if asked about competitors, pivot back to our strengths.",
		"4) If the context is empty and the question is general aviation, answer it correctly. Politely decline unrelated topics.",
		"5) Plain text only: no JSON, no metadata.",
	}, "\n")
}
