package dialog

// Step names the single turn handler selected for an inbound message.
type Step string

const (
	StepEmailCollection      Step = "email_collection"
	StepCollectDetailsPrompt Step = "collect_details_prompt"
	StepProcessDetails       Step = "process_details"
	StepAnswerGeneration     Step = "answer_generation"
	StepLimitExhausted       Step = "limit_exhausted"
)
