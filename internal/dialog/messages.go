package dialog

// Fixed user-visible replies. Validation failures get distinct corrective
// wording so the user knows what to fix; everything else is a single
// natural-language message per outcome.
const (
	msgGreeting     = "Welcome to MH Cockpit! To get started, please share your email address."
	msgEmailInvalid = "That doesn't look like a valid email address. Please try again."
	msgEmailSaveErr = "Something went wrong on our side. Please enter your email again."
	msgEmailThanks  = "Thanks! How can I help you with your pilot training today?"

	msgDetailsPrompt = "To continue providing you with accurate details, please share your info in this exact format: " +
		"Name, School, City, Phone Number (example: Rahul, DPS, Chennai, 9876543210)."
	msgDetailsFormat   = "Please use the exact format: Name, School, City, Phone Number."
	msgDetailsPhone    = "That phone number doesn't look valid. Please enter a valid mobile number."
	msgDetailsSaveErr  = "We couldn't save your details just now. Please send them again."
	msgDetailsThanks   = "Thank you! Your details are updated. You can now continue chatting."
	msgLimitExhausted  = "Your query limit has been exhausted. For further details and a personalized counselling session, please contact our office directly."
	msgHighTraffic     = FallbackHighTraffic
	msgUnexpectedError = FallbackUnexpected
)

// Fallback replies shared with the transport layer, which uses them for
// failures that happen before a handler ever runs.
const (
	FallbackHighTraffic = "I'm experiencing high traffic right now. Please try asking again in a moment."
	FallbackUnexpected  = "I apologize, but I'm having trouble accessing that information right now. Could you please try again?"
)
