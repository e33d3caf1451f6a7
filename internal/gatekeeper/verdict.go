// Package gatekeeper decides whether a user message should reach SQL
// generation at all.
package gatekeeper

// Kind is the classification of a user message.
type Kind string

const (
	ChitChat       Kind = "CHIT_CHAT"
	SchemaQuestion Kind = "SCHEMA_QUESTION"
	OutOfScope     Kind = "OUT_OF_SCOPE"
	ValidQuery     Kind = "VALID_QUERY"
)

// Rule names reported with each verdict. Complaints about a previous answer
// are ChitChat verdicts told apart by RuleNegativeFeedback.
const (
	RuleChitChat         = "chit_chat_pattern"
	RuleSchemaQuestion   = "schema_pattern"
	RuleNegativeFeedback = "negative_feedback_pattern"
	RuleModel            = "model"
	RuleModelFallback    = "model_fallback"
)

// Verdict is the outcome of classification. Reply is set for every kind except
// ValidQuery, which carries the query to answer instead.
type Verdict struct {
	Kind  Kind   `json:"type"`
	Reply string `json:"reply,omitempty"`
	Query string `json:"query,omitempty"`
	Rule  string `json:"rule"`
}

// Proceeds reports whether the message should continue to retrieval and generation.
func (v Verdict) Proceeds() bool {
	return v.Kind == ValidQuery
}
