package gatekeeper

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nl2sql-grounding/internal/schema"
)

var errNoJSONObject = errors.New("no JSON object in model reply")

// modelReply is the JSON object the classification model is asked to return.
type modelReply struct {
	Type  string `json:"type"`
	Reply string `json:"reply"`
	Query string `json:"query"`
}

func buildClassificationPrompt(input string, inventory string) string {
	return fmt.Sprintf(`You are an intelligent SQL Assistant Gatekeeper. Classify the user input based on the database schema.

Database tables and columns:
%s

Analyze this user input and determine if it's:
1. CHIT_CHAT - Greeting, small talk, or not a real question
2. OUT_OF_SCOPE - Asks for data NOT in the schema above
3. VALID_QUERY - Asks for data that EXISTS in the schema

User Input: %q

Respond with ONLY ONE of these formats (JSON):

If CHIT_CHAT:
{"type": "CHIT_CHAT", "reply": "Greetings! I am your SQL Assistant. How can I help you with your database?"}

If OUT_OF_SCOPE:
{"type": "OUT_OF_SCOPE", "reply": "Sorry, I cannot find information about [Topic] in the database."}

If VALID_QUERY:
{"type": "VALID_QUERY", "query": "<the user input, optionally rephrased as a clear data question>"}

Response (JSON only):`, inventory, input)
}

// tableInventory lists each table with its column names, one per line.
func tableInventory(tables []schema.Table) string {
	if len(tables) == 0 {
		return "(no tables available)"
	}
	lines := make([]string, len(tables))
	for i, t := range tables {
		lines[i] = fmt.Sprintf("- %s: %s", t.Name, strings.Join(t.ColumnNames(), ", "))
	}
	return strings.Join(lines, "\n")
}

// extractJSON returns the first balanced {...} span of s, skipping braces
// inside JSON strings. Code fences and surrounding prose are ignored.
func extractJSON(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", errNoJSONObject)
}

// parseModelReply converts a raw model reply into a verdict. input is used as
// the query when the model omits one.
func parseModelReply(raw, input string) (Verdict, error) {
	span, err := extractJSON(raw)
	if err != nil {
		return Verdict{}, err
	}
	var reply modelReply
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		return Verdict{}, fmt.Errorf("decode model reply: %w", err)
	}

	switch Kind(strings.ToUpper(strings.TrimSpace(reply.Type))) {
	case ChitChat:
		return Verdict{Kind: ChitChat, Reply: orDefault(reply.Reply, defaultChitChatReply), Rule: RuleModel}, nil
	case OutOfScope:
		return Verdict{Kind: OutOfScope, Reply: orDefault(reply.Reply, defaultOutOfScopeReply), Rule: RuleModel}, nil
	default:
		return Verdict{Kind: ValidQuery, Query: orDefault(reply.Query, input), Rule: RuleModel}, nil
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
