package gatekeeper

import (
	"context"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/llm"
	"nl2sql-grounding/internal/metrics"
	"nl2sql-grounding/internal/schemaindex"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks nl2sql-grounding/internal/gatekeeper LLMClient

// LLMClient sends chat completions to the classification model.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// SchemaSource resolves a database identity to its cached schema.
type SchemaSource interface {
	GetOrBuild(ctx context.Context, identity string) (*schemaindex.Entry, error)
}

const (
	classificationTemperature = 0.1
	classificationMaxTokens   = 200
)

// patternRule maps a pure predicate to a verdict kind.
type patternRule struct {
	name  string
	kind  Kind
	match func(string) bool
}

// Pattern rules in evaluation order; the first match wins.
var patternRules = []patternRule{
	{name: RuleChitChat, kind: ChitChat, match: IsChitChat},
	{name: RuleSchemaQuestion, kind: SchemaQuestion, match: IsSchemaQuestion},
	{name: RuleNegativeFeedback, kind: ChitChat, match: IsNegativeFeedback},
}

// Gatekeeper classifies user messages with fixed patterns, falling back to a
// language model.
type Gatekeeper struct {
	llm     LLMClient
	model   string
	schemas SchemaSource
}

// New creates a Gatekeeper. model may be empty to use the client's default.
func New(client LLMClient, model string, schemas SchemaSource) *Gatekeeper {
	return &Gatekeeper{llm: client, model: model, schemas: schemas}
}

// Classify runs the decision cascade on input. identity may be empty when no
// database is connected. Classify never fails: model errors yield ValidQuery
// with input unchanged.
func (g *Gatekeeper) Classify(ctx context.Context, input, identity string) Verdict {
	logger := contextutil.LoggerFromContext(ctx)

	verdict, matched := g.matchPatterns(ctx, input, identity)
	if !matched {
		verdict = g.classifyWithModel(ctx, input, identity)
	}

	metrics.ObserveGatekeeperVerdict(string(verdict.Kind), verdict.Rule)
	logger.InfoContext(ctx, "input classified",
		"verdict", string(verdict.Kind),
		"rule", verdict.Rule,
	)
	return verdict
}

func (g *Gatekeeper) matchPatterns(ctx context.Context, input, identity string) (Verdict, bool) {
	for _, r := range patternRules {
		if !r.match(input) {
			continue
		}
		v := Verdict{Kind: r.kind, Rule: r.name}
		switch r.name {
		case RuleChitChat:
			v.Reply = greetingReply
		case RuleSchemaQuestion:
			v.Reply = g.schemaReply(ctx, identity)
		case RuleNegativeFeedback:
			v.Reply = TroubleshootingMessage(input)
		}
		return v, true
	}
	return Verdict{}, false
}

func (g *Gatekeeper) schemaReply(ctx context.Context, identity string) string {
	if identity == "" || g.schemas == nil {
		return noDatabaseReply
	}
	entry, err := g.schemas.GetOrBuild(ctx, identity)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "schema overview unavailable", "error", err)
		return schemaErrorReply(err)
	}
	return DescribeSchema(entry.Dialect, entry.Tables)
}

func (g *Gatekeeper) classifyWithModel(ctx context.Context, input, identity string) Verdict {
	logger := contextutil.LoggerFromContext(ctx)
	fallback := Verdict{Kind: ValidQuery, Query: input, Rule: RuleModelFallback}

	if g.llm == nil {
		return fallback
	}

	inventory := "(no database connected)"
	if identity != "" && g.schemas != nil {
		entry, err := g.schemas.GetOrBuild(ctx, identity)
		if err != nil {
			logger.WarnContext(ctx, "classifying without schema inventory", "error", err)
		} else {
			inventory = tableInventory(entry.Tables)
		}
	}

	raw, err := g.llm.ChatWithMessages(ctx, []llm.Message{
		{Role: "user", Content: buildClassificationPrompt(input, inventory)},
	}, llm.ChatParams{
		Model:       g.model,
		Temperature: classificationTemperature,
		MaxTokens:   classificationMaxTokens,
	})
	if err != nil {
		logger.WarnContext(ctx, "classification call failed, passing input through", "error", err)
		return fallback
	}

	verdict, err := parseModelReply(raw, input)
	if err != nil {
		logger.WarnContext(ctx, "classification reply unparseable, passing input through",
			"error", err,
			"reply", raw,
		)
		return fallback
	}
	return verdict
}
