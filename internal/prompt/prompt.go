// Package prompt renders the SQL generation prompt.
package prompt

import (
	"fmt"
	"strings"

	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/schema"
)

// AnchorToken opens the answer; the model's completion follows it.
const AnchorToken = "[SQL]"

// StopSequences end generation after the SQL statement.
var StopSequences = []string{"[/SQL]", "###", "\n\n\n"}

// Input holds everything rendered into a prompt.
type Input struct {
	SchemaDDL string
	Values    grounding.Matches
	Dialect   schema.Dialect
	Question  string
}

const instructions = `### Instructions
1. Use ONLY the column names that exist in the schema below
2. Do NOT invent or assume column names
3. Follow the exact table and column names from the schema
4. Use proper JOIN conditions based on foreign key relationships shown in the schema
5. If a column doesn't exist in the schema, you cannot use it
6. Do NOT include example data, sample values, or WHERE clauses with hardcoded temporary data
7. Generate queries that retrieve actual data from the database, not example results
`

// Assemble renders the task, instructions, schema, optional grounded values
// and the answer anchor. Output depends only on in.
func Assemble(in Input) string {
	dialect := in.Dialect
	if dialect == "" {
		dialect = schema.Unknown
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Task\nGenerate a SQL query to answer [QUESTION]%s[/QUESTION]\n\n", in.Question)
	b.WriteString(instructions)
	b.WriteString("### Database Schema\n")
	b.WriteString("The query will run on a database with the following schema:\n")
	fmt.Fprintf(&b, "-- Database dialect: %s\n", dialect)
	b.WriteString(in.SchemaDDL)
	b.WriteString("\n")
	b.WriteString(valuesSection(in.Values))
	fmt.Fprintf(&b, "### Answer\nGiven the database schema, here is the SQL query that answers [QUESTION]%s[/QUESTION]\n", in.Question)
	b.WriteString(AnchorToken)
	b.WriteString("\n")
	return b.String()
}

// valuesSection lists grounded values per column in key order, or returns ""
// when there are none.
func valuesSection(values grounding.Matches) string {
	if values.Count() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n### Context / Matched Values\n")
	b.WriteString("The following actual values from the database match keywords in the user's question.\n")
	b.WriteString("USE THESE EXACT VALUES in your query instead of inventing or guessing values:\n\n")
	for _, key := range values.Keys() {
		matched := values[key]
		if len(matched) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s**:\n", key)
		for _, v := range matched {
			fmt.Fprintf(&b, "  - '%s' (confidence: %d%%)\n", strings.ReplaceAll(v.Value, "'", "''"), v.Confidence)
		}
		b.WriteString("\n")
	}
	return b.String()
}
