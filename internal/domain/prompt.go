package domain

const systemPromptHeader = `You are an assistant answering questions about the team's work logs.
Rules:
- Answer only from the work logs below.
- Cite the work log title and author for each fact you use.
- If the logs do not contain the answer, say so; do not invent information.
- Be concise.

Work logs:
`

// BuildSystemPrompt wraps the assembled context in the fixed instruction header.
func BuildSystemPrompt(context string) string {
	return systemPromptHeader + context
}
