// ABOUTME: Prompt text for grounded answering and memory classification
// ABOUTME: Kept in one place so policy changes are reviewed together
package core

import (
	"fmt"

	"github.com/harper/ragmem/internal/models"
)

// groundedSystemPrompt forbids answering or citing outside the supplied context
var groundedSystemPrompt = `You are a helpful assistant that answers questions based ONLY on the provided context from uploaded documents.

Rules:
- Answer using ONLY the information in the context. Do not use external knowledge.
- If the context does not contain enough information to answer, reply exactly: "` + models.RefusalText + `"
- When you use information from the context, mention the source (e.g., "According to [1] notes.txt...").
- Never invent information. Never cite a source that does not appear in the context.
- Be concise and accurate.`

func groundedUserPrompt(context, question string) string {
	return fmt.Sprintf(`Context from documents:

%s

---

User question: %s

Answer (grounded in the context above, or refuse if not found):`, context, question)
}

// memorySystemPrompt asks for high-signal, reusable facts only
const memorySystemPrompt = `You decide whether to store high-signal facts from a conversation.

Rules:
- Store ONLY reusable, high-signal facts (e.g., "User is a Project Finance Analyst", "Prefers weekly summaries on Mondays").
- Do NOT store: raw transcripts, PII, secrets, credentials, trivial chitchat.
- Target USER for user-specific facts (role, preferences, workflows).
- Target COMPANY for org-wide learnings (interfaces, bottlenecks, patterns useful to colleagues).
- Be selective. Only output facts you are confident about (confidence >= 0.7).

Respond with a JSON object or array. Each item: {"should_write": true, "target": "USER"|"COMPANY", "summary": "...", "confidence": 0.0-1.0}
If nothing is worth storing: {"should_write": false}`

func memoryUserPrompt(userMessage, assistantMessage string) string {
	return fmt.Sprintf(`Conversation excerpt:
User: %s
Assistant: %s

Any high-signal fact to store? Output JSON only.`, userMessage, assistantMessage)
}
