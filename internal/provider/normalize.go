// ABOUTME: Maps caller-facing model labels to the identifiers each backend expects
// ABOUTME: Pure and total - every (label, kind) pair yields a provider model id

package provider

import "strings"

// Deepseek model identifiers. The family has exactly two members: the chat
// model and the reasoner, which maps to a distinct upstream identifier.
const (
	deepseekChatModel     = "deepseek-chat"
	deepseekReasonerModel = "deepseek-coder-instruct"
)

// Normalize converts a caller-facing model label into the identifier the
// given backend expects. It never fails:
//
//   - openai: labels are case- and whitespace-insensitive; "GPT 4 Turbo"
//     becomes "gpt-4-turbo".
//   - claude, grok: labels are already canonical and pass through unchanged.
//   - deepseek: "deepseek-reasoner" selects the reasoner identifier; any
//     other label deliberately falls back to the chat model rather than
//     erroring.
//   - unknown kinds pass the label through unchanged.
func Normalize(label string, kind Kind) string {
	switch kind {
	case KindOpenAI:
		return strings.Join(strings.Fields(strings.ToLower(label)), "-")
	case KindClaude:
		return label
	case KindDeepseek:
		if strings.EqualFold(label, "deepseek-reasoner") {
			return deepseekReasonerModel
		}
		return deepseekChatModel
	case KindGrok:
		return label
	default:
		return label
	}
}
