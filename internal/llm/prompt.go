package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/kaikei/internal/model"
)

const systemPrompt = `You are a bookkeeping assistant for Japanese small businesses.
Choose one debit account and one credit account (勘定科目) for the transaction.
Respond with ONLY a JSON object of this exact shape:
{"debit_account": "...", "credit_account": "...", "confidence": 0.0, "reason": "..."}
confidence is a number between 0 and 1. Do not wrap the JSON in markdown.`

// buildMessages renders the conversation for one transaction. Examples are
// listed in the order given, which is most recent first.
func buildMessages(txn model.Transaction, examples []model.Example) []Message {
	var sb strings.Builder

	if len(examples) > 0 {
		sb.WriteString("Past corrections by this client's reviewer (most recent first). Follow them when a transaction is similar:\n")
		for _, ex := range examples {
			fmt.Fprintf(&sb, "- %q => debit %s / credit %s", ex.Summary, ex.Debit(), ex.Credit())
			if ex.ReviewerReason != "" {
				fmt.Fprintf(&sb, " (reason: %s)", ex.ReviewerReason)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Transaction:\n")
	fmt.Fprintf(&sb, "Date: %s\n", txn.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Summary: %s\n", txn.Summary)
	fmt.Fprintf(&sb, "Amount: %s\n", formatAmount(txn.Amount))

	return []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: sb.String()},
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
