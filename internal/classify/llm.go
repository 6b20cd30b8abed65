package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/models"
)

const systemPrompt = `You are a helpful assistant that processes messages and identifies action items.

Analyze the provided message and determine if it contains any action items or tasks that need to be done.

Rules:
1. If the message contains an action item, return is_action_item: true
2. Extract a clear, concise action item (task description)
3. Identify any due dates mentioned (format: YYYY-MM-DD)
4. Determine priority: "low", "medium", or "high" based on urgency
5. If no action item exists, return is_action_item: false

Examples of action items:
- "Review the Q4 budget report by Friday"
- "Deploy the new feature to staging"
- "Schedule a meeting with the marketing team"
- "Don't forget to pickup groceries"

Examples of non-action items:
- "Thanks for your help!"
- "The meeting went well yesterday"
- "Here's the document you requested"

Respond with a JSON object:
{"is_action_item": true/false, "action_item": "...", "due_date": "YYYY-MM-DD" or null, "priority": "low"/"medium"/"high" or null}
Only output the JSON, no other text.`

const defaultClassifyTimeout = 30 * time.Second

// LLMClassifier classifies messages with a chat model.
type LLMClassifier struct {
	model   model.BaseChatModel
	timeout time.Duration
}

// NewLLMClassifier creates a classifier on top of the given chat model. A
// zero timeout falls back to 30s; every call is bounded either way.
func NewLLMClassifier(chatModel model.BaseChatModel, timeout time.Duration) *LLMClassifier {
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	return &LLMClassifier{model: chatModel, timeout: timeout}
}

// Classify renders the message into a prompt, calls the model, and parses the
// response into a Verdict.
func (c *LLMClassifier) Classify(ctx context.Context, msg mail.Message) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: renderMessage(msg)},
	}

	result, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return Verdict{}, &ClassificationError{Err: fmt.Errorf("generate: %w", models.HandleError(err))}
	}

	verdict, err := parseVerdict(result.Content)
	if err != nil {
		return Verdict{}, &ClassificationError{Err: err}
	}
	return verdict, nil
}

func renderMessage(msg mail.Message) string {
	var sb strings.Builder

	subject := msg.Subject
	if subject == "" {
		subject = "N/A"
	}
	fmt.Fprintf(&sb, "Subject: %s\n", subject)
	fmt.Fprintf(&sb, "From: %s\n", msg.Sender)
	if !msg.ReceivedAt.IsZero() {
		fmt.Fprintf(&sb, "Date: %s\n", msg.ReceivedAt.Format("2006-01-02"))
	}
	sb.WriteString("\nContent:\n")
	sb.WriteString(msg.Body)

	return sb.String()
}

// rawVerdict mirrors the model's JSON response. IsActionItem is a pointer so
// a response missing the field is distinguishable from an explicit false.
type rawVerdict struct {
	IsActionItem *bool  `json:"is_action_item"`
	ActionItem   string `json:"action_item"`
	DueDate      string `json:"due_date"`
	Priority     string `json:"priority"`
}

// parseVerdict extracts and validates the JSON verdict from model output.
// Malformed output is an error, never a silent non-actionable verdict.
func parseVerdict(content string) (Verdict, error) {
	jsonText := extractJSON(content)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return Verdict{}, fmt.Errorf("malformed verdict %q: %w", truncate(content, 120), err)
	}
	if raw.IsActionItem == nil {
		return Verdict{}, fmt.Errorf("verdict missing is_action_item field: %q", truncate(content, 120))
	}

	v := Verdict{Actionable: *raw.IsActionItem}
	if !v.Actionable {
		return v, nil
	}

	v.Title = strings.TrimSpace(raw.ActionItem)
	v.DueDate = strings.TrimSpace(raw.DueDate)
	switch p := strings.ToLower(strings.TrimSpace(raw.Priority)); p {
	case "low", "medium", "high":
		v.Priority = p
	}
	return v, nil
}

// extractJSON strips markdown code fences and surrounding prose the model may
// wrap around the JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		var jsonLines []string
		inBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inBlock = !inBlock
				continue
			}
			if inBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		content = strings.Join(jsonLines, "\n")
	}

	// Fall back to the outermost braces when prose surrounds the object.
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
