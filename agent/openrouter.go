package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mytubes/category"
	"mytubes/internal/logging"
)

const defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the OpenRouter chat completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string

	// HTTPClient may be replaced, mainly for tests.
	HTTPClient *http.Client
}

// NewClient builds an OpenRouter client for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultEndpoint,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Available reports whether the client has credentials to call the API.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Complete sends the message history and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("openrouter not configured")
	}

	body, err := json.Marshal(map[string]any{
		"model":    c.model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logging.Debug("openrouter request", "model", c.model, "messages", len(messages))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openrouter: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("openrouter: API error %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty response")
	}
	return result.Choices[0].Message.Content, nil
}

// ChannelInfo identifies one subscription for the system prompt.
type ChannelInfo struct {
	ID    string
	Title string
}

// Conversation is one chat session. The system prompt is rebuilt on every
// turn so the model always sees the current category state.
type Conversation struct {
	ID      string
	client  *Client
	history []Message
}

// NewConversation starts an empty session against the client.
func NewConversation(client *Client) *Conversation {
	return &Conversation{
		ID:     uuid.NewString(),
		client: client,
	}
}

// Send appends the user's message, queries the model with the full history,
// records the raw reply, and returns it. The caller parses actions out of
// the reply and decides what to show.
func (c *Conversation) Send(ctx context.Context, userText string, col *category.Collection, channels []ChannelInfo) (string, error) {
	c.history = append(c.history, Message{Role: "user", Content: userText})

	messages := make([]Message, 0, len(c.history)+1)
	messages = append(messages, Message{Role: "system", Content: BuildSystemPrompt(col, channels)})
	messages = append(messages, c.history...)

	reply, err := c.client.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	c.history = append(c.history, Message{Role: "assistant", Content: reply})
	return reply, nil
}

// BuildSystemPrompt describes the current categories and assignments so the
// model can reference real IDs in its actions.
func BuildSystemPrompt(col *category.Collection, channels []ChannelInfo) string {
	var catList strings.Builder
	for _, cat := range col.Categories {
		fmt.Fprintf(&catList, "- %q (id: %s, %d channels)\n", cat.Name, cat.ID, len(cat.ChannelIDs))
	}
	cats := strings.TrimRight(catList.String(), "\n")
	if cats == "" {
		cats = "(none)"
	}

	var subList strings.Builder
	for _, ch := range channels {
		label := "Uncategorized"
		if cat, ok := col.ForChannel(ch.ID); ok {
			label = fmt.Sprintf("%s (%s)", cat.Name, cat.ID)
		}
		fmt.Fprintf(&subList, "- %s (id: %s) -> %s\n", ch.Title, ch.ID, label)
	}
	subs := strings.TrimRight(subList.String(), "\n")
	if subs == "" {
		subs = "(none)"
	}

	return fmt.Sprintf(`You are an AI assistant that manages YouTube subscription categories for the MyTubes app.

Current categories:
%s

Current subscriptions and their category assignments:
%s

When the user asks you to manage categories, respond with:
1. A brief human-readable explanation of what you're doing.
2. A JSON action block fenced with `+"```actions ... ```"+` containing an array of operations.

Available actions:
- {"action": "create_category", "name": "Category Name"}
- {"action": "delete_category", "id": "category-id"}
- {"action": "rename_category", "id": "category-id", "name": "New Name"}
- {"action": "assign_channels", "channelIds": ["UC..."], "categoryId": "category-id"}

Rules:
- Category IDs are lowercase with hyphens (e.g. "woodworking", "diy-home").
- When assigning channels, use the exact channel IDs from the subscription list.
- When moving channels to a new category, create it first if it doesn't exist.
- You can include multiple actions in one block. They execute in order.
- If the user asks a question that doesn't require changes, just answer without an action block.
- Be concise in your explanations.`, cats, subs)
}
