// Package interpreter turns free-form user text into structured financial
// actions by calling an Azure-OpenAI-style chat-completions deployment.
// The engine treats this as a single blocking round-trip with no retry: any
// transport or decoding failure degrades to Fallback(), never to a hard error.
package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paisa/internal/config"
)

// Kind is an action kind the interpreter may emit. Only INCOME, EXPENSE and
// SALARY correspond to stored ledger entries; the rest are commands.
type Kind string

const (
	KindIncome         Kind = "INCOME"
	KindExpense        Kind = "EXPENSE"
	KindSalary         Kind = "SALARY"
	KindCorrection     Kind = "CORRECTION"
	KindAllocateBudget Kind = "ALLOCATE_BUDGET"
	KindDelete         Kind = "DELETE"
	KindDeleteBudget   Kind = "DELETE_BUDGET"
)

// Action is one structured financial action extracted from user text.
type Action struct {
	Kind            Kind    `json:"type"`
	Amount          float64 `json:"amount"`
	Category        string  `json:"category,omitempty"`
	Date            string  `json:"date,omitempty"` // ISO 8601, only when explicitly mentioned
	Intent          string  `json:"intent"`
	Confidence      float64 `json:"confidence_score"`
	TargetCycleID   uint    `json:"cycle_id,omitempty"`
	IsPartialSalary bool    `json:"is_partial_salary,omitempty"`
}

// Result is the interpreter's full answer for one message.
type Result struct {
	Actions             []Action `json:"transactions"`
	GeneralQuery        string   `json:"general_query,omitempty"`
	ClarificationNeeded string   `json:"clarification_needed,omitempty"`
	Insight             string   `json:"ai_insight,omitempty"`
}

// FallbackInsight is returned whenever the upstream call fails or produces
// unparseable content.
const FallbackInsight = "I hit a slight snag understanding that! Do you have any updates on today's expenses to log?"

// Fallback returns the fixed apologetic result used on upstream failure.
func Fallback() *Result {
	return &Result{Actions: []Action{}, Insight: FallbackInsight}
}

// Client calls the chat-completions deployment.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
	deployment string
	apiVersion string
}

// NewClient creates an interpreter client from application configuration.
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.InterpreterEndpoint, "/"),
		apiKey:     cfg.InterpreterKey,
		deployment: cfg.InterpreterDeployment,
		apiVersion: cfg.InterpreterAPIVersion,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Interpret sends the user message plus financial and conversational context
// upstream and decodes the structured result.
func (c *Client) Interpret(ctx context.Context, message, dataContext, chatHistory string) (*Result, error) {
	reqBody := chatRequest{}
	reqBody.ResponseFormat.Type = "json_object"
	reqBody.Messages = []chatMessage{
		{Role: "system", Content: systemPrompt(dataContext, chatHistory)},
		{Role: "user", Content: message},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.baseURL, c.deployment, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("interpreter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("interpreter returned status %d: %s", resp.StatusCode, body)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("interpreter returned no choices")
	}

	var result Result
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("decode structured actions: %w", err)
	}
	if result.Actions == nil {
		result.Actions = []Action{}
	}
	return &result, nil
}

// systemPrompt builds the instruction block with the current time so the
// model can resolve relative dates, plus the user's financial context and
// recent chat history.
func systemPrompt(dataContext, chatHistory string) string {
	now := time.Now().Format("2006-01-02 15:04:05")
	var b strings.Builder
	b.WriteString("You are a financial reasoning engine and friendly conversational buddy for a single-user expense tracker built around salary cycles.\n")
	b.WriteString("Parse the user's natural language into structured transactional data, and reply naturally.\n\n")
	b.WriteString("CURRENT SYSTEM TIME: " + now + "\n")
	b.WriteString("Use this exact time to resolve relative dates. Output `date` as an absolute ISO string YYYY-MM-DDTHH:MM:SS only when a date is implied or mentioned.\n\n")
	b.WriteString("FINANCIAL CONTEXT (transactions and envelopes in this cycle):\n-----\n" + dataContext + "\n-----\n\n")
	b.WriteString("RECENT CHAT HISTORY:\n-----\n" + chatHistory + "\n-----\n\n")
	b.WriteString("Action types: INCOME, EXPENSE, SALARY, CORRECTION, ALLOCATE_BUDGET, DELETE, DELETE_BUDGET.\n")
	b.WriteString("- Explicit transactions (\"I spent 500 on food\") are logged immediately.\n")
	b.WriteString("- Deduce implicit intent from the chat history (\"yes update the salary\") and emit the corresponding actions.\n")
	b.WriteString("- \"allocate 5000 to food\" is ALLOCATE_BUDGET with amount 5000 and category 'food'.\n")
	b.WriteString("- Corrections (\"actually the food was 1200\") are CORRECTION with the category being corrected and the NEW amount.\n")
	b.WriteString("- Removal requests (\"delete the last food expense\") are DELETE with the details of the transaction to remove.\n")
	b.WriteString("- Partial salary mentions set is_partial_salary to true.\n")
	b.WriteString("- If the user references a past cycle, set cycle_id from the context summary.\n\n")
	b.WriteString("If the user asks about their data, answer in ai_insight. If fields are missing or ambiguous, ask via clarification_needed. ")
	b.WriteString("If the user is just chatting, reply warmly in ai_insight instead of asking for clarification.\n\n")
	b.WriteString(`Output strictly as a JSON object: {"transactions": [{"type": "EXPENSE", "amount": 500, "category": "food", "date": null, "intent": "log food expense", "confidence_score": 0.95, "is_partial_salary": false}], "general_query": null, "clarification_needed": null, "ai_insight": null}`)
	return b.String()
}
