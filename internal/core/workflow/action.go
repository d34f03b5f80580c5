package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Built-in action types.
const (
	ActionLogMessage = "log_message"
	ActionCallAPI    = "call_api"
)

// ActionFunc runs one action. contextData is shared by all actions of a
// run, so an action may leave values for the ones after it.
type ActionFunc func(ctx context.Context, action Action, contextData map[string]interface{}) error

// ActionExecutor executes workflow actions
type ActionExecutor struct {
	mu         sync.RWMutex
	actions    map[string]ActionFunc
	httpClient *http.Client
}

// NewActionExecutor creates an executor with the built-in actions registered.
func NewActionExecutor() *ActionExecutor {
	e := &ActionExecutor{
		actions:    make(map[string]ActionFunc),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	e.Register(ActionLogMessage, e.executeLogMessage)
	e.Register(ActionCallAPI, e.executeCallAPI)
	return e
}

// Register adds or replaces the handler for an action type.
func (e *ActionExecutor) Register(actionType string, fn ActionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[actionType] = fn
}

// Execute executes a single action with the given context data
func (e *ActionExecutor) Execute(ctx context.Context, action Action, contextData map[string]interface{}) error {
	e.mu.RLock()
	fn, ok := e.actions[action.Type]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown action type: %s", action.Type)
	}

	log.Debug().Str("action", action.Type).Msg("Executing workflow action")
	return fn(ctx, action, contextData)
}

// Run executes actions in order and stops at the first failure. The
// returned entries describe every attempted action.
func (e *ActionExecutor) Run(ctx context.Context, actions []Action, contextData map[string]interface{}) ([]ExecutionLogEntry, error) {
	entries := make([]ExecutionLogEntry, 0, len(actions))
	for _, action := range actions {
		entry := ExecutionLogEntry{
			Timestamp:  time.Now().UTC(),
			Step:       StepActionExecute,
			ActionType: action.Type,
			Status:     EntrySuccess,
		}
		if err := e.Execute(ctx, action, contextData); err != nil {
			entry.Status = EntryFailed
			entry.Error = err.Error()
			entries = append(entries, entry)
			return entries, fmt.Errorf("action %s failed: %w", action.Type, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// executeCallAPI calls an external API
func (e *ActionExecutor) executeCallAPI(ctx context.Context, action Action, contextData map[string]interface{}) error {
	url, ok := action.Config["url"].(string)
	if !ok || url == "" {
		return fmt.Errorf("url is required for call_api action")
	}

	method, ok := action.Config["method"].(string)
	if !ok || method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	if body := action.Config["body"]; body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), ReplaceVariables(url, contextData), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if headers, ok := action.Config["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if strValue, ok := value.(string); ok {
				req.Header.Set(key, strValue)
			}
		}
	}

	if req.Header.Get("Content-Type") == "" && bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API returned error status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// executeLogMessage logs a message
func (e *ActionExecutor) executeLogMessage(_ context.Context, action Action, contextData map[string]interface{}) error {
	message, ok := action.Config["message"].(string)
	if !ok || message == "" {
		return fmt.Errorf("message is required for log_message action")
	}

	log.Info().Str("message", ReplaceVariables(message, contextData)).Msg("Workflow log")
	return nil
}

var variablePattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ReplaceVariables replaces {variable} placeholders with values from
// contextData. Unknown placeholders are left as is.
func ReplaceVariables(template string, contextData map[string]interface{}) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		varName := strings.TrimSpace(strings.Trim(match, "{}"))
		if value, exists := contextData[varName]; exists && value != nil {
			return fmt.Sprintf("%v", value)
		}
		return match
	})
}
