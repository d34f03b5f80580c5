package workflow

import "time"

// Condition represents a single condition to evaluate
type Condition struct {
	Field    string      `json:"field"`           // Field to check (e.g., "message", "contact_stage")
	Operator string      `json:"operator"`        // Operator: "equals", "greater_than", "less_than", "contains", etc.
	Value    interface{} `json:"value"`           // Value to compare against
	Logic    string      `json:"logic,omitempty"` // "AND" or "OR" (default: "AND")
}

// Action represents a single action to execute
type Action struct {
	Type   string                 `json:"type"`   // Action type: "send_message", "add_tag", "call_api", etc.
	Config map[string]interface{} `json:"config"` // Action-specific configuration
}

// ExecutionLogEntry represents a single log entry during workflow execution
type ExecutionLogEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Step       string      `json:"step"` // "condition_check", "action_execute", etc.
	ActionType string      `json:"action_type,omitempty"`
	Status     string      `json:"status"` // "success", "failed", "skipped"
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Execution steps and statuses used in ExecutionLogEntry.
const (
	StepConditionCheck = "condition_check"
	StepActionExecute  = "action_execute"

	EntrySuccess = "success"
	EntryFailed  = "failed"
	EntrySkipped = "skipped"
)
