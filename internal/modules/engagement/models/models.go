package models

import (
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
)

// All returns every persisted model in dependency order. Used by AutoMigrate
// in tests; production schemas come from the SQL migrations.
func All() []interface{} {
	return []interface{}{
		&auth.User{},
		&Workspace{},
		&WorkspaceMember{},
		&Agent{},
		&Contact{},
		&Deal{},
		&Channel{},
		&Conversation{},
		&Message{},
		&Flow{},
		&FlowNode{},
		&Automation{},
		&AutomationLog{},
		&Broadcast{},
		&BroadcastRecipient{},
		&KnowledgeSource{},
		&Subscription{},
		&Invoice{},
		&APIKey{},
		&jobs.Job{},
		&audit.AuditLog{},
	}
}
