package services

import "github.com/google/uuid"

// MessageIngestedPayload is carried by conversation.message_ingested jobs.
type MessageIngestedPayload struct {
	WorkspaceID    uuid.UUID `json:"workspace_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	ContactID      uuid.UUID `json:"contact_id"`
	MessageID      uuid.UUID `json:"message_id"`
	Channel        string    `json:"channel"`
	Text           string    `json:"text"`
}

// BroadcastDispatchPayload is carried by broadcast.dispatch jobs.
type BroadcastDispatchPayload struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	BroadcastID uuid.UUID `json:"broadcast_id"`
}

// KnowledgeProcessPayload is carried by knowledge.process jobs.
type KnowledgeProcessPayload struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	SourceID    uuid.UUID `json:"source_id"`
}
