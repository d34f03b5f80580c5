package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
)

// decode unmarshals a job payload into dst.
func decode(job *jobs.Job, dst interface{}) error {
	if err := json.Unmarshal(job.Payload, dst); err != nil {
		return fmt.Errorf("invalid %s payload: %w", job.Type, err)
	}
	return nil
}

// MessageIngestedHandler runs the auto-reply flow for a freshly ingested
// inbound message.
type MessageIngestedHandler struct {
	autoReply *services.AutoReplyService
}

func NewMessageIngestedHandler(autoReply *services.AutoReplyService) *MessageIngestedHandler {
	return &MessageIngestedHandler{autoReply: autoReply}
}

func (h *MessageIngestedHandler) GetType() string { return jobs.TypeMessageIngested }

func (h *MessageIngestedHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var p services.MessageIngestedPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	outcome, err := h.autoReply.HandleIngested(ctx, p)
	if err != nil {
		return err
	}
	log.Debug().
		Str("conversation_id", p.ConversationID.String()).
		Str("outcome", string(outcome)).
		Msg("Inbound message handled")
	return nil
}

// BroadcastDispatchHandler delivers a sending broadcast to its recipients.
type BroadcastDispatchHandler struct {
	broadcasts *services.BroadcastService
}

func NewBroadcastDispatchHandler(broadcasts *services.BroadcastService) *BroadcastDispatchHandler {
	return &BroadcastDispatchHandler{broadcasts: broadcasts}
}

func (h *BroadcastDispatchHandler) GetType() string { return jobs.TypeBroadcastDispatch }

func (h *BroadcastDispatchHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var p services.BroadcastDispatchPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	return h.broadcasts.Dispatch(ctx, p)
}

type KnowledgeProcessHandler struct {
	knowledge *services.KnowledgeService
}

func NewKnowledgeProcessHandler(knowledge *services.KnowledgeService) *KnowledgeProcessHandler {
	return &KnowledgeProcessHandler{knowledge: knowledge}
}

func (h *KnowledgeProcessHandler) GetType() string { return jobs.TypeKnowledgeProcess }

func (h *KnowledgeProcessHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var p services.KnowledgeProcessPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	return h.knowledge.Process(ctx, p)
}
