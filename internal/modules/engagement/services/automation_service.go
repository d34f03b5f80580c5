package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// Engagement actions available to automations next to the workflow
// built-ins.
const (
	ActionAddTag      = "add_tag"
	ActionUpdateStage = "update_stage"
)

type AutomationService struct {
	repo      repositories.AutomationRepo
	contacts  repositories.ContactRepo
	evaluator *workflow.ConditionEvaluator
	executor  *workflow.ActionExecutor
	now       func() time.Time
}

func NewAutomationService(repo repositories.AutomationRepo, contacts repositories.ContactRepo) *AutomationService {
	s := &AutomationService{
		repo:      repo,
		contacts:  contacts,
		evaluator: workflow.NewConditionEvaluator(),
		executor:  workflow.NewActionExecutor(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.executor.Register(ActionAddTag, s.addTag)
	s.executor.Register(ActionUpdateStage, s.updateStage)
	return s
}

func (s *AutomationService) List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Automation, error) {
	automations, err := s.repo.List(ctx, workspaceID, status, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	return automations, nil
}

func (s *AutomationService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateAutomationRequest) (*models.Automation, error) {
	automation := req.ToAutomation(workspaceID)
	if err := s.repo.Create(ctx, automation); err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}
	return automation, nil
}

func (s *AutomationService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Automation, error) {
	automation, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Automation")
	}
	return automation, nil
}

func (s *AutomationService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateAutomationRequest) (*models.Automation, error) {
	automation, err := s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Automation")
	}
	return automation, nil
}

func (s *AutomationService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Automation")
}

// Toggle pauses an active automation and activates any other.
func (s *AutomationService) Toggle(ctx context.Context, workspaceID, id uuid.UUID) (*models.Automation, error) {
	automation, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	next := models.AutomationActive
	if automation.Status == models.AutomationActive {
		next = models.AutomationPaused
	}
	automation, err = s.repo.Update(ctx, workspaceID, id, models.Fields{"status": next})
	if err != nil {
		return nil, notFound(err, "Automation")
	}
	return automation, nil
}

func (s *AutomationService) Logs(ctx context.Context, workspaceID, id uuid.UUID, skip, limit int) ([]models.AutomationLog, error) {
	if _, err := s.Get(ctx, workspaceID, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListLogs(ctx, id, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation logs: %w", err)
	}
	return logs, nil
}

// RunTrigger evaluates every active automation of triggerType in the
// workspace against data. Each automation whose conditions match runs its
// actions and records one log. Returns how many automations ran.
func (s *AutomationService) RunTrigger(ctx context.Context, workspaceID uuid.UUID, triggerType string, data map[string]interface{}) (int, error) {
	automations, err := s.repo.ListActiveByTrigger(ctx, workspaceID, triggerType)
	if err != nil {
		return 0, fmt.Errorf("failed to load automations: %w", err)
	}

	ran := 0
	for i := range automations {
		automation := &automations[i]
		matched, err := s.evaluator.Evaluate([]workflow.Condition(automation.Conditions), data)
		if err != nil {
			s.record(ctx, automation, data, s.now(), nil, err)
			ran++
			continue
		}
		if !matched {
			continue
		}

		startedAt := s.now()
		runData := make(map[string]interface{}, len(data))
		for k, v := range data {
			runData[k] = v
		}
		runData["workspace_id"] = workspaceID.String()
		entries, runErr := s.executor.Run(ctx, []workflow.Action(automation.Actions), runData)
		s.record(ctx, automation, data, startedAt, entries, runErr)
		ran++
	}
	return ran, nil
}

func (s *AutomationService) record(ctx context.Context, automation *models.Automation, data map[string]interface{}, startedAt time.Time, entries []workflow.ExecutionLogEntry, runErr error) {
	completedAt := s.now()
	entry := &models.AutomationLog{
		AutomationID: automation.ID,
		Status:       models.LogSuccess,
		TriggerData:  datatypes.JSONMap(data),
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
	}
	if entries != nil {
		if raw, err := json.Marshal(entries); err == nil {
			entry.ExecutionData = raw
		}
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = models.LogFailed
		entry.ErrorMessage = &msg
	}
	if err := s.repo.RecordRun(ctx, entry); err != nil {
		log.Warn().Err(err).Str("automation_id", automation.ID.String()).Msg("automation run not recorded")
	}
}

func (s *AutomationService) addTag(ctx context.Context, action workflow.Action, data map[string]interface{}) error {
	tag, _ := action.Config["tag"].(string)
	if tag == "" {
		return apperr.BadRequest("add_tag requires a tag")
	}
	contact, err := s.contactFrom(ctx, data)
	if err != nil {
		return err
	}
	for _, t := range contact.Tags {
		if t == tag {
			return nil
		}
	}
	tags := append([]string{}, contact.Tags...)
	_, err = s.contacts.Update(ctx, contact.WorkspaceID, contact.ID, models.Fields{"tags": datatypes.JSONSlice[string](append(tags, tag))})
	return err
}

func (s *AutomationService) updateStage(ctx context.Context, action workflow.Action, data map[string]interface{}) error {
	stage, _ := action.Config["stage"].(string)
	switch models.ContactStage(stage) {
	case models.ContactStageLead, models.ContactStageProspect, models.ContactStageCustomer, models.ContactStageChurned:
	default:
		return apperr.BadRequest("update_stage requires a valid stage")
	}
	contact, err := s.contactFrom(ctx, data)
	if err != nil {
		return err
	}
	_, err = s.contacts.Update(ctx, contact.WorkspaceID, contact.ID, models.Fields{"stage": stage})
	return err
}

func (s *AutomationService) contactFrom(ctx context.Context, data map[string]interface{}) (*models.Contact, error) {
	workspaceID, err := uuid.Parse(fmt.Sprint(data["workspace_id"]))
	if err != nil {
		return nil, fmt.Errorf("automation data has no workspace_id")
	}
	contactID, err := uuid.Parse(fmt.Sprint(data["contact_id"]))
	if err != nil {
		return nil, fmt.Errorf("automation data has no contact_id")
	}
	contact, err := s.contacts.GetByID(ctx, workspaceID, contactID)
	if err != nil {
		return nil, notFound(err, "Contact")
	}
	return contact, nil
}
