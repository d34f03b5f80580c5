package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// dueBatchSize caps how many scheduled broadcasts one promotion pass starts.
const dueBatchSize = 50

var editableBroadcastStatuses = []models.BroadcastStatus{models.BroadcastDraft, models.BroadcastScheduled}

type BroadcastService struct {
	db       *gorm.DB
	repo     repositories.BroadcastRepo
	contacts repositories.ContactRepo
	enqueuer jobs.Enqueuer
	delivery *Delivery
	now      func() time.Time
}

func NewBroadcastService(db *gorm.DB, enqueuer jobs.Enqueuer, delivery *Delivery) *BroadcastService {
	return &BroadcastService{
		db:       db,
		repo:     repositories.NewBroadcastRepo(db),
		contacts: repositories.NewContactRepo(db),
		enqueuer: enqueuer,
		delivery: delivery,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *BroadcastService) List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Broadcast, error) {
	broadcasts, err := s.repo.List(ctx, workspaceID, status, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	return broadcasts, nil
}

func (s *BroadcastService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateBroadcastRequest) (*models.Broadcast, error) {
	broadcast := req.ToBroadcast(workspaceID)
	if err := s.repo.Create(ctx, broadcast); err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}
	return broadcast, nil
}

func (s *BroadcastService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Broadcast, error) {
	broadcast, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Broadcast")
	}
	return broadcast, nil
}

func (s *BroadcastService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateBroadcastRequest) (*models.Broadcast, error) {
	broadcast, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !broadcast.Status.IsEditable() {
		return nil, apperr.BadRequest("Cannot update sent broadcast")
	}
	broadcast, err = s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Broadcast")
	}
	return broadcast, nil
}

func (s *BroadcastService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Broadcast")
}

// Schedule sets the send time of a draft or scheduled broadcast.
func (s *BroadcastService) Schedule(ctx context.Context, workspaceID, id uuid.UUID, at time.Time) (*models.Broadcast, error) {
	broadcast, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !broadcast.Status.IsEditable() {
		return nil, apperr.BadRequest("Cannot update sent broadcast")
	}
	at = at.UTC()
	if !at.After(s.now()) {
		return nil, apperr.BadRequest("Scheduled time must be in the future")
	}
	broadcast, err = s.repo.Update(ctx, workspaceID, id, models.Fields{
		"status":       models.BroadcastScheduled,
		"scheduled_at": at,
	})
	if err != nil {
		return nil, notFound(err, "Broadcast")
	}
	return broadcast, nil
}

// Send starts delivery now and returns the number of recipients.
func (s *BroadcastService) Send(ctx context.Context, workspaceID, id uuid.UUID) (int, error) {
	broadcast, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return 0, err
	}
	if !broadcast.Status.IsEditable() {
		return 0, apperr.BadRequest("Broadcast already sent or sending")
	}
	return s.start(ctx, broadcast)
}

// PromoteDue starts every scheduled broadcast whose time has come.
func (s *BroadcastService) PromoteDue(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueScheduled(ctx, s.now(), dueBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due broadcasts: %w", err)
	}
	started := 0
	for i := range due {
		if _, err := s.start(ctx, &due[i]); err != nil {
			log.Warn().Err(err).Str("broadcast_id", due[i].ID.String()).Msg("Scheduled broadcast not started")
			continue
		}
		started++
	}
	return started, nil
}

// start moves the broadcast to sending, snapshots its audience as recipients
// and enqueues the dispatch job, all in one transaction.
func (s *BroadcastService) start(ctx context.Context, broadcast *models.Broadcast) (int, error) {
	audience, err := s.audience(ctx, broadcast)
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewBroadcastRepo(tx)
		ok, err := repo.Transition(ctx, broadcast.ID, editableBroadcastStatuses, models.Fields{
			"status":           models.BroadcastSending,
			"total_recipients": len(audience),
			"sent_at":          s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.BadRequest("Broadcast already sent or sending")
		}

		recipients := make([]*models.BroadcastRecipient, 0, len(audience))
		for _, c := range audience {
			recipients = append(recipients, &models.BroadcastRecipient{
				BroadcastID: broadcast.ID,
				ContactID:   c.ID,
				Status:      models.RecipientPending,
			})
		}
		if err := repo.CreateRecipients(ctx, recipients); err != nil {
			return fmt.Errorf("failed to create recipients: %w", err)
		}

		opts := jobs.DefaultEnqueueOptions()
		opts.Queue = jobs.QueueBroadcasts
		opts.WorkspaceID = &broadcast.WorkspaceID
		_, err = s.enqueuer.EnqueueTx(ctx, tx, jobs.TypeBroadcastDispatch, BroadcastDispatchPayload{
			WorkspaceID: broadcast.WorkspaceID,
			BroadcastID: broadcast.ID,
		}, opts)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("broadcast_id", broadcast.ID.String()).
		Int("recipients", len(audience)).
		Msg("Broadcast sending")
	return len(audience), nil
}

// audience resolves the contacts a broadcast targets.
func (s *BroadcastService) audience(ctx context.Context, broadcast *models.Broadcast) ([]models.Contact, error) {
	filter := models.ContactFilter{WorkspaceID: broadcast.WorkspaceID}

	switch broadcast.AudienceType {
	case models.AudienceStage:
		stage, _ := broadcast.AudienceFilter["stage"].(string)
		if stage == "" {
			return nil, apperr.BadRequest("Audience filter requires a stage")
		}
		filter.Stage = stage
	case models.AudienceTag:
		tags := stringList(broadcast.AudienceFilter["tags"])
		if len(tags) == 0 {
			return nil, apperr.BadRequest("Audience filter requires tags")
		}
		seen := map[uuid.UUID]bool{}
		var out []models.Contact
		for _, tag := range tags {
			filter.Tag = tag
			contacts, err := s.contacts.List(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve audience: %w", err)
			}
			for _, c := range contacts {
				if !seen[c.ID] {
					seen[c.ID] = true
					out = append(out, c)
				}
			}
		}
		return out, nil
	}

	contacts, err := s.contacts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audience: %w", err)
	}
	return contacts, nil
}

// Dispatch delivers a sending broadcast to its pending recipients and
// settles the final status.
func (s *BroadcastService) Dispatch(ctx context.Context, p BroadcastDispatchPayload) error {
	broadcast, err := s.Get(ctx, p.WorkspaceID, p.BroadcastID)
	if err != nil {
		return err
	}
	if broadcast.Status != models.BroadcastSending {
		log.Debug().Str("broadcast_id", broadcast.ID.String()).Str("status", string(broadcast.Status)).Msg("Broadcast not sending, dispatch skipped")
		return nil
	}

	recipients, err := s.repo.ListRecipients(ctx, broadcast.ID, string(models.RecipientPending), 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}
	for i := range recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.deliverTo(ctx, broadcast, &recipients[i])
	}

	stats, err := s.repo.RefreshStats(ctx, broadcast.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh stats: %w", err)
	}
	final := models.BroadcastSent
	if stats.TotalRecipients > 0 && stats.FailedCount == stats.TotalRecipients {
		final = models.BroadcastFailed
	}
	if _, err := s.repo.Transition(ctx, broadcast.ID, []models.BroadcastStatus{models.BroadcastSending}, models.Fields{"status": final}); err != nil {
		return fmt.Errorf("failed to finish broadcast: %w", err)
	}

	log.Info().
		Str("broadcast_id", broadcast.ID.String()).
		Int("sent", stats.SentCount).
		Int("failed", stats.FailedCount).
		Msg("Broadcast dispatched")
	return nil
}

func (s *BroadcastService) deliverTo(ctx context.Context, broadcast *models.Broadcast, recipient *models.BroadcastRecipient) {
	changes := models.Fields{}
	contact, err := s.contacts.GetByID(ctx, broadcast.WorkspaceID, recipient.ContactID)
	address := ""
	if err == nil {
		address = channelAddress(contact, broadcast.Channel)
	}

	switch {
	case err != nil:
		changes["status"] = models.RecipientFailed
		changes["error_message"] = "Contact not found"
	case address == "":
		changes["status"] = models.RecipientFailed
		changes["error_message"] = fmt.Sprintf("Contact has no %s address", broadcast.Channel)
	default:
		messageID, sendErr := s.delivery.Send(ctx, broadcast.WorkspaceID, broadcast.Channel, address, broadcast.MessageContent)
		if sendErr != nil {
			changes["status"] = models.RecipientFailed
			changes["error_message"] = sendErr.Error()
		} else {
			changes["status"] = models.RecipientSent
			changes["sent_at"] = s.now()
			if messageID != "" {
				changes["channel_message_id"] = messageID
			}
		}
	}

	if err := s.repo.UpdateRecipient(ctx, recipient.ID, changes); err != nil {
		log.Warn().Err(err).Str("recipient_id", recipient.ID.String()).Msg("Recipient status not saved")
	}
}

// Stats returns the delivery counters stored on the broadcast.
func (s *BroadcastService) Stats(ctx context.Context, workspaceID, id uuid.UUID) (*models.BroadcastStats, error) {
	b, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	return &models.BroadcastStats{
		TotalRecipients: b.TotalRecipients,
		SentCount:       b.SentCount,
		DeliveredCount:  b.DeliveredCount,
		ReadCount:       b.ReadCount,
		FailedCount:     b.FailedCount,
		OpenRate:        b.OpenRate,
		ClickRate:       b.ClickRate,
	}, nil
}

func (s *BroadcastService) Recipients(ctx context.Context, workspaceID, id uuid.UUID, status string, skip, limit int) ([]models.BroadcastRecipient, error) {
	if _, err := s.Get(ctx, workspaceID, id); err != nil {
		return nil, err
	}
	recipients, err := s.repo.ListRecipients(ctx, id, status, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}

// channelAddress returns the recipient id a channel delivers to.
func channelAddress(c *models.Contact, channel models.ChannelType) string {
	switch channel {
	case models.ChannelWhatsApp:
		if c.WhatsAppID != nil && *c.WhatsAppID != "" {
			return *c.WhatsAppID
		}
		return deref(c.Phone)
	case models.ChannelInstagram:
		return deref(c.InstagramID)
	case models.ChannelMessenger:
		return deref(c.MessengerID)
	}
	return ""
}

// stringList reads a JSON array of strings decoded into interface values.
func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if list != "" {
			return []string{list}
		}
	}
	return nil
}
