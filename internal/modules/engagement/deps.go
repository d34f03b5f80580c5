package engagement

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/cache"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/database"
)

// BuildDeps creates the external collaborators from cfg. Redis and Resend are
// optional; the module runs without them.
func BuildDeps(cfg *config.Config, db *database.DB) (Deps, error) {
	plans, err := config.LoadPlans(cfg.PlansFile)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load plans: %w", err)
	}

	d := Deps{
		Config: cfg,
		GORM:   db.GORM,
		SQL:    db.DB,
		Plans:  plans,
		Sender: messaging.NewGraphClient(cfg.MetaGraphURL),
		LLM:    llm.NewService(cfg.OpenAIKey, cfg.OpenAIBaseURL),
	}

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Redis unavailable, channel lookups are not cached")
		} else {
			d.Cache = redisCache
		}
	}

	if cfg.ResendAPIKey != "" {
		d.Email = email.NewService(email.NewResendProvider(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName), "")
		log.Info().Msg("📧 Using Email provider: resend")
	} else {
		log.Warn().Msg("⚠️ Email service not configured")
	}

	return d, nil
}
