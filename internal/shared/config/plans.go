package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Plan describes one billing plan. The table is loaded once at startup and
// looked up by plan id; it is never mutated afterwards.
type Plan struct {
	ID               string   `yaml:"id" json:"plan"`
	Name             string   `yaml:"name" json:"name"`
	PriceMonthly     float64  `yaml:"price_monthly" json:"price_monthly"`
	PriceYearly      float64  `yaml:"price_yearly" json:"price_yearly"`
	Features         []string `yaml:"features" json:"features"`
	MessagesLimit    int      `yaml:"messages_limit" json:"messages_limit"`
	AgentsLimit      int      `yaml:"agents_limit" json:"agents_limit"`
	TeamMembersLimit int      `yaml:"team_members_limit" json:"team_members_limit"`
	Order            int      `yaml:"order" json:"-"`
}

type plansFile struct {
	DefaultPlan string `yaml:"default_plan"`
	Plans       []Plan `yaml:"plans"`
}

// Plans is a read-only lookup of billing plans keyed by id.
type Plans struct {
	defaultID string
	byID      map[string]Plan
}

// LoadPlans reads the plan table from path. A missing file falls back to the
// built-in table so local setups work without extra files.
func LoadPlans(path string) (*Plans, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("plans file not found, using built-in plan table")
		return DefaultPlans(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return ParsePlans(data)
}

// ParsePlans decodes a YAML plan table.
func ParsePlans(data []byte) (*Plans, error) {
	var f plansFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plans file: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, errors.New("plans file defines no plans")
	}

	p := &Plans{defaultID: f.DefaultPlan, byID: make(map[string]Plan, len(f.Plans))}
	for i, plan := range f.Plans {
		if plan.ID == "" {
			return nil, fmt.Errorf("plan at index %d has no id", i)
		}
		if _, dup := p.byID[plan.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", plan.ID)
		}
		if plan.Order == 0 {
			plan.Order = i + 1
		}
		p.byID[plan.ID] = plan
	}
	if p.defaultID == "" {
		p.defaultID = f.Plans[0].ID
	}
	if _, ok := p.byID[p.defaultID]; !ok {
		return nil, fmt.Errorf("default plan %q is not defined", p.defaultID)
	}
	return p, nil
}

// Get returns the plan with the given id.
func (p *Plans) Get(id string) (Plan, bool) {
	plan, ok := p.byID[id]
	return plan, ok
}

// Default returns the plan assigned to workspaces without a subscription.
func (p *Plans) Default() Plan {
	return p.byID[p.defaultID]
}

// List returns all plans in display order.
func (p *Plans) List() []Plan {
	out := make([]Plan, 0, len(p.byID))
	for _, plan := range p.byID {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// DefaultPlans is the built-in plan table.
func DefaultPlans() *Plans {
	plans := []Plan{
		{ID: "free", Name: "Free", Features: []string{"1,000 messages/month", "1 AI Agent", "Basic analytics"},
			MessagesLimit: 1000, AgentsLimit: 1, TeamMembersLimit: 1, Order: 1},
		{ID: "starter", Name: "Starter", PriceMonthly: 29, PriceYearly: 290,
			Features:      []string{"10,000 messages/month", "3 AI Agents", "Advanced analytics", "Email support"},
			MessagesLimit: 10000, AgentsLimit: 3, TeamMembersLimit: 3, Order: 2},
		{ID: "professional", Name: "Professional", PriceMonthly: 99, PriceYearly: 990,
			Features:      []string{"50,000 messages/month", "10 AI Agents", "Full analytics", "Priority support", "API access"},
			MessagesLimit: 50000, AgentsLimit: 10, TeamMembersLimit: 10, Order: 3},
		{ID: "enterprise", Name: "Enterprise", PriceMonthly: 299, PriceYearly: 2990,
			Features:      []string{"Unlimited messages", "Unlimited AI Agents", "Custom integrations", "Dedicated support", "SLA"},
			MessagesLimit: 999999, AgentsLimit: 999, TeamMembersLimit: 999, Order: 4},
	}
	p := &Plans{defaultID: "free", byID: make(map[string]Plan, len(plans))}
	for _, plan := range plans {
		p.byID[plan.ID] = plan
	}
	return p
}
