// Package cache provides a redis read-through cache for the policy table
// and the business calendar. Both are read on every tracked ticket
// creation and written only by admins, so cache hits dominate.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

const (
	policiesKey = "sla:policies:active"
	dayRulesKey = "sla:calendar:day_rules"
	holidaysKey = "sla:calendar:holidays"
)

// SLACache serves active policies and calendar data, falling back to the
// repositories on miss or when redis is unavailable. Cache failures are
// logged and never surface to callers.
type SLACache struct {
	client   *redis.Client
	policies repository.PolicyRepository
	calendar repository.CalendarRepository
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSLACache builds the cache. A nil client degrades to direct reads.
func NewSLACache(client *redis.Client, policies repository.PolicyRepository, calendar repository.CalendarRepository, ttl time.Duration, logger *zap.Logger) *SLACache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SLACache{client: client, policies: policies, calendar: calendar, ttl: ttl, logger: logger}
}

// ActivePolicyByPriority returns the active policy for a priority, or a
// POLICY_NOT_FOUND error when none exists.
func (c *SLACache) ActivePolicyByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	policies, err := c.ActivePolicies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range policies {
		if policies[i].Priority == priority {
			return &policies[i], nil
		}
	}
	return nil, apperrors.NewPolicyNotFound(string(priority))
}

// ActivePolicies returns all active policies.
func (c *SLACache) ActivePolicies(ctx context.Context) ([]domain.SLAPolicy, error) {
	var cached []domain.SLAPolicy
	if c.lookup(ctx, policiesKey, &cached) {
		return cached, nil
	}
	policies, err := c.policies.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, policiesKey, policies)
	return policies, nil
}

// DayRules returns the weekly calendar rules.
func (c *SLACache) DayRules(ctx context.Context) ([]domain.DayRule, error) {
	var cached []domain.DayRule
	if c.lookup(ctx, dayRulesKey, &cached) {
		return cached, nil
	}
	rules, err := c.calendar.ListDayRules(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, dayRulesKey, rules)
	return rules, nil
}

// Holidays returns the holiday set.
func (c *SLACache) Holidays(ctx context.Context) ([]domain.Holiday, error) {
	var cached []domain.Holiday
	if c.lookup(ctx, holidaysKey, &cached) {
		return cached, nil
	}
	holidays, err := c.calendar.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, holidaysKey, holidays)
	return holidays, nil
}

// Invalidate drops all cached SLA configuration after an admin write.
func (c *SLACache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, policiesKey, dayRulesKey, holidaysKey).Err(); err != nil {
		c.logger.Warn("sla cache invalidation failed", zap.Error(err))
	}
}

func (c *SLACache) lookup(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("sla cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("sla cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *SLACache) store(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("sla cache write failed", zap.String("key", key), zap.Error(err))
	}
}
