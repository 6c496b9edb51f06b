package testutil

import (
	"sync/atomic"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/google/uuid"
)

var stageOrderCounter atomic.Int64

// NewTestProjectType builds a project type fixture.
func NewTestProjectType(name string) *domain.ProjectType {
	now := time.Now().UTC()
	return &domain.ProjectType{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Stage options
type StageOption func(*domain.Stage)

func WithStageOrder(order int) StageOption {
	return func(s *domain.Stage) {
		s.Order = order
	}
}

func WithAssignedRole(role string) StageOption {
	return func(s *domain.Stage) {
		s.AssignedRole = role
	}
}

func WithMaxInstanceHours(h float64) StageOption {
	return func(s *domain.Stage) {
		s.MaxInstanceTimeHours = &h
	}
}

func WithFinal() StageOption {
	return func(s *domain.Stage) {
		s.IsFinal = true
	}
}

func NewTestStage(projectTypeID, name string, opts ...StageOption) *domain.Stage {
	now := time.Now().UTC()
	s := &domain.Stage{
		ID:            uuid.New().String(),
		ProjectTypeID: projectTypeID,
		Name:          name,
		Order:         int(stageOrderCounter.Add(1)),
		Color:         "#83a598",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Project options
type ProjectOption func(*domain.Project)

func WithStartDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = &d
	}
}

func WithDueDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.DueDate = &d
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func NewTestProject(projectTypeID, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:            uuid.New().String(),
		ProjectTypeID: projectTypeID,
		Name:          name,
		Status:        domain.ProjectActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rule options
type RuleOption func(*domain.NotificationRule)

func WithChannel(c domain.Channel) RuleOption {
	return func(r *domain.NotificationRule) {
		r.Channel = c
	}
}

func WithCategory(c domain.Category) RuleOption {
	return func(r *domain.NotificationRule) {
		r.Category = c
	}
}

func WithClientTask() RuleOption {
	return func(r *domain.NotificationRule) {
		r.HasClientTask = true
	}
}

func WithInactive() RuleOption {
	return func(r *domain.NotificationRule) {
		r.IsActive = false
	}
}

func newTestRule(projectTypeID string, trigger domain.RuleTrigger, opts ...RuleOption) *domain.NotificationRule {
	now := time.Now().UTC()
	r := &domain.NotificationRule{
		ID:            uuid.New().String(),
		ProjectTypeID: projectTypeID,
		Category:      domain.CategoryProjectNotification,
		Channel:       domain.ChannelEmail,
		IsActive:      true,
		Trigger:       trigger,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewTestStageRule(projectTypeID, stageID string, on domain.TriggerKind, opts ...RuleOption) *domain.NotificationRule {
	return newTestRule(projectTypeID, domain.StageTrigger{StageID: stageID, On: on}, opts...)
}

func NewTestDateRule(projectTypeID string, ref domain.DateReference, offsetType domain.OffsetType, days int, opts ...RuleOption) *domain.NotificationRule {
	return newTestRule(projectTypeID, domain.DateOffsetTrigger{
		Reference:  ref,
		OffsetType: offsetType,
		OffsetDays: days,
	}, opts...)
}

// Notification options
type NotificationOption func(*domain.ScheduledNotification)

func WithRecipient(id string) NotificationOption {
	return func(n *domain.ScheduledNotification) {
		n.RecipientID = id
	}
}

func WithNotificationChannel(c domain.Channel) NotificationOption {
	return func(n *domain.ScheduledNotification) {
		n.Channel = c
	}
}

func WithHasClientTask() NotificationOption {
	return func(n *domain.ScheduledNotification) {
		n.HasClientTask = true
	}
}

func NewTestNotification(projectID, ruleID string, scheduledFor time.Time, opts ...NotificationOption) *domain.ScheduledNotification {
	now := time.Now().UTC()
	n := &domain.ScheduledNotification{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		RuleID:       ruleID,
		Category:     domain.CategoryProjectNotification,
		Channel:      domain.ChannelEmail,
		TriggerKind:  domain.TriggerDateOffset,
		ScheduledFor: scheduledFor.UTC(),
		Status:       domain.StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}
