package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/google/uuid"

	"intake-backend/internal/queue"
)

// Scheduler registers a deferred follow-up send. Two strategies exist:
// EventBridge hands the message to its own infrastructure which invokes
// the sender at the target time, and the queue strategy enqueues an
// email job that the worker process delivers.
type Scheduler interface {
	Schedule(ctx context.Context, msg Message) error
}

// EventBridgeScheduler creates a one-shot at(...) schedule whose target
// receives the prepared message payload.
type EventBridgeScheduler struct {
	client    *scheduler.Client
	group     string
	targetARN string
	roleARN   string
}

// NewEventBridgeScheduler constructs the EventBridge-backed strategy.
func NewEventBridgeScheduler(ctx context.Context, region, group, targetARN, roleARN string) (*EventBridgeScheduler, error) {
	if strings.TrimSpace(targetARN) == "" {
		return nil, fmt.Errorf("SCHEDULE_TARGET_ARN is required")
	}
	if strings.TrimSpace(roleARN) == "" {
		return nil, fmt.Errorf("SCHEDULE_ROLE_ARN is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &EventBridgeScheduler{
		client:    scheduler.NewFromConfig(cfg),
		group:     group,
		targetARN: targetARN,
		roleARN:   roleARN,
	}, nil
}

type scheduledSendInput struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Schedule registers the one-shot schedule. The schedule deletes itself
// after completion so abandoned rules do not accumulate.
func (s *EventBridgeScheduler) Schedule(ctx context.Context, msg Message) error {
	if msg.SendAt.IsZero() {
		return fmt.Errorf("schedule requires a send time")
	}

	input, err := json.Marshal(scheduledSendInput{
		Email:   msg.To,
		Name:    msg.Name,
		Subject: msg.Subject,
		Message: msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal schedule input: %w", err)
	}

	name := fmt.Sprintf("follow-up-email-%s", uuid.NewString())
	// EventBridge at() expressions take UTC without a zone suffix.
	expression := fmt.Sprintf("at(%s)", msg.SendAt.UTC().Format("2006-01-02T15:04:05"))

	_, err = s.client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:               aws.String(name),
		GroupName:          aws.String(s.group),
		ScheduleExpression: aws.String(expression),
		State:              schedulertypes.ScheduleStateEnabled,
		FlexibleTimeWindow: &schedulertypes.FlexibleTimeWindow{
			Mode: schedulertypes.FlexibleTimeWindowModeOff,
		},
		Target: &schedulertypes.Target{
			Arn:     aws.String(s.targetARN),
			RoleArn: aws.String(s.roleARN),
			Input:   aws.String(string(input)),
		},
		ActionAfterCompletion: schedulertypes.ActionAfterCompletionDelete,
	})
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", name, err)
	}
	return nil
}

// QueueScheduler enqueues the follow-up as an email job; the worker
// process waits out the remaining delay and sends it.
type QueueScheduler struct {
	Queue queue.Client
}

// Schedule encodes the message as a job and hands it to the queue.
func (s *QueueScheduler) Schedule(ctx context.Context, msg Message) error {
	if msg.SendAt.IsZero() {
		return fmt.Errorf("schedule requires a send time")
	}

	job := queue.Message{
		JobID:      uuid.NewString(),
		To:         msg.To,
		Name:       msg.Name,
		Subject:    msg.Subject,
		Body:       msg.Body,
		SendAt:     msg.SendAt.UTC().Format(time.RFC3339),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, job); err != nil {
		return fmt.Errorf("enqueue email job: %w", err)
	}
	return nil
}

var (
	_ Scheduler = (*EventBridgeScheduler)(nil)
	_ Scheduler = (*QueueScheduler)(nil)
)
