package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"intake-backend/internal/email"
	"intake-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingRecipient indicates a job without a destination address.
type ErrMissingRecipient struct {
	Meta  MessageMeta
	JobID string
}

func (e ErrMissingRecipient) Error() string { return "missing recipient" }

// ErrProcess indicates sending failed after successful parsing.
type ErrProcess struct {
	JobID string
	Err   error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process email job"
	}
	return "process email job: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.To) == "" {
		return queue.Message{}, meta, ErrMissingRecipient{Meta: meta, JobID: msg.JobID}
	}
	return msg, meta, nil
}

// ProcessJob waits out any remaining delay on the job and delivers it.
// The wait is interruptible through ctx so shutdown does not strand a
// goroutine.
func ProcessJob(ctx context.Context, sender email.Sender, msg queue.Message, now func() time.Time) error {
	sendAt := now()
	if raw := strings.TrimSpace(msg.SendAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ErrProcess{JobID: msg.JobID, Err: err}
		}
		sendAt = parsed
	}

	if delay := sendAt.Sub(now()); delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	err := sender.Send(ctx, email.Message{
		To:      msg.To,
		Name:    msg.Name,
		Subject: msg.Subject,
		Body:    msg.Body,
		SendAt:  sendAt,
	})
	if err != nil {
		return ErrProcess{JobID: msg.JobID, Err: err}
	}
	return nil
}
