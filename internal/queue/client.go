package queue

import "context"

// Client sends email jobs to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
