package queue

import "encoding/json"

// Message is one deferred email job handed to the sender worker.
// SendAt and EnqueuedAt are RFC3339 timestamps.
type Message struct {
	JobID      string `json:"jobId"`
	RequestID  string `json:"requestId"`
	To         string `json:"to"`
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SendAt     string `json:"sendAt"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
