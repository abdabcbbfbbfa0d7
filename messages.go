package hotreload

import (
	"encoding/json"

	"github.com/livefir/hotreload/rsx"
)

// Message kinds exchanged with connected clients.
const (
	MessageUpdateTemplate = "update-template"
	MessageNeedsRebuild   = "needs-rebuild"
	MessageShutdown       = "shutdown"
)

// Message is one patch-channel message. Messages are newline-delimited:
// one JSON value per line on the client's byte stream.
type Message struct {
	Kind     string        `json:"kind"`
	Template *rsx.Template `json:"template,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// UpdateMessage wraps one changed template.
func UpdateMessage(t rsx.Template) Message {
	return Message{Kind: MessageUpdateTemplate, Template: &t}
}

// RebuildMessage signals that no patch is possible and the receiving
// process must be recompiled.
func RebuildMessage(reason string) Message {
	return Message{Kind: MessageNeedsRebuild, Reason: reason}
}

// ShutdownMessage tells clients the watch session is ending.
func ShutdownMessage() Message {
	return Message{Kind: MessageShutdown}
}

// Encode renders the message as one newline-terminated JSON line.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
