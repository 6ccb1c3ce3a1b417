// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/churchnet/calendar-service/internal/domain"
)

// NATSMessage adapts a raw NATS message to the domain.Message interface so
// handlers stay decoupled from the transport.
type NATSMessage struct {
	msg *nats.Msg
}

// NewNATSMessage wraps an incoming NATS message.
func NewNATSMessage(msg *nats.Msg) *NATSMessage {
	return &NATSMessage{msg: msg}
}

// Subject returns the message subject.
func (m *NATSMessage) Subject() string {
	return m.msg.Subject
}

// Data returns the message payload.
func (m *NATSMessage) Data() []byte {
	return m.msg.Data
}

// Respond sends a reply on the message's reply subject.
func (m *NATSMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

// HasReply reports whether the sender expects a reply.
func (m *NATSMessage) HasReply() bool {
	return m.msg.Reply != ""
}

var _ domain.Message = (*NATSMessage)(nil)
