// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm

import "github.com/Thermoquad/chronostat/pkg/clock"

// MessageKind identifies the payload shown in Message mode
type MessageKind uint8

const (
	MessageNone MessageKind = iota
	MessageReset
	MessageUpdateComplete
	MessageUpdateFailed
	MessageSaveFailed
)

func (k MessageKind) String() string {
	switch k {
	case MessageReset:
		return "reset"
	case MessageUpdateComplete:
		return "update complete"
	case MessageUpdateFailed:
		return "update failed"
	case MessageSaveFailed:
		return "save failed"
	default:
		return "none"
	}
}

// Message is a payload of Message mode
type Message struct {
	Kind  MessageKind
	Text  string
	Color Color
}

var (
	messageReset          = Message{Kind: MessageReset, Text: "System Reset!", Color: ColorGreen}
	messageUpdateComplete = Message{Kind: MessageUpdateComplete, Text: "Update Complete!", Color: ColorGreen}
	messageUpdateFailed   = Message{Kind: MessageUpdateFailed, Text: "UART Timeout!", Color: ColorRed}
	messageSaveFailed     = Message{Kind: MessageSaveFailed, Text: "Save failed!", Color: ColorRed}
)

// enterMessage switches to Message mode. serial, when not empty, is sent to
// the serial peer.
func (c *Controller) enterMessage(m Message, serial string) {
	c.log.Info("message", "kind", m.Kind, "from", c.mode)

	for _, r := range []Region{RegionTime, RegionDate, RegionSettings, RegionAlarm, RegionMessage} {
		c.display.Clear(r)
	}
	if serial != "" {
		c.channel.Send(serial)
	}

	c.message = m
	c.messageTicks = c.cfg.MessageTicks
	c.mode = clock.ModeMessage
	c.drawMessage()
	c.drawStatus()
}

// runMessage redraws the payload and counts down its display time
func (c *Controller) runMessage() {
	c.drawMessage()
	if c.messageTicks > 0 {
		c.messageTicks--
	}
	if c.messageTicks == 0 {
		c.leaveMessage()
	}
}

func (c *Controller) leaveMessage() {
	c.display.Clear(RegionMessage)
	c.message = Message{}
	c.messageTicks = 0
	c.log.Info("mode changed", "from", clock.ModeMessage, "to", clock.ModeViewTime)
	c.mode = clock.ModeViewTime
	c.readNow()
}

func (c *Controller) drawMessage() {
	c.display.Draw(Intent{Region: RegionMessage, Text: c.message.Text, Color: c.message.Color})
}
