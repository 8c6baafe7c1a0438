// Package mock provides test doubles for the voice.Presence and
// voice.Notifier interfaces.
package mock

import (
	"context"
	"sync"
)

// Presence is a map-backed voice.Presence. The zero value reports nobody in
// any channel.
type Presence struct {
	mu sync.Mutex

	// Channels maps requester IDs to their current voice channel.
	Channels map[string]string

	// Names maps requester IDs to display names. Unknown requesters fall
	// back to their raw ID.
	Names map[string]string
}

// VoiceChannelOf implements voice.Presence.
func (p *Presence) VoiceChannelOf(requesterID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.Channels[requesterID]
	return ch, ok
}

// DisplayName implements voice.Presence.
func (p *Presence) DisplayName(requesterID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.Names[requesterID]; ok {
		return name
	}
	return requesterID
}

// SetChannel places requesterID in channelID; an empty channelID removes
// them from voice.
func (p *Presence) SetChannel(requesterID, channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Channels == nil {
		p.Channels = make(map[string]string)
	}
	if channelID == "" {
		delete(p.Channels, requesterID)
		return
	}
	p.Channels[requesterID] = channelID
}

// Notifier is a recording voice.Notifier.
type Notifier struct {
	mu sync.Mutex

	// Notifications records every Notify text in order.
	Notifications []string

	// StatusTexts records every BeginStatus text in order.
	StatusTexts []string

	// StatusCleared counts invocations of the clear functions returned by
	// BeginStatus.
	StatusCleared int
}

// Notify implements voice.Notifier.
func (n *Notifier) Notify(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notifications = append(n.Notifications, text)
}

// BeginStatus implements voice.Notifier.
func (n *Notifier) BeginStatus(_ context.Context, text string) func() {
	n.mu.Lock()
	n.StatusTexts = append(n.StatusTexts, text)
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.StatusCleared++
	}
}

// Last returns the most recent notification, or "".
func (n *Notifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Notifications) == 0 {
		return ""
	}
	return n.Notifications[len(n.Notifications)-1]
}
