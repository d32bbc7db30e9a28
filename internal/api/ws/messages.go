package ws

import (
	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// Message types sent to clients.
const (
	TypeSystem        = "system"
	TypeFeed          = "feed"
	TypeTopic         = "topic"
	TypeEvents        = "events"
	TypeEventsCleared = "events_cleared"
	TypeAck           = "ack"
	TypePong          = "pong"
	TypeError         = "error"
)

// Request types sent by clients.
const (
	RequestSubscribe   = "subscribe"
	RequestUnsubscribe = "unsubscribe"
	RequestCommand     = "command"
	RequestEvents      = "events"
	RequestPing        = "ping"
)

// Topics forwarded as TypeTopic messages.
const (
	TopicConstants        = "constants"
	TopicConnectionTests  = "connection_tests"
	TopicHSTS             = "hsts"
	TopicONCFileParse     = "onc_file_parse"
	TopicStoreDebugLogs   = "store_debug_logs"
	TopicNetworkDebugMode = "network_debug_mode"
)

// Message is one frame sent to a client.
type Message struct {
	Type      string          `json:"type"`
	ClientID  id.ClientID     `json:"client_id,omitempty"`
	Status    *bridge.Status  `json:"status,omitempty"`
	Feed      bridge.FeedName `json:"feed,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Value     any             `json:"value,omitempty"`
	Entries   []events.Entry  `json:"entries,omitempty"`
	Command   bridge.Command  `json:"command,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Request is one frame received from a client.
type Request struct {
	Type string `json:"type"`

	// subscribe / unsubscribe; an empty list unsubscribes from everything
	Feeds              []bridge.FeedName `json:"feeds,omitempty"`
	NotifyOnlyOnChange bool              `json:"notify_only_on_change,omitempty"`

	// command
	Command string `json:"command,omitempty"`
	Args    []any  `json:"args,omitempty"`

	// events
	Enabled bool `json:"enabled,omitempty"`
}
