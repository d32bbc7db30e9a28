package bridge

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/constants"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// Host is the outbound half of the channel to the host process. Delivery is
// fire-and-forget: the bridge logs a failed Send and moves on.
type Host interface {
	Send(msg Outbound) error
}

// LogSink receives batches of host log entries.
type LogSink interface {
	AddLogEntries(entries []any)
}

// Platform names used to decide which platform-specific feeds exist.
const (
	PlatformWindows  = "windows"
	PlatformChromeOS = "chromeos"
	PlatformLinux    = "linux"
	PlatformMac      = "mac"
)

// Options configures a Bridge.
type Options struct {
	// Platform of the host; serviceProviders only exists on Windows.
	Platform string
	Logger   *logging.Logger
}

// Bridge is the gateway to the host process.
type Bridge struct {
	host     Host
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	platform string

	feeds     map[FeedName]*Feed
	feedOrder []FeedName
	handlers  map[Kind]func(payload any)

	constantsTopic        *Topic[*constants.Constants]
	connectionTestsTopic  *Topic[ConnectionTestEvent]
	hstsTopic             *Topic[any]
	oncFileParseTopic     *Topic[any]
	storeDebugLogsTopic   *Topic[any]
	networkDebugModeTopic *Topic[any]
	logSink               LogSink

	scheduler *scheduler

	mu          sync.Mutex
	disabled    bool
	constants   *constants.Constants
	pending     []Message
	replayed    bool
	inbox       []Message
	dispatching bool
}

// New creates a bridge sending through host.
func New(host Host, opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	b := &Bridge{
		host:                  host,
		logger:                logger.For("bridge"),
		platform:              opts.Platform,
		feeds:                 make(map[FeedName]*Feed),
		constantsTopic:        newTopic[*constants.Constants](),
		connectionTestsTopic:  newTopic[ConnectionTestEvent](),
		hstsTopic:             newTopic[any](),
		oncFileParseTopic:     newTopic[any](),
		storeDebugLogsTopic:   newTopic[any](),
		networkDebugModeTopic: newTopic[any](),
	}
	b.scheduler = newScheduler(func(live func() bool) { b.pollFeeds(false, live) })

	b.handlers = map[Kind]func(any){
		KindConstants:  b.receivedConstants,
		KindLogEntries: b.receivedLogEntries,
		KindStartConnectionTestSuite: func(any) {
			b.connectionTestsTopic.publish(ConnectionTestEvent{Phase: SuiteStarted})
		},
		KindStartConnectionTestExperiment: func(experiment any) {
			b.connectionTestsTopic.publish(ConnectionTestEvent{Phase: ExperimentStarted, Experiment: experiment})
		},
		KindCompletedConnectionTestExperiment: b.receivedCompletedConnectionTestExperiment,
		KindCompletedConnectionTestSuite: func(any) {
			b.connectionTestsTopic.publish(ConnectionTestEvent{Phase: SuiteCompleted})
		},
		KindHSTSResult:          b.hstsTopic.publish,
		KindONCFileParse:        b.oncFileParseTopic.publish,
		KindStoreDebugLogs:      b.storeDebugLogsTopic.publish,
		KindSetNetworkDebugMode: b.networkDebugModeTopic.publish,
	}

	for _, spec := range feedSpecs {
		spec := spec
		if spec.windowsOnly && b.platform != PlatformWindows {
			b.handlers[spec.answer] = func(any) {
				b.logger.Debug("Dropping answer for feed absent on this platform",
					zap.String("feed", string(spec.name)),
					zap.String("platform", b.platform),
				)
			}
			continue
		}
		feed := NewFeed(spec.name, func() {
			if err := b.Send(spec.refresh); err != nil {
				b.logger.Error("Feed refresh rejected", zap.String("feed", string(spec.name)), zap.Error(err))
			}
		})
		feed.onPoll = b.recordFeedPoll
		feed.onValue = b.recordFeedUpdate
		b.feeds[spec.name] = feed
		b.feedOrder = append(b.feedOrder, spec.name)
		b.handlers[spec.answer] = feed.Update
	}

	return b
}

// WithMetrics attaches a metrics collector.
func (b *Bridge) WithMetrics(metrics *monitoring.Metrics) *Bridge {
	b.metrics = metrics
	return b
}

// WithLogSink routes host log entries to sink.
func (b *Bridge) WithLogSink(sink LogSink) *Bridge {
	b.logSink = sink
	return b
}

// ----------------------------------------------------------------------------
// Messages sent to the host
// ----------------------------------------------------------------------------

// Send forwards a command to the host unchanged. It does nothing once the
// bridge is disabled. Unknown commands and wrong argument counts are
// programming errors and are returned as such; transport failures are only
// logged.
func (b *Bridge) Send(cmd Command, args ...any) error {
	arity, ok := cmd.Arity()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	if len(args) != arity {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrUnsupportedArity, cmd, arity, len(args))
	}
	if b.IsDisabled() {
		return nil
	}

	if err := b.host.Send(Outbound{Command: cmd, Args: args}); err != nil {
		b.logger.Warn("Host send failed", zap.String("command", string(cmd)), zap.Error(err))
		if b.metrics != nil {
			b.metrics.RecordSendError(string(cmd))
		}
		return nil
	}
	if b.metrics != nil {
		b.metrics.RecordCommandSent(string(cmd))
	}
	return nil
}

// SendReady tells the host the daemon is ready for log events and starts
// polling at the default interval.
func (b *Bridge) SendReady() error {
	if err := b.Send(CmdNotifyReady); err != nil {
		return err
	}
	b.SetPollInterval(DefaultPollInterval)
	return nil
}

// ----------------------------------------------------------------------------
// Messages received from the host
// ----------------------------------------------------------------------------

// Dispatch delivers one message from the host. Unknown message names are
// rejected. Until a valid constants message has been handled, every other
// message is buffered; the buffer is replayed in arrival order right after
// the constants are handled.
//
// Dispatch is not reentrant: a message dispatched while another is being
// handled, from a handler or another goroutine, is queued and handled after
// the current one (and any replay it triggers) completes.
func (b *Bridge) Dispatch(command string, payload any) error {
	kind, err := ParseKind(command)
	if err != nil {
		b.recordMessage(command, "rejected")
		return err
	}

	b.mu.Lock()
	if b.disabled {
		b.mu.Unlock()
		b.recordMessage(command, "dropped")
		return nil
	}
	b.inbox = append(b.inbox, Message{Kind: kind, Payload: payload})
	if b.dispatching {
		b.mu.Unlock()
		return nil
	}
	b.dispatching = true

	for len(b.inbox) > 0 && !b.disabled {
		msg := b.inbox[0]
		b.inbox = b.inbox[1:]
		b.mu.Unlock()
		b.process(msg)
		b.mu.Lock()
	}
	dropped := b.inbox
	b.inbox = nil
	b.dispatching = false
	b.mu.Unlock()

	for _, msg := range dropped {
		b.recordMessage(string(msg.Kind), "dropped")
	}
	return nil
}

func (b *Bridge) process(msg Message) {
	b.mu.Lock()
	if b.disabled {
		b.mu.Unlock()
		b.recordMessage(string(msg.Kind), "dropped")
		return
	}
	if b.constants == nil && msg.Kind != KindConstants {
		b.pending = append(b.pending, msg)
		n := len(b.pending)
		b.mu.Unlock()
		b.recordMessage(string(msg.Kind), "buffered")
		if b.metrics != nil {
			b.metrics.SetPendingMessages(n)
		}
		return
	}
	b.mu.Unlock()

	b.handle(msg, "handled")
	if msg.Kind == KindConstants {
		b.replayPending()
	}
}

// replayPending handles buffered messages once, after the first valid
// constants. The buffer is discarded for good afterwards.
func (b *Bridge) replayPending() {
	b.mu.Lock()
	if b.constants == nil || b.replayed {
		b.mu.Unlock()
		return
	}
	queue := b.pending
	b.pending = nil
	b.replayed = true
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SetPendingMessages(0)
	}
	if len(queue) > 0 {
		b.logger.Debug("Replaying messages received before constants", zap.Int("count", len(queue)))
	}
	for _, msg := range queue {
		if b.IsDisabled() {
			b.recordMessage(string(msg.Kind), "dropped")
			continue
		}
		b.handle(msg, "replayed")
	}
}

func (b *Bridge) handle(msg Message, outcome string) {
	b.handlers[msg.Kind](msg.Payload)
	b.recordMessage(string(msg.Kind), outcome)
}

func (b *Bridge) receivedConstants(payload any) {
	c, err := constants.Parse(payload)
	if err != nil {
		b.logger.Warn("Discarding malformed constants", zap.Error(err))
		return
	}
	for _, w := range c.Warnings {
		b.logger.Warn("Constants entry ignored", zap.String("reason", w))
	}

	b.mu.Lock()
	b.constants = c
	b.mu.Unlock()

	b.logger.Info("Received constants",
		zap.Int("log_format_version", c.LogFormatVersion),
		zap.Int("event_types", len(c.LogEventTypes)),
	)
	b.constantsTopic.publish(c)
}

func (b *Bridge) receivedLogEntries(payload any) {
	entries, ok := payload.([]any)
	if !ok {
		b.logger.Warn("Log entries payload is not a list", zap.String("type", fmt.Sprintf("%T", payload)))
		return
	}
	if b.logSink == nil {
		return
	}
	b.logSink.AddLogEntries(entries)
}

func (b *Bridge) receivedCompletedConnectionTestExperiment(payload any) {
	event := ConnectionTestEvent{Phase: ExperimentCompleted}
	if info, ok := payload.(map[string]any); ok {
		event.Experiment = info["experiment"]
		event.Result = info["result"]
	}
	b.connectionTestsTopic.publish(event)
}

// ----------------------------------------------------------------------------
// Lifecycle and state
// ----------------------------------------------------------------------------

// Disable stops all traffic with the host for good: nothing more is sent,
// received messages are dropped, and polling stops. Used when viewing a
// loaded log so it is not mixed with live state.
func (b *Bridge) Disable() {
	b.mu.Lock()
	if b.disabled {
		b.mu.Unlock()
		return
	}
	b.disabled = true
	b.pending = nil
	b.mu.Unlock()

	// Outside b.mu: a running poll tick may be waiting on it.
	b.scheduler.set(0)
	if b.metrics != nil {
		b.metrics.SetBridgeDisabled()
		b.metrics.SetPendingMessages(0)
	}
	b.logger.Info("Bridge disabled")
}

// IsDisabled reports whether Disable has been called.
func (b *Bridge) IsDisabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// Constants returns the validated constants, or nil before the handshake.
func (b *Bridge) Constants() *constants.Constants {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.constants
}

// PendingCount returns how many messages wait for the handshake.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Platform returns the host platform the bridge was configured for.
func (b *Bridge) Platform() string {
	return b.platform
}

// Status summarizes the bridge for status endpoints.
type Status struct {
	Disabled          bool          `json:"disabled"`
	HandshakeComplete bool          `json:"handshake_complete"`
	PendingMessages   int           `json:"pending_messages"`
	PollInterval      time.Duration `json:"poll_interval_ns"`
	Platform          string        `json:"platform"`
	Feeds             int           `json:"feeds"`
}

// Status returns the current bridge state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	s := Status{
		Disabled:          b.disabled,
		HandshakeComplete: b.constants != nil,
		PendingMessages:   len(b.pending),
		Platform:          b.platform,
		Feeds:             len(b.feedOrder),
	}
	b.mu.Unlock()
	s.PollInterval = b.PollInterval()
	return s
}

// ----------------------------------------------------------------------------
// Observers
// ----------------------------------------------------------------------------

// Feed returns a registered feed.
func (b *Bridge) Feed(name FeedName) (*Feed, error) {
	feed, ok := b.feeds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, name)
	}
	return feed, nil
}

// Feeds returns the registered feeds in registration order.
func (b *Bridge) Feeds() []*Feed {
	out := make([]*Feed, 0, len(b.feedOrder))
	for _, name := range b.feedOrder {
		out = append(out, b.feeds[name])
	}
	return out
}

// Observe subscribes o to a feed. If notifyOnlyOnChange is set, o is only
// called again once the value changes.
func (b *Bridge) Observe(name FeedName, o Observer, notifyOnlyOnChange bool) (id.SubscriptionID, error) {
	feed, err := b.Feed(name)
	if err != nil {
		return "", err
	}
	return feed.Subscribe(o, notifyOnlyOnChange), nil
}

// StopObserving removes a feed subscription.
func (b *Bridge) StopObserving(name FeedName, subID id.SubscriptionID) bool {
	feed, ok := b.feeds[name]
	if !ok {
		return false
	}
	return feed.Unsubscribe(subID)
}

// Snapshot returns the last value of every feed that has one.
func (b *Bridge) Snapshot() map[FeedName]any {
	out := make(map[FeedName]any, len(b.feedOrder))
	for _, name := range b.feedOrder {
		if v, ok := b.feeds[name].Value(); ok {
			out[name] = v
		}
	}
	return out
}

// ConstantsObservers is notified with each valid constants message.
func (b *Bridge) ConstantsObservers() *Topic[*constants.Constants] { return b.constantsTopic }

// ConnectionTestsObservers is notified of connection test progress.
func (b *Bridge) ConnectionTestsObservers() *Topic[ConnectionTestEvent] {
	return b.connectionTestsTopic
}

// HSTSObservers is notified with HSTS query results.
func (b *Bridge) HSTSObservers() *Topic[any] { return b.hstsTopic }

// ONCFileParseObservers is notified with ONC import results (an error
// string, empty on success).
func (b *Bridge) ONCFileParseObservers() *Topic[any] { return b.oncFileParseTopic }

// StoreDebugLogsObservers is notified with debug log storage status.
func (b *Bridge) StoreDebugLogsObservers() *Topic[any] { return b.storeDebugLogsTopic }

// NetworkDebugModeObservers is notified with network debug mode status.
func (b *Bridge) NetworkDebugModeObservers() *Topic[any] { return b.networkDebugModeTopic }

func (b *Bridge) recordMessage(command, outcome string) {
	if b.metrics != nil {
		b.metrics.RecordMessageReceived(command, outcome)
	}
}

func (b *Bridge) recordFeedPoll(name FeedName) {
	if b.metrics != nil {
		b.metrics.RecordFeedPoll(string(name))
	}
}

func (b *Bridge) recordFeedUpdate(name FeedName, changed bool, notified int) {
	if b.metrics != nil {
		b.metrics.RecordFeedUpdate(string(name), changed, notified)
	}
}
