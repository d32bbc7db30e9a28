package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/constants"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 256
)

// Handler manages live stream connections.
type Handler struct {
	bridge   *bridge.Bridge
	tracker  *events.Tracker
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a stream handler. metrics may be nil.
func NewHandler(b *bridge.Bridge, tracker *events.Tracker, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		bridge:  b,
		tracker: tracker,
		metrics: metrics,
		logger:  logger.For("stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// CORS middleware already vetted the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:      id.NewClientID(),
		handler: h,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
		done:    make(chan struct{}),
		feeds:   make(map[bridge.FeedName]id.SubscriptionID),
	}
	log := h.logger.With(zap.String("client_id", string(cl.id)))
	log.Info("Stream client connected", zap.String("remote_addr", c.Request.RemoteAddr))
	if h.metrics != nil {
		h.metrics.IncStreamClients()
	}

	cl.enqueue(Message{
		Type:     TypeSystem,
		ClientID: cl.id,
		Status:   statusPtr(h.bridge.Status()),
	})
	unsubscribe := h.subscribeTopics(cl)

	go cl.writePump()
	cl.readPump()

	unsubscribe()
	cl.close()
	if h.metrics != nil {
		h.metrics.DecStreamClients()
	}
	log.Info("Stream client disconnected", zap.Int64("dropped", cl.dropped.Load()))
}

func statusPtr(s bridge.Status) *bridge.Status { return &s }

// subscribeTopics forwards every pushed host event to cl and returns the
// function that stops forwarding.
func (h *Handler) subscribeTopics(cl *client) func() {
	b := h.bridge
	constantsID := b.ConstantsObservers().Subscribe(func(c *constants.Constants) {
		cl.enqueue(Message{Type: TypeTopic, Topic: TopicConstants, Value: c.Raw})
	})
	testsID := b.ConnectionTestsObservers().Subscribe(func(ev bridge.ConnectionTestEvent) {
		cl.enqueue(Message{Type: TypeTopic, Topic: TopicConnectionTests, Value: ev})
	})
	forward := func(topic string) func(any) {
		return func(v any) {
			cl.enqueue(Message{Type: TypeTopic, Topic: topic, Value: v})
		}
	}
	hstsID := b.HSTSObservers().Subscribe(forward(TopicHSTS))
	oncID := b.ONCFileParseObservers().Subscribe(forward(TopicONCFileParse))
	debugLogsID := b.StoreDebugLogsObservers().Subscribe(forward(TopicStoreDebugLogs))
	debugModeID := b.NetworkDebugModeObservers().Subscribe(forward(TopicNetworkDebugMode))

	return func() {
		b.ConstantsObservers().Unsubscribe(constantsID)
		b.ConnectionTestsObservers().Unsubscribe(testsID)
		b.HSTSObservers().Unsubscribe(hstsID)
		b.ONCFileParseObservers().Unsubscribe(oncID)
		b.StoreDebugLogsObservers().Unsubscribe(debugLogsID)
		b.NetworkDebugModeObservers().Unsubscribe(debugModeID)
	}
}
