package observability

import (
	"sync/atomic"
)

// HubStats aggregates live delivery metrics for the telemetry worker
// and the /internal/stats endpoint.
type HubStats struct {
	ConnectionsOpened uint64 `json:"connections_opened"`
	ConnectionsClosed uint64 `json:"connections_closed"`
	ActiveConnections int64  `json:"active_connections"`
	OnlineUsers       int64  `json:"online_users"`
	RoomJoins         uint64 `json:"room_joins"`
	EventsDispatched  uint64 `json:"events_dispatched"`
	EventsDropped     uint64 `json:"events_dropped"`
	SendFailures      uint64 `json:"send_failures"`
}

// HubMonitor tracks delivery counters with atomic increments. Dispatch
// paths touch it on every send, so nothing here takes a lock except
// the snapshot copy.
type HubMonitor struct {
	connectionsOpened uint64
	connectionsClosed uint64
	activeConnections int64
	onlineUsers       int64
	roomJoins         uint64
	eventsDispatched  uint64
	eventsDropped     uint64
	sendFailures      uint64
}

func NewHubMonitor() *HubMonitor {
	return &HubMonitor{}
}

func (m *HubMonitor) ConnectionOpened() {
	atomic.AddUint64(&m.connectionsOpened, 1)
	atomic.AddInt64(&m.activeConnections, 1)
}

func (m *HubMonitor) ConnectionClosed() {
	atomic.AddUint64(&m.connectionsClosed, 1)
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *HubMonitor) UserOnline()  { atomic.AddInt64(&m.onlineUsers, 1) }
func (m *HubMonitor) UserOffline() { atomic.AddInt64(&m.onlineUsers, -1) }

func (m *HubMonitor) IncrRoomJoins()        { atomic.AddUint64(&m.roomJoins, 1) }
func (m *HubMonitor) IncrEventsDispatched() { atomic.AddUint64(&m.eventsDispatched, 1) }
func (m *HubMonitor) IncrEventsDropped()    { atomic.AddUint64(&m.eventsDropped, 1) }
func (m *HubMonitor) IncrSendFailures()     { atomic.AddUint64(&m.sendFailures, 1) }

// GetLatest returns a copy of all counters.
func (m *HubMonitor) GetLatest() HubStats {
	return HubStats{
		ConnectionsOpened: atomic.LoadUint64(&m.connectionsOpened),
		ConnectionsClosed: atomic.LoadUint64(&m.connectionsClosed),
		ActiveConnections: atomic.LoadInt64(&m.activeConnections),
		OnlineUsers:       atomic.LoadInt64(&m.onlineUsers),
		RoomJoins:         atomic.LoadUint64(&m.roomJoins),
		EventsDispatched:  atomic.LoadUint64(&m.eventsDispatched),
		EventsDropped:     atomic.LoadUint64(&m.eventsDropped),
		SendFailures:      atomic.LoadUint64(&m.sendFailures),
	}
}
