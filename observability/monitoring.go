// Package observability aggregates runtime counters for operator visibility.
package observability

import "sync/atomic"

// Stats is a point-in-time copy of the counters.
type Stats struct {
	SessionsConnected    int64  `json:"sessions_connected"`
	MessagesBroadcast    uint64 `json:"messages_broadcast"`
	ValidationRejections uint64 `json:"validation_rejections"`
	SaveFailures         uint64 `json:"save_failures"`
	Resets               uint64 `json:"resets"`
}

// MonitoringManager tracks the live counters. All methods are safe for
// concurrent use; counters are atomics, no lock is held anywhere.
type MonitoringManager struct {
	sessionsConnected    atomic.Int64
	messagesBroadcast    atomic.Uint64
	validationRejections atomic.Uint64
	saveFailures         atomic.Uint64
	resets               atomic.Uint64
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{}
}

func (m *MonitoringManager) SessionConnected()    { m.sessionsConnected.Add(1) }
func (m *MonitoringManager) SessionDisconnected() { m.sessionsConnected.Add(-1) }
func (m *MonitoringManager) MessageBroadcast()    { m.messagesBroadcast.Add(1) }
func (m *MonitoringManager) ValidationRejected()  { m.validationRejections.Add(1) }
func (m *MonitoringManager) SaveFailed()          { m.saveFailures.Add(1) }
func (m *MonitoringManager) Reset()               { m.resets.Add(1) }

func (m *MonitoringManager) GetLatest() Stats {
	return Stats{
		SessionsConnected:    m.sessionsConnected.Load(),
		MessagesBroadcast:    m.messagesBroadcast.Load(),
		ValidationRejections: m.validationRejections.Load(),
		SaveFailures:         m.saveFailures.Load(),
		Resets:               m.resets.Load(),
	}
}
