package engine

import (
	"time"

	"github.com/amiable-dev/midimon/logging"
)

// maxReconnectAttempts caps retries at the sixth backoff entry (spec
// §4.G): after that the connection stays Disconnected until an IPC
// `reconnect` request arrives.
const maxReconnectAttempts = 6

func (s *Supervisor) handleDeviceLost() {
	log := logging.Get(logging.Engine)
	log.Warn("MIDI device lost")
	if s.adapter != nil {
		s.adapter.Close()
	}
	if s.cfg.Device.AutoReconnect {
		s.beginReconnecting()
		return
	}
	s.conn = ConnectionStatus{Kind: ConnDisconnected}
}

// beginReconnecting starts (or restarts) the backoff sequence from attempt
// 1. reconnectTimer is read by run()'s select loop via the reconnectC
// helper.
func (s *Supervisor) beginReconnecting() {
	s.backoffAttempt = 1
	s.conn = ConnectionStatus{Kind: ConnReconnecting, Attempt: s.backoffAttempt}
	s.scheduleReconnectAttempt()
}

func (s *Supervisor) scheduleReconnectAttempt() {
	delay := backoffDelay(s.backoffAttempt)
	if s.reconnectTimer == nil {
		s.reconnectTimer = time.NewTimer(delay)
		return
	}
	if !s.reconnectTimer.Stop() {
		select {
		case <-s.reconnectTimer.C:
		default:
		}
	}
	s.reconnectTimer.Reset(delay)
}

func backoffDelay(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return time.Duration(backoffSchedule[idx]) * time.Second
}

// attemptReconnect fires when the current backoff timer expires.
func (s *Supervisor) attemptReconnect() {
	log := logging.Get(logging.Engine)
	s.reconnectTimer = nil

	if _, err := s.openDevice(); err != nil {
		log.Warn("reconnect attempt failed", "attempt", s.backoffAttempt, "error", err)
		if s.backoffAttempt >= maxReconnectAttempts {
			log.Warn("reconnect attempts exhausted, giving up until an explicit reconnect request")
			s.conn = ConnectionStatus{Kind: ConnDisconnected}
			return
		}
		s.backoffAttempt++
		s.conn = ConnectionStatus{Kind: ConnReconnecting, Attempt: s.backoffAttempt}
		s.scheduleReconnectAttempt()
		return
	}

	log.Info("MIDI device reconnected", "port", s.conn.Port, "name", s.conn.Name)
}

// requestReconnect is the IPC `reconnect` command's effect: drop any
// current connection (or abandon the current backoff) and start a fresh
// attempt sequence immediately, regardless of auto_reconnect.
func (s *Supervisor) requestReconnect() error {
	if s.adapter != nil {
		s.adapter.Close()
	}
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	s.beginReconnecting()
	return nil
}
