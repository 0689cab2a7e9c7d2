package market

import (
	"sync"
	"time"
)

// Service 维护最新深度快照，并向订阅者广播。
type Service struct {
	pub    *Publisher
	mu     sync.RWMutex
	latest DepthSnapshot
	have   bool
	last   time.Time
}

func NewService(pub *Publisher) *Service {
	if pub == nil {
		pub = NewPublisher()
	}
	return &Service{pub: pub}
}

// Publisher 返回底层分发器，便于订阅。
func (s *Service) Publisher() *Publisher { return s.pub }

// OnSnapshot 更新并广播。时间戳不早于当前快照时才替换 latest。
func (s *Service) OnSnapshot(snap DepthSnapshot, ts time.Time) {
	s.mu.Lock()
	if !s.have || snap.Timestamp >= s.latest.Timestamp {
		s.latest = snap
		s.have = true
	}
	s.last = ts
	s.mu.Unlock()
	s.pub.Publish(snap)
}

// Latest 返回最新快照；尚无数据时 ok 为 false。
func (s *Service) Latest() (DepthSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.have
}

// Mid 返回当前中间价；若缺失任一侧返回 0。
func (s *Service) Mid() float64 {
	snap, ok := s.Latest()
	if !ok {
		return 0
	}
	return Summarize(snap).Mid
}

// Staleness 返回距离上次更新的时间间隔；如无数据返回一年。
func (s *Service) Staleness() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.have {
		return time.Hour * 24 * 365
	}
	return time.Since(s.last)
}
