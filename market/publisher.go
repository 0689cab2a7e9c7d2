package market

import "sync"

// Publisher 一个轻量事件分发器，慢订阅者直接丢弃。
type Publisher struct {
	mu   sync.RWMutex
	subs []chan DepthSnapshot
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make([]chan DepthSnapshot, 0)}
}

// Subscribe 返回缓冲为 buffer 的订阅通道（至少为 1）。
func (p *Publisher) Subscribe(buffer int) <-chan DepthSnapshot {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan DepthSnapshot, buffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Publish 非阻塞地广播快照，返回被丢弃的订阅者数量。
func (p *Publisher) Publish(s DepthSnapshot) (dropped int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- s:
		default:
			dropped++
		}
	}
	return dropped
}
