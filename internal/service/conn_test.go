package service

import "sync"

// fakeConn 记录投递事件的测试连接
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	Event string
	Data  interface{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emittedEvent{Event: event, Data: data})
	return nil
}

// eventsOf 按事件名过滤收到的负载
func (c *fakeConn) eventsOf(event string) []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []interface{}
	for _, e := range c.events {
		if e.Event == event {
			out = append(out, e.Data)
		}
	}
	return out
}

// lastOf 最近一次收到的指定事件负载
func (c *fakeConn) lastOf(event string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Event == event {
			return c.events[i].Data, true
		}
	}
	return nil, false
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
