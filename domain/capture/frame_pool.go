package capture

import "sync"

// framePool tracks the size a session's pool was built for and rebuilds the
// pool when frames report a different content size. Frames that trigger a
// rebuild are dropped: their buffers belong to the old pool.
type framePool struct {
	mu      sync.Mutex
	session Session
	size    Size
}

func newFramePool(s Session) *framePool {
	return &framePool{session: s, size: s.Size()}
}

// observe compares content against the tracked size. When it differs the
// tracked size is updated and the pool recreated; resized is true and the
// caller must drop the frame. The tracked size is updated even when Recreate
// fails so the next frame of the same size is not dropped again.
func (p *framePool) observe(content Size) (resized bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if content == p.size {
		return false, nil
	}
	p.size = content
	return true, p.session.Recreate(content)
}

func (p *framePool) current() Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}
