// internal/browser/pool.go
package browser

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Get and Put once the pool has been closed.
var ErrPoolClosed = stderrors.New("browser pool is closed")

// Factory opens a new browser page.
type Factory func(ctx context.Context) (Page, error)

// Pool hands out at most maxSize pages, creating them lazily.
type Pool struct {
	factory Factory
	idle    chan Page
	slots   chan struct{}
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
}

// NewPool creates a pool that launches Chrome pages from config.
func NewPool(config *Config, maxSize int) *Pool {
	if config == nil {
		config = DefaultConfig()
	}
	return NewPoolWithFactory(func(ctx context.Context) (Page, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewChromeClient(config)
	}, maxSize)
}

// NewPoolWithFactory creates a pool around an arbitrary page factory.
func NewPoolWithFactory(factory Factory, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Pool{
		factory: factory,
		idle:    make(chan Page, maxSize),
		slots:   make(chan struct{}, maxSize),
		done:    make(chan struct{}),
	}
}

// Get returns an idle page, opens a new one while under the limit, or waits
// until another caller returns one.
func (p *Pool) Get(ctx context.Context) (Page, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case page := <-p.idle:
		return page, nil
	default:
	}

	select {
	case page := <-p.idle:
		return page, nil
	case p.slots <- struct{}{}:
		page, err := p.factory(ctx)
		if err != nil {
			<-p.slots
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		p.mu.RLock()
		closed := p.closed
		p.mu.RUnlock()
		if closed {
			p.Discard(page)
			return nil, ErrPoolClosed
		}
		return page, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a healthy page to the pool.
func (p *Pool) Put(page Page) error {
	if page == nil {
		return fmt.Errorf("cannot put nil browser in pool")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		page.Close()
		<-p.slots
		return ErrPoolClosed
	}

	select {
	case p.idle <- page:
	default:
		page.Close()
		<-p.slots
	}
	return nil
}

// Discard closes a page that failed and frees its slot.
func (p *Pool) Discard(page Page) {
	if page == nil {
		return
	}
	page.Close()
	<-p.slots
}

// Size returns the number of idle pages
func (p *Pool) Size() int {
	return len(p.idle)
}

// TotalSize returns the number of pages currently open
func (p *Pool) TotalSize() int {
	return len(p.slots)
}

// Close closes idle pages and makes future Get calls fail. Pages still in use
// are closed when they are returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	for {
		select {
		case page := <-p.idle:
			page.Close()
			<-p.slots
		default:
			return nil
		}
	}
}
