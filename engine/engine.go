package engine

import (
	"context"
	"sync"

	"github.com/ocppcore/chargepoint/config"
	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
	"github.com/ocppcore/chargepoint/pkg/logger"
)

// Options configures a new Engine. Zero-valued fields are filled in
// with defaults by New.
type Options struct {
	// PoolSize is the number of pending-message slots
	// (TX_POOL_LEN). Default DefaultPoolSize.
	PoolSize int

	// RequestTimeout is how long, in seconds, a transmitted message
	// waits for a response before its wait-timeout fires
	// (OCPP_DEFAULT_TX_TIMEOUT_SEC). Default 10.
	RequestTimeout int64

	// MaxRetries is the droppable-message retry count
	// (OCPP_DEFAULT_TX_RETRIES): a droppable message is dropped once it
	// has used MaxRetries+1 transmit attempts. Default 1.
	MaxRetries int

	Clock     Clock
	Locker    Locker
	IDs       IDGenerator
	Transport Transport
	Config    config.Store
	Hooks     *hook.Manager
	Log       logger.Logger
}

func (o *Options) setDefaults() {
	if o.PoolSize <= 0 {
		o.PoolSize = DefaultPoolSize
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Locker == nil {
		o.Locker = &sync.Mutex{}
	}
	if o.IDs == nil {
		o.IDs = RandomIDGenerator{}
	}
	if o.Config == nil {
		o.Config = config.NewDefaultMemoryStore()
	}
	if o.Hooks == nil {
		o.Hooks = hook.NewManager()
	}
	if o.Log == nil {
		o.Log = logger.Nop{}
	}
}

// Engine is a single charge-point session's message lifecycle core:
// one bounded pool of slots threaded through three intrusive queues
// (ready, wait, timer). Every public method takes opts.Locker on
// entry and releases it again before returning, so callers never need
// to serialize access themselves. The lock is always released around
// hook dispatch and transport calls, so a host that re-enters the
// engine from within a hook callback — or whose Transport
// implementation does the same — cannot deadlock against itself.
type Engine struct {
	opts Options

	pool  *pool
	ready *message.List
	wait  *message.List
	timer *message.List

	transport Transport
	config    config.Store
	hooks     *hook.Manager
	log       logger.Logger
	clock     Clock
	ids       IDGenerator
	lock      Locker

	// txTS records the last time any request round-tripped to a
	// response; heartbeat scheduling is keyed off this alone, never
	// off rxTS, so an unrelated inbound message never delays a
	// heartbeat that's otherwise due.
	txTS int64
	rxTS int64
}

// New constructs an Engine and performs its initial reset.
func New(opts Options) (*Engine, error) {
	if opts.Transport == nil {
		return nil, errInvalidOptions("transport is required")
	}
	opts.setDefaults()

	e := &Engine{
		opts:      opts,
		transport: opts.Transport,
		config:    opts.Config,
		hooks:     opts.Hooks,
		log:       opts.Log,
		clock:     opts.Clock,
		ids:       opts.IDs,
		lock:      opts.Locker,
	}
	if err := e.Init(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// Init resets the engine to a freshly booted state: every pending
// slot is released, the three queues are emptied, and the activity
// timestamps are reseeded from the clock.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	e.pool = newPool(e.opts.PoolSize)
	e.ready = message.NewList()
	e.wait = message.NewList()
	e.timer = message.NewList()

	now := e.clock.Now()
	e.txTS = now
	e.rxTS = now

	e.log.Debug("engine initialized", "pool_size", e.opts.PoolSize, "max_retries", e.opts.MaxRetries)
	return nil
}

// PoolSize returns the engine's fixed slot capacity.
func (e *Engine) PoolSize() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pool.len()
}

// PoolUsed returns how many slots are currently allocated.
func (e *Engine) PoolUsed() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pool.used()
}

type invalidOptionsError string

func (e invalidOptionsError) Error() string { return "engine: invalid options: " + string(e) }

func errInvalidOptions(reason string) error { return invalidOptionsError(reason) }
