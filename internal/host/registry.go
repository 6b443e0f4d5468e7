package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gashook/internal/hook"
	"gashook/internal/model"
)

// ErrPoolNotRegistered is returned when a callback is dispatched for a
// pool no hook governs.
var ErrPoolNotRegistered = errors.New("pool not registered")

// ErrPoolAlreadyRegistered is returned when a pool is registered twice.
var ErrPoolAlreadyRegistered = errors.New("pool already registered")

type entry struct {
	hook        hook.Hook
	permissions Permissions
	// mu serializes callbacks per pool, upholding the no-overlap
	// precondition the hooks document.
	mu sync.Mutex
}

// Permissions aliases the hook capability set on the host side.
type Permissions = hook.Permissions

// Registry owns the hooks and dispatches pool lifecycle callbacks to
// them. It models the engine side of the boundary: hooks never see the
// registry, only their own callback arguments.
type Registry struct {
	mu     sync.RWMutex
	pools  map[common.Address]*entry
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pools:  make(map[common.Address]*entry),
		logger: logger,
	}
}

// Register binds a hook to a pool and runs the initialize callback. A
// hook that rejects the configuration is not retained: the pool is not
// created under its governance.
func (r *Registry) Register(pool common.Address, h hook.Hook, feeConfig model.PoolFeeConfig) error {
	if h == nil {
		return fmt.Errorf("hook is nil")
	}

	r.mu.Lock()
	if _, ok := r.pools[pool]; ok {
		r.mu.Unlock()
		return fmt.Errorf("pool %s: %w", pool.Hex(), ErrPoolAlreadyRegistered)
	}
	r.mu.Unlock()

	permissions := h.Permissions()
	if permissions.Initialize {
		if err := h.Initialize(pool, feeConfig); err != nil {
			r.logger.Warn("pool rejected by hook",
				zap.String("pool", pool.Hex()),
				zap.Error(err),
			)
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[pool]; ok {
		return fmt.Errorf("pool %s: %w", pool.Hex(), ErrPoolAlreadyRegistered)
	}
	r.pools[pool] = &entry{hook: h, permissions: permissions}

	return nil
}

// BeforeSwap dispatches the pre-swap callback and returns the hook's fee
// decision. A hook without the BeforeSwap permission yields the zero
// decision: the pool's default fee applies.
func (r *Registry) BeforeSwap(pool common.Address, params model.SwapParams, swapCtx model.SwapContext) (model.FeeDecision, error) {
	e, err := r.lookup(pool)
	if err != nil {
		return model.FeeDecision{}, err
	}
	if !e.permissions.BeforeSwap {
		return model.FeeDecision{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hook.BeforeSwap(pool, params, swapCtx)
}

// AfterSwap dispatches the post-swap callback.
func (r *Registry) AfterSwap(pool common.Address, result model.SwapResult, swapCtx model.SwapContext) (model.BalanceDelta, error) {
	e, err := r.lookup(pool)
	if err != nil {
		return model.BalanceDelta{}, err
	}
	if !e.permissions.AfterSwap {
		return model.ZeroBalanceDelta(), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hook.AfterSwap(pool, result, swapCtx)
}

// Hook returns the hook governing a pool, for read-only inspection.
func (r *Registry) Hook(pool common.Address) (hook.Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.pools[pool]
	if !ok {
		return nil, false
	}
	return e.hook, true
}

func (r *Registry) lookup(pool common.Address) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.pools[pool]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", pool.Hex(), ErrPoolNotRegistered)
	}
	return e, nil
}
