package navigation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/telekom/infoasst-navshell/pkg/access"
	"github.com/telekom/infoasst-navshell/pkg/features"
	"github.com/telekom/infoasst-navshell/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Shell mounts navigation instances. It is safe for concurrent use.
type Shell struct {
	source             features.Source
	resolver           access.Resolver
	resolverName       string
	loadingPlaceholder bool
	log                *zap.SugaredLogger
}

type Option func(*Shell)

// WithLoadingPlaceholder makes views render a placeholder while access is unknown.
func WithLoadingPlaceholder(enabled bool) Option {
	return func(s *Shell) { s.loadingPlaceholder = enabled }
}

func NewShell(log *zap.SugaredLogger, source features.Source, resolver access.Resolver, opts ...Option) *Shell {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if source == nil {
		source = features.NewStaticSource(nil)
	}
	if resolver == nil {
		resolver = access.NoneResolver{}
	}
	s := &Shell{
		source:       source,
		resolver:     resolver,
		resolverName: access.Name(resolver),
		log:          log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadingPlaceholder reports whether views of this shell use the placeholder policy.
func (s *Shell) LoadingPlaceholder() bool { return s.loadingPlaceholder }

// Instance is one mounted view. Its state starts Unknown/Unknown and is
// filled in by the two lookups started in Mount.
type Instance struct {
	id                 string
	loadingPlaceholder bool
	cancel             context.CancelFunc
	done               chan struct{}
	log                *zap.SugaredLogger

	mu        sync.RWMutex
	state     State
	unmounted bool
}

// Mount starts the feature flag fetch and the access resolution concurrently.
// Each is called exactly once; nothing is carried over from earlier mounts.
func (s *Shell) Mount(ctx context.Context, cred access.Credentials) *Instance {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	inst := &Instance{
		id:                 id,
		loadingPlaceholder: s.loadingPlaceholder,
		cancel:             cancel,
		done:               make(chan struct{}),
		log:                s.log.With("mountID", id),
	}
	metrics.ShellMounts.Inc()

	// the lookups never return errors; failures are folded into state
	var g errgroup.Group
	g.Go(func() error {
		inst.fetchFlags(ctx, s.source)
		return nil
	})
	g.Go(func() error {
		inst.resolveAccess(ctx, s.resolver, s.resolverName, cred)
		return nil
	})
	go func() {
		_ = g.Wait()
		close(inst.done)
	}()
	return inst
}

func (i *Instance) fetchFlags(ctx context.Context, src features.Source) {
	start := time.Now()
	flags, err := src.Fetch(ctx)
	metrics.LookupDuration.WithLabelValues("feature_flags").Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.FeatureFlagFetches.WithLabelValues(outcome).Inc()

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.unmounted {
		return
	}
	if err != nil {
		i.log.Warnw("Feature flag fetch failed, optional links hidden", "error", err)
		return
	}
	i.state.Flags = flags
}

func (i *Instance) resolveAccess(ctx context.Context, r access.Resolver, name string, cred access.Credentials) {
	start := time.Now()
	granted, err := r.Resolve(ctx, cred)
	metrics.LookupDuration.WithLabelValues("access").Observe(time.Since(start).Seconds())
	status := access.FromResult(granted, err)
	if err != nil {
		metrics.AccessResolutionErrors.WithLabelValues(name).Inc()
	}
	metrics.AccessResolutions.WithLabelValues(name, status.String()).Inc()

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.unmounted {
		return
	}
	switch {
	case errors.Is(err, access.ErrNoCredentials):
		i.log.Debugw("No credentials presented, content management hidden", "resolver", name)
	case err != nil:
		i.log.Warnw("Access resolution failed, treating as denied", "resolver", name, "error", err)
	}
	i.state.Access = status
}

func (i *Instance) ID() string { return i.id }

// Done is closed once both lookups have finished.
func (i *Instance) Done() <-chan struct{} { return i.done }

// Wait blocks until both lookups have finished or ctx is done.
func (i *Instance) Wait(ctx context.Context) error {
	select {
	case <-i.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a copy of the current state.
func (i *Instance) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// View renders the current state for the given route.
func (i *Instance) View(activePath string) View {
	return Render(i.State(), activePath, i.loadingPlaceholder)
}

// Unmount cancels outstanding lookups and discards the state. Late lookup
// results are dropped. Calling it more than once is a no-op.
func (i *Instance) Unmount() {
	i.mu.Lock()
	if i.unmounted {
		i.mu.Unlock()
		return
	}
	i.unmounted = true
	i.state = State{}
	i.mu.Unlock()

	i.cancel()
	metrics.ShellUnmounts.Inc()
}
