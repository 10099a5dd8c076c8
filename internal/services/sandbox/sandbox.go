// Package sandbox executes request scripts locally under the limits the DON
// runtime applies to them.
package sandbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

// HTTPRequester is the HTTP capability handed to scripts.
type HTTPRequester interface {
	MakeHTTPRequest(ctx context.Context, req entity.HTTPRequest) (*entity.HTTPResponse, error)
}

// Env is everything a script may touch. Nothing is injected globally.
type Env struct {
	Secrets entity.Secrets
	Args    []string
	HTTP    HTTPRequester
	Logger  *zap.Logger
}

// Script is a request source. The returned bytes are what the DON would
// deliver on-chain.
type Script func(ctx context.Context, env Env) ([]byte, error)

// Registry maps source names to scripts.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Script
}

func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Script)}
}

// Register adds a script under name. Names are unique.
func (r *Registry) Register(name string, script Script) error {
	if name == "" || script == nil {
		return errors.New("script name and body are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scripts[name]; ok {
		return fmt.Errorf("script %q is already registered", name)
	}
	r.scripts[name] = script
	return nil
}

// Lookup returns the script registered under name.
func (r *Registry) Lookup(name string) (Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scripts[name]
	return s, ok
}

// Names lists registered scripts in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result of a script execution. Exactly one of ResponseBytesHexstring and
// ErrorString is set.
type Result struct {
	ResponseBytesHexstring string
	ErrorString            string
	CapturedLogs           []string
}

// Sandbox runs registered scripts.
type Sandbox struct {
	registry  *Registry
	requester HTTPRequester
	limits    Limits
	logger    *zap.Logger
}

// Option configures the Sandbox.
type Option func(*Sandbox)

// WithLimits replaces the default limits.
func WithLimits(l Limits) Option {
	return func(s *Sandbox) {
		s.limits = l
	}
}

// New creates a sandbox resolving scripts from registry and performing
// their HTTP requests through requester.
func New(registry *Registry, requester HTTPRequester, logger *zap.Logger, opts ...Option) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sandbox{
		registry:  registry,
		requester: requester,
		limits:    DefaultLimits(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the script named source. Script failures, limit violations
// and panics are reported through Result.ErrorString.
func (s *Sandbox) Execute(ctx context.Context, source string, secrets entity.Secrets, args []string) Result {
	script, ok := s.registry.Lookup(source)
	if !ok {
		return Result{ErrorString: fmt.Sprintf("unknown source %q", source)}
	}

	captureCore, captured := observer.New(zapcore.DebugLevel)
	scriptLogger := zap.New(zapcore.NewTee(s.logger.Core(), captureCore)).With(zap.String("source", source))

	ctx, cancel := context.WithTimeout(ctx, s.limits.MaxExecutionDuration)
	defer cancel()

	start := time.Now()
	env := Env{
		Secrets: secrets,
		Args:    args,
		HTTP:    newLimitedRequester(s.requester, s.limits),
		Logger:  scriptLogger,
	}
	out, err := s.runWithDeadline(ctx, script, env)
	if err == nil && len(out) > s.limits.MaxOnChainResponseBytes {
		err = errors.Wrapf(domain.ErrLimitExceeded, "response of %d bytes exceeds %d bytes", len(out), s.limits.MaxOnChainResponseBytes)
	}

	result := Result{CapturedLogs: capturedLines(captured)}
	if err != nil {
		result.ErrorString = err.Error()
		s.logger.Debug("script failed", zap.String("source", source), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return result
	}

	result.ResponseBytesHexstring = hexutil.Encode(out)
	s.logger.Debug("script succeeded", zap.String("source", source), zap.Duration("elapsed", time.Since(start)))
	return result
}

type scriptResult struct {
	out []byte
	err error
}

// runWithDeadline returns as soon as the script finishes or ctx is done,
// whichever comes first. A script still running past the deadline is
// abandoned and its output discarded.
func (s *Sandbox) runWithDeadline(ctx context.Context, script Script, env Env) ([]byte, error) {
	done := make(chan scriptResult, 1)
	go func() {
		out, err := runScript(ctx, script, env)
		done <- scriptResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, s.runtimeExceeded()
		}
		return res.out, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, s.runtimeExceeded()
		}
		return nil, errors.Wrap(ctx.Err(), "script cancelled")
	}
}

func (s *Sandbox) runtimeExceeded() error {
	return errors.Wrapf(domain.ErrLimitExceeded, "script runtime exceeded %s", s.limits.MaxExecutionDuration)
}

func runScript(ctx context.Context, script Script, env Env) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("script panicked: %v", r)
		}
	}()
	return script(ctx, env)
}

func capturedLines(logs *observer.ObservedLogs) []string {
	entries := logs.All()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Message)
	}
	return lines
}
