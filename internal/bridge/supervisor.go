package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
)

// Status is the supervisor's view of the bridge process.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
	StatusBackoff Status = "backoff"
	StatusFailed  Status = "failed"
)

const (
	defaultRestartDelay      = 5 * time.Second
	defaultMaxRestartDelay   = 5 * time.Minute
	defaultStableThreshold   = 2 * time.Minute
	defaultGracefulTimeout   = 10 * time.Second
	defaultMaxHealthFailures = 3
	healthCheckTimeout       = 5 * time.Second
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Supervisor. Zero durations take defaults.
type Options struct {
	Name    string
	Binary  string
	Args    []string
	Env     []string
	WorkDir string

	RestartOnFailure bool

	// RestartDelay is the first backoff delay. It doubles on every failed
	// restart up to MaxRestartDelay, and resets once the bridge has run for
	// StableThreshold.
	RestartDelay    time.Duration
	MaxRestartDelay time.Duration
	StableThreshold time.Duration

	// MaxRestartAttempts of 0 means unlimited.
	MaxRestartAttempts int

	GracefulTimeout time.Duration

	// HealthCheck, when set, runs every HealthCheckInterval. The bridge is
	// killed after MaxHealthFailures consecutive failures.
	HealthCheck         func(ctx context.Context) error
	HealthCheckInterval time.Duration
	MaxHealthFailures   int

	Logger Logger
}

// OptionsFromConfig converts the bridge configuration. health may be nil.
func OptionsFromConfig(cfg config.BridgeConfig, health func(ctx context.Context) error) Options {
	opts := Options{
		Name:               "wiz-bridge",
		Binary:             cfg.Binary,
		Args:               cfg.Args,
		Env:                cfg.Env,
		WorkDir:            cfg.WorkDir,
		RestartOnFailure:   cfg.RestartOnFailure,
		RestartDelay:       seconds(cfg.RestartDelay),
		MaxRestartDelay:    seconds(cfg.MaxRestartDelay),
		StableThreshold:    seconds(cfg.StableThreshold),
		MaxRestartAttempts: cfg.MaxRestartAttempts,
		GracefulTimeout:    seconds(cfg.GracefulTimeout),
	}
	if cfg.HealthCheckInterval > 0 {
		opts.HealthCheck = health
		opts.HealthCheckInterval = seconds(cfg.HealthCheckInterval)
	}
	return opts
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Stats is a snapshot of the supervisor state.
type Stats struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	PID       int           `json:"pid,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	Restarts  int           `json:"restarts"`
	LastError string        `json:"last_error,omitempty"`
}

// child is one running bridge process.
type child struct {
	cmd    *exec.Cmd
	output sync.WaitGroup
}

// Supervisor runs the bridge process and restarts it when it exits.
type Supervisor struct {
	opts   Options
	logger Logger

	mu        sync.Mutex
	status    Status
	cmd       *exec.Cmd
	startedAt time.Time
	restarts  int
	lastErr   error
	stopping  bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSupervisor validates opts and applies defaults.
func NewSupervisor(opts Options) (*Supervisor, error) {
	if opts.Binary == "" {
		return nil, ErrNoBinary
	}
	if opts.Name == "" {
		opts.Name = opts.Binary
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = defaultRestartDelay
	}
	if opts.MaxRestartDelay < opts.RestartDelay {
		opts.MaxRestartDelay = max(defaultMaxRestartDelay, opts.RestartDelay)
	}
	if opts.StableThreshold <= 0 {
		opts.StableThreshold = defaultStableThreshold
	}
	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = defaultGracefulTimeout
	}
	if opts.MaxHealthFailures <= 0 {
		opts.MaxHealthFailures = defaultMaxHealthFailures
	}
	if opts.HealthCheck != nil && opts.HealthCheckInterval <= 0 {
		opts.HealthCheck = nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Supervisor{opts: opts, logger: logger, status: StatusStopped}, nil
}

// Start launches the bridge and supervises it until Stop is called or ctx
// is cancelled. It fails if the first launch fails.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusRunning || s.status == StatusBackoff {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.opts.Name)
	}
	s.stopping = false
	s.mu.Unlock()

	proc, err := s.spawn()
	if err != nil {
		s.fail(err)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.supervise(runCtx, proc, done)
	return nil
}

// Stop terminates the bridge (SIGTERM, then SIGKILL after GracefulTimeout)
// and waits for supervision to end. Stopping an idle supervisor is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.stopping = true
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Status returns the current status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stats returns a snapshot of the supervisor state.
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Name: s.opts.Name, Status: s.status, Restarts: s.restarts}
	if s.status == StatusRunning && s.cmd != nil && s.cmd.Process != nil {
		st.PID = s.cmd.Process.Pid
		st.Uptime = time.Since(s.startedAt)
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// spawn starts one bridge process in its own process group.
func (s *Supervisor) spawn() (*child, error) {
	s.logger.Info("starting bridge", "name", s.opts.Name, "binary", s.opts.Binary, "args", s.opts.Args)

	cmd := exec.Command(s.opts.Binary, s.opts.Args...) //nolint:gosec // binary comes from operator configuration
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if s.opts.Env != nil {
		cmd.Env = append(os.Environ(), s.opts.Env...)
	}
	cmd.Dir = s.opts.WorkDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", s.opts.Name, err)
	}

	proc := &child{cmd: cmd}
	proc.output.Add(2)
	go s.relayOutput(&proc.output, "stdout", stdout)
	go s.relayOutput(&proc.output, "stderr", stderr)

	s.mu.Lock()
	s.cmd = cmd
	s.status = StatusRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("bridge started", "name", s.opts.Name, "pid", cmd.Process.Pid)
	return proc, nil
}

// relayOutput logs the bridge's output line by line.
func (s *Supervisor) relayOutput(wg *sync.WaitGroup, stream string, r io.Reader) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.logger.Debug("bridge output", "name", s.opts.Name, "stream", stream, "line", scanner.Text())
	}
}

// supervise waits for the bridge to exit and restarts it with backoff.
func (s *Supervisor) supervise(ctx context.Context, proc *child, done chan struct{}) {
	defer close(done)
	defer s.clearCancel()

	delay := s.opts.RestartDelay
	for {
		exitErr := s.wait(ctx, proc)
		if s.stopRequested(ctx) {
			s.setStatus(StatusStopped)
			s.logger.Info("bridge stopped", "name", s.opts.Name)
			return
		}

		s.logger.Warn("bridge exited unexpectedly", "name", s.opts.Name, "error", exitErr)
		uptime := s.uptime()
		s.fail(exitErr)

		if !s.opts.RestartOnFailure {
			s.logger.Info("restart disabled, not restarting", "name", s.opts.Name)
			return
		}
		if uptime >= s.opts.StableThreshold {
			delay = s.opts.RestartDelay
		}

		for {
			attempt, ok := s.nextAttempt()
			if !ok {
				s.logger.Error("max restart attempts reached", "name", s.opts.Name, "attempts", attempt)
				return
			}

			s.setStatus(StatusBackoff)
			s.logger.Info("restarting bridge", "name", s.opts.Name, "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				s.setStatus(StatusStopped)
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, s.opts.MaxRestartDelay)

			next, err := s.spawn()
			if err == nil {
				proc = next
				break
			}
			s.logger.Error("failed to restart bridge", "name", s.opts.Name, "error", err)
			s.fail(err)
		}
	}
}

// wait returns when the bridge exits, ctx is cancelled (the bridge is then
// terminated) or health checks fail repeatedly (the bridge is then killed).
func (s *Supervisor) wait(ctx context.Context, proc *child) error {
	cmd := proc.cmd
	exited := make(chan error, 1)
	go func() {
		// Wait closes the pipes, so drain them first.
		proc.output.Wait()
		exited <- cmd.Wait()
	}()

	var tick <-chan time.Time
	if s.opts.HealthCheck != nil {
		ticker := time.NewTicker(s.opts.HealthCheckInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	failures := 0
	for {
		select {
		case err := <-exited:
			return err

		case <-ctx.Done():
			s.terminate(cmd, exited)
			return ctx.Err()

		case <-tick:
			checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			err := s.opts.HealthCheck(checkCtx)
			cancel()

			if err == nil {
				if failures > 0 {
					s.logger.Info("bridge health recovered", "name", s.opts.Name, "previous_failures", failures)
				}
				failures = 0
				continue
			}

			failures++
			s.logger.Warn("bridge health check failed", "name", s.opts.Name, "error", err, "consecutive_failures", failures)
			if failures >= s.opts.MaxHealthFailures {
				s.logger.Error("bridge unhealthy, killing", "name", s.opts.Name, "failures", failures)
				s.signal(cmd, syscall.SIGKILL)
				<-exited
				return fmt.Errorf("%w: %d consecutive failures: %w", ErrUnhealthy, failures, err)
			}
		}
	}
}

// terminate sends SIGTERM to the bridge's process group and escalates to
// SIGKILL after GracefulTimeout.
func (s *Supervisor) terminate(cmd *exec.Cmd, exited <-chan error) {
	s.logger.Info("stopping bridge", "name", s.opts.Name, "pid", cmd.Process.Pid)
	s.signal(cmd, syscall.SIGTERM)

	select {
	case <-exited:
		return
	case <-time.After(s.opts.GracefulTimeout):
		s.logger.Warn("graceful shutdown timeout, sending SIGKILL", "name", s.opts.Name, "timeout", s.opts.GracefulTimeout)
	}

	s.signal(cmd, syscall.SIGKILL)
	<-exited
}

func (s *Supervisor) signal(cmd *exec.Cmd, sig syscall.Signal) {
	// A negative pid signals the whole process group created by Setpgid.
	if err := syscall.Kill(-cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("failed to signal bridge", "name", s.opts.Name, "signal", sig.String(), "error", err)
	}
}

func (s *Supervisor) nextAttempt() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxRestartAttempts > 0 && s.restarts >= s.opts.MaxRestartAttempts {
		return s.restarts, false
	}
	s.restarts++
	return s.restarts, true
}

func (s *Supervisor) stopRequested(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping || ctx.Err() != nil
}

func (s *Supervisor) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startedAt)
}

func (s *Supervisor) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.lastErr = err
}

func (s *Supervisor) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Supervisor) clearCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
