// Package scan mediates between a continuous barcode decode stream and a single, human-confirmed
// equipment identifier hand-off.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/qrid"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// State is the controller state.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StatePermissionDenied     State = "permission_denied"
	StateReady                State = "ready"
	StateScanning             State = "scanning"
	StateProcessing           State = "processing"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrTorchUnsupported = errors.New("torch is not supported on the front camera")
)

// DefaultCooldown is how long a payload that was just handed off or rejected is ignored.
const DefaultCooldown = 2 * time.Second

// Candidate is a validated identifier awaiting confirmation.
type Candidate struct {
	ID         string        `json:"id"`
	Payload    string        `json:"payload"`
	Identifier string        `json:"identifier"`
	Asset      *models.Asset `json:"asset,omitempty"`
	ScannedAt  time.Time     `json:"scanned_at"`
}

// Hooks connect the controller to the registry and to the human operator.
// Confirm and Handoff are required. Hooks run on the controller's worker goroutine and must
// return once ctx is cancelled.
type Hooks struct {
	// Lookup resolves the identifier against the asset registry. Optional; a failure rejects the scan.
	Lookup func(ctx context.Context, identifier string) (models.Asset, error)
	// Confirm asks the operator to accept or cancel the candidate. It may block indefinitely.
	Confirm func(ctx context.Context, c Candidate) (bool, error)
	// Handoff delivers an accepted candidate to the caller.
	Handoff func(ctx context.Context, c Candidate) error
	// Rejected reports a scan that was dropped and why. Optional.
	Rejected func(payload string, reason error)
}

type Options struct {
	// Extract options applied to every payload, e.g. qrid.Numeric().
	Extract  []qrid.Option
	Cooldown time.Duration
	Logger   *slog.Logger
}

// Controller is the scan intake state machine. All methods are safe for concurrent use.
type Controller struct {
	cam   Camera
	hooks Hooks
	opts  Options
	log   *slog.Logger

	mu      sync.Mutex
	state   State
	facing  Facing
	torch   bool
	session context.Context
	stop    context.CancelFunc
	gen     uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	recent *cache.Cache
}

func NewController(cam Camera, hooks Hooks, opts Options) (*Controller, error) {
	if cam == nil {
		return nil, errors.New("scan: camera is required")
	}
	if hooks.Confirm == nil || hooks.Handoff == nil {
		return nil, errors.New("scan: Confirm and Handoff hooks are required")
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		cam:    cam,
		hooks:  hooks,
		opts:   opts,
		log:    log,
		state:  StateIdle,
		facing: FacingBack,
		recent: cache.New(opts.Cooldown, 2*opts.Cooldown),
	}, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

func (c *Controller) Torch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torch
}

// Start (re)checks the camera permission, requesting it when not granted, and begins scanning.
// A denial is never remembered: every Start asks the platform again. ctx bounds the scanning
// session; cancelling it aborts any in-flight processing.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.abortLocked()
	if c.stop != nil {
		c.stop()
	}
	c.state = StateRequestingPermission
	c.mu.Unlock()

	perm, err := c.cam.Permission(ctx)
	if err == nil && perm != PermissionGranted {
		perm, err = c.cam.RequestPermission(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRequestingPermission {
		// Stopped while the permission prompt was open.
		return context.Canceled
	}
	if err != nil {
		c.state = StateIdle
		return fmt.Errorf("camera permission: %w", err)
	}
	if perm != PermissionGranted {
		c.state = StatePermissionDenied
		c.log.Info("camera permission denied", "permission", perm.String())
		return ErrPermissionDenied
	}

	c.facing = FacingBack
	c.torch = false
	if err := c.cam.Configure(c.facing, c.torch); err != nil {
		c.state = StateIdle
		return fmt.Errorf("configure camera: %w", err)
	}
	c.session, c.stop = context.WithCancel(ctx)
	c.state = StateScanning
	return nil
}

// OpenSettings delegates to the camera so a denied user can grant permission.
func (c *Controller) OpenSettings(ctx context.Context) error {
	return c.cam.OpenSettings(ctx)
}

// Stop aborts any in-flight processing, ends the session and waits for the worker to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.abortLocked()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.state = StateIdle
	c.torch = false
	c.mu.Unlock()

	c.wg.Wait()
}

// OnDecode is called by the camera layer for every decoded payload. It returns true only when
// the payload was accepted for processing; while processing, every callback is ignored.
// Payloads failing identifier validation are reported through Hooks.Rejected and scanning
// continues without a prompt.
func (c *Controller) OnDecode(payload string) bool {
	c.mu.Lock()
	if c.state != StateScanning {
		c.mu.Unlock()
		return false
	}
	if _, seen := c.recent.Get(payload); seen {
		c.mu.Unlock()
		return false
	}

	id, err := qrid.Extract(payload, c.opts.Extract...)
	if err != nil {
		c.recent.SetDefault(payload, struct{}{})
		c.mu.Unlock()
		c.rejected(payload, err)
		return false
	}

	c.state = StateProcessing
	c.gen++
	ctx, cancel := context.WithCancel(c.session)
	c.cancel = cancel
	cand := Candidate{
		ID:         uuid.NewString(),
		Payload:    payload,
		Identifier: id,
		ScannedAt:  time.Now(),
	}
	c.wg.Add(1)
	go c.process(ctx, c.gen, cand)
	c.mu.Unlock()

	metrics.IncScanEvent("accepted")
	return true
}

func (c *Controller) process(ctx context.Context, gen uint64, cand Candidate) {
	defer c.wg.Done()

	if c.hooks.Lookup != nil {
		asset, err := c.hooks.Lookup(ctx, cand.Identifier)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if c.finish(gen, StateScanning, cand.Payload) {
				c.rejected(cand.Payload, err)
			}
			return
		}
		cand.Asset = &asset
	}

	ok, err := c.hooks.Confirm(ctx, cand)
	if ctx.Err() != nil {
		return
	}
	if err != nil || !ok {
		if err != nil {
			c.log.Warn("scan confirmation failed", "candidate_id", cand.ID, "error", err)
		}
		if c.finish(gen, StateScanning, "") {
			metrics.IncScanEvent("cancelled")
		}
		return
	}
	metrics.IncScanEvent("confirmed")

	if err := c.hooks.Handoff(ctx, cand); err != nil {
		if ctx.Err() != nil {
			return
		}
		if c.finish(gen, StateScanning, cand.Payload) {
			c.rejected(cand.Payload, err)
		}
		return
	}
	if c.finish(gen, StateReady, cand.Payload) {
		metrics.IncScanEvent("handed_off")
		c.log.Info("scan handed off", "candidate_id", cand.ID, "identifier", cand.Identifier)
	}
}

// finish leaves processing for next if gen is still current. A non-empty cooldown payload is
// remembered so the same physical presentation does not prompt again.
func (c *Controller) finish(gen uint64, next State, cooldown string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != StateProcessing {
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if cooldown != "" {
		c.recent.SetDefault(cooldown, struct{}{})
	}
	c.state = next
	return true
}

func (c *Controller) rejected(payload string, reason error) {
	metrics.IncScanEvent("rejected")
	c.log.Debug("scan rejected", "payload", payload, "reason", reason)
	if c.hooks.Rejected != nil {
		c.hooks.Rejected(payload, reason)
	}
}

// Cancel aborts an in-flight processing step (the caller navigated away) and returns to
// scanning without a hand-off. It reports whether anything was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateProcessing {
		return false
	}
	c.abortLocked()
	c.state = StateScanning
	metrics.IncScanEvent("cancelled")
	return true
}

// Resume moves ready back to scanning.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return false
	}
	c.state = StateScanning
	return true
}

// Reset aborts processing, forgets recently seen payloads and returns to ready.
// It has no effect before Start succeeded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateReady, StateScanning, StateProcessing:
		c.abortLocked()
		c.recent.Flush()
		c.state = StateReady
	}
}

// abortLocked cancels the worker and invalidates its generation. c.mu must be held.
func (c *Controller) abortLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) active() bool {
	switch c.state {
	case StateReady, StateScanning, StateProcessing:
		return true
	}
	return false
}

// SetFacing selects the camera. Switching forces the torch off. Setting the current facing
// is a no-op.
func (c *Controller) SetFacing(f Facing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setFacingLocked(f)
}

func (c *Controller) ToggleFacing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.facing == FacingBack {
		return c.setFacingLocked(FacingFront)
	}
	return c.setFacingLocked(FacingBack)
}

func (c *Controller) setFacingLocked(f Facing) error {
	if f != FacingBack && f != FacingFront {
		return fmt.Errorf("unknown camera facing %q", f)
	}
	if f == c.facing {
		return nil
	}
	return c.applyLocked(f, false)
}

// SetTorch switches the torch. Enabling it on the front camera returns ErrTorchUnsupported.
func (c *Controller) SetTorch(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setTorchLocked(on)
}

func (c *Controller) ToggleTorch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setTorchLocked(!c.torch)
}

func (c *Controller) setTorchLocked(on bool) error {
	if on && c.facing == FacingFront {
		return ErrTorchUnsupported
	}
	if on == c.torch {
		return nil
	}
	return c.applyLocked(c.facing, on)
}

// applyLocked pushes facing and torch to the camera while a session is active and keeps the
// previous values if the camera refuses.
func (c *Controller) applyLocked(f Facing, torch bool) error {
	if c.active() {
		if err := c.cam.Configure(f, torch); err != nil {
			return fmt.Errorf("configure camera: %w", err)
		}
	}
	c.facing = f
	c.torch = torch
	return nil
}
