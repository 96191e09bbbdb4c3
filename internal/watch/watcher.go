// Package watch detects repository state changes by polling a fingerprint of the
// repository metadata directory and delivers coalesced notifications.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultPollIntervalConstant          = 2 * time.Second
	fingerprinterMissingMessageConstant  = "watch fingerprinter not configured"
	watcherStartedMessageConstant        = "watcher already started"
	watcherStoppedMessageConstant        = "watcher already stopped"
	pollingStartedMessageConstant        = "watching repository metadata"
	pollSkippedMessageConstant           = "fingerprint unavailable; skipping poll"
	watchedPathGoneMessageConstant       = "watched path disappeared; stopping watcher"
	changeDetectedMessageConstant        = "repository change detected"
	notificationCoalescedMessageConstant = "notification pending; change coalesced"
	eventAssistanceFailedMessageConstant = "filesystem notifications unavailable; polling only"
	eventAssistanceErrorMessageConstant  = "filesystem notification error"
	logFieldIntervalConstant             = "interval"
	logFieldEventDirectoryConstant       = "event_directory"
	logFieldFingerprintConstant          = "fingerprint"
	stateIdleNameConstant                = "idle"
	statePollingNameConstant             = "polling"
	stateNotifyPendingNameConstant       = "notify_pending"
	stateStoppedNameConstant             = "stopped"
	eventsChannelCapacityConstant        = 1
)

// ErrFingerprinterNotConfigured indicates the watcher was constructed without a fingerprinter.
var ErrFingerprinterNotConfigured = errors.New(fingerprinterMissingMessageConstant)

// ErrWatcherAlreadyStarted indicates Start was called more than once.
var ErrWatcherAlreadyStarted = errors.New(watcherStartedMessageConstant)

// ErrWatcherStopped indicates Start was called after Stop.
var ErrWatcherStopped = errors.New(watcherStoppedMessageConstant)

// State describes the lifecycle position of a Watcher.
type State int

// Watcher states.
const (
	StateIdle State = iota
	StatePolling
	StateNotifyPending
	StateStopped
)

// String returns the state name.
func (state State) String() string {
	switch state {
	case StatePolling:
		return statePollingNameConstant
	case StateNotifyPending:
		return stateNotifyPendingNameConstant
	case StateStopped:
		return stateStoppedNameConstant
	default:
		return stateIdleNameConstant
	}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithPollInterval sets the polling period. Non-positive values keep the default.
func WithPollInterval(interval time.Duration) Option {
	return func(watcher *Watcher) {
		if interval > 0 {
			watcher.pollInterval = interval
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *zap.Logger) Option {
	return func(watcher *Watcher) {
		if logger != nil {
			watcher.logger = logger
		}
	}
}

// WithEventAssistance polls immediately whenever fsnotify reports activity under directory.
// Polling on the interval continues either way.
func WithEventAssistance(directory string) Option {
	return func(watcher *Watcher) {
		watcher.eventDirectory = directory
	}
}

// Watcher polls a Fingerprinter and notifies once per strict fingerprint increase.
// A Watcher watches one location and is not reusable after it stops.
type Watcher struct {
	fingerprinter  Fingerprinter
	logger         *zap.Logger
	pollInterval   time.Duration
	eventDirectory string

	events     chan struct{}
	done       chan struct{}
	stopSignal chan struct{}
	stopOnce   sync.Once
	finishOnce sync.Once
	lifecycle  sync.Mutex
	started    bool
	stopped    bool
	seeded     bool
	baseline   time.Time
}

// NewWatcher constructs an idle Watcher.
func NewWatcher(fingerprinter Fingerprinter, options ...Option) (*Watcher, error) {
	if fingerprinter == nil {
		return nil, ErrFingerprinterNotConfigured
	}
	watcher := &Watcher{
		fingerprinter: fingerprinter,
		logger:        zap.NewNop(),
		pollInterval:  defaultPollIntervalConstant,
		events:        make(chan struct{}, eventsChannelCapacityConstant),
		done:          make(chan struct{}),
		stopSignal:    make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(watcher)
		}
	}
	return watcher, nil
}

// Events delivers change notifications. At most one notification is pending at a time and
// the channel is closed after the watcher stops.
func (watcher *Watcher) Events() <-chan struct{} {
	return watcher.events
}

// Done is closed once the polling loop has exited.
func (watcher *Watcher) Done() <-chan struct{} {
	return watcher.done
}

// State reports the current lifecycle state.
func (watcher *Watcher) State() State {
	watcher.lifecycle.Lock()
	defer watcher.lifecycle.Unlock()
	switch {
	case watcher.stopped:
		return StateStopped
	case !watcher.started:
		return StateIdle
	case len(watcher.events) > 0:
		return StateNotifyPending
	default:
		return StatePolling
	}
}

// Start launches the polling loop. The first poll happens immediately and only records the baseline.
// The loop ends when executionContext is cancelled, Stop is called, or the watched path disappears.
func (watcher *Watcher) Start(executionContext context.Context) error {
	watcher.lifecycle.Lock()
	defer watcher.lifecycle.Unlock()
	if watcher.stopped {
		return ErrWatcherStopped
	}
	if watcher.started {
		return ErrWatcherAlreadyStarted
	}
	watcher.started = true

	if executionContext == nil {
		executionContext = context.Background()
	}
	notifier := watcher.openNotifier()
	watcher.logger.Debug(
		pollingStartedMessageConstant,
		zap.Duration(logFieldIntervalConstant, watcher.pollInterval),
		zap.String(logFieldEventDirectoryConstant, watcher.eventDirectory),
	)
	go watcher.run(executionContext, notifier)
	return nil
}

// Stop ends the polling loop. It is safe to call more than once and before Start.
func (watcher *Watcher) Stop() {
	watcher.stopOnce.Do(func() {
		close(watcher.stopSignal)
	})

	watcher.lifecycle.Lock()
	neverStarted := !watcher.started
	if neverStarted {
		watcher.stopped = true
	}
	watcher.lifecycle.Unlock()
	if neverStarted {
		watcher.finish()
	}
}

func (watcher *Watcher) run(executionContext context.Context, notifier *fsnotify.Watcher) {
	defer watcher.finish()

	var notifications <-chan fsnotify.Event
	var notificationErrors <-chan error
	if notifier != nil {
		defer notifier.Close()
		notifications = notifier.Events
		notificationErrors = notifier.Errors
	}

	if !watcher.poll() {
		return
	}

	ticker := time.NewTicker(watcher.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-executionContext.Done():
			return
		case <-watcher.stopSignal:
			return
		case <-ticker.C:
		case _, open := <-notifications:
			if !open {
				notifications = nil
				continue
			}
		case notificationError, open := <-notificationErrors:
			if !open {
				notificationErrors = nil
				continue
			}
			watcher.logger.Debug(eventAssistanceErrorMessageConstant, zap.Error(notificationError))
			continue
		}
		if !watcher.poll() {
			return
		}
	}
}

// poll runs one cycle and reports whether polling should continue.
func (watcher *Watcher) poll() bool {
	fingerprint, fingerprintError := watcher.fingerprinter.Fingerprint()
	if fingerprintError != nil {
		if errors.Is(fingerprintError, ErrWatchedPathMissing) {
			watcher.logger.Info(watchedPathGoneMessageConstant, zap.Error(fingerprintError))
			return false
		}
		watcher.logger.Debug(pollSkippedMessageConstant, zap.Error(fingerprintError))
		return true
	}

	if !watcher.seeded {
		watcher.baseline = fingerprint
		watcher.seeded = true
		return true
	}
	if !fingerprint.After(watcher.baseline) {
		return true
	}

	watcher.baseline = fingerprint
	select {
	case watcher.events <- struct{}{}:
		watcher.logger.Debug(changeDetectedMessageConstant, zap.Time(logFieldFingerprintConstant, fingerprint))
	default:
		watcher.logger.Debug(notificationCoalescedMessageConstant, zap.Time(logFieldFingerprintConstant, fingerprint))
	}
	return true
}

func (watcher *Watcher) finish() {
	watcher.finishOnce.Do(func() {
		watcher.lifecycle.Lock()
		watcher.stopped = true
		watcher.lifecycle.Unlock()
		close(watcher.done)
		close(watcher.events)
	})
}

// openNotifier subscribes to the event directory and its subdirectories outside object storage.
// Failures are logged and leave the watcher polling only.
func (watcher *Watcher) openNotifier() *fsnotify.Watcher {
	if len(watcher.eventDirectory) == 0 {
		return nil
	}
	notifier, creationError := fsnotify.NewWatcher()
	if creationError != nil {
		watcher.logger.Warn(eventAssistanceFailedMessageConstant, zap.String(logFieldEventDirectoryConstant, watcher.eventDirectory), zap.Error(creationError))
		return nil
	}

	walkError := filepath.WalkDir(watcher.eventDirectory, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if path == watcher.eventDirectory {
				return entryError
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != watcher.eventDirectory && isSkippedMetadataDirectory(watcher.eventDirectory, path) {
			return filepath.SkipDir
		}
		if addError := notifier.Add(path); addError != nil && path == watcher.eventDirectory {
			return addError
		}
		return nil
	})
	if walkError != nil {
		_ = notifier.Close()
		watcher.logger.Warn(eventAssistanceFailedMessageConstant, zap.String(logFieldEventDirectoryConstant, watcher.eventDirectory), zap.Error(walkError))
		return nil
	}
	return notifier
}
