package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testShortPollInterval   = 5 * time.Millisecond
	testEventuallyWait      = 2 * time.Second
	testEventuallyTick      = 5 * time.Millisecond
	testQuietPeriod         = 50 * time.Millisecond
	testStubFingerprintText = "stub fingerprint failure"
)

type fingerprintResult struct {
	fingerprint time.Time
	err         error
}

// scriptedFingerprinter replays results in order and repeats the last one.
type scriptedFingerprinter struct {
	mutex   sync.Mutex
	results []fingerprintResult
	calls   int
}

func (fingerprinter *scriptedFingerprinter) Fingerprint() (time.Time, error) {
	fingerprinter.mutex.Lock()
	defer fingerprinter.mutex.Unlock()
	index := fingerprinter.calls
	if index >= len(fingerprinter.results) {
		index = len(fingerprinter.results) - 1
	}
	fingerprinter.calls++
	result := fingerprinter.results[index]
	return result.fingerprint, result.err
}

func (fingerprinter *scriptedFingerprinter) set(results ...fingerprintResult) {
	fingerprinter.mutex.Lock()
	defer fingerprinter.mutex.Unlock()
	fingerprinter.results = results
	fingerprinter.calls = 0
}

func (fingerprinter *scriptedFingerprinter) callCount() int {
	fingerprinter.mutex.Lock()
	defer fingerprinter.mutex.Unlock()
	return fingerprinter.calls
}

func waitForSeed(t *testing.T, fingerprinter *scriptedFingerprinter) {
	t.Helper()
	require.Eventually(t, func() bool {
		return fingerprinter.callCount() > 0
	}, testEventuallyWait, testEventuallyTick)
}

func at(offset time.Duration) fingerprintResult {
	return fingerprintResult{fingerprint: fingerprintBaseTime.Add(offset)}
}

func pendingEvents(watcher *Watcher) int {
	return len(watcher.events)
}

func TestNewWatcherRequiresFingerprinter(t *testing.T) {
	_, constructionError := NewWatcher(nil)
	require.ErrorIs(t, constructionError, ErrFingerprinterNotConfigured)
}

func TestWatcherPollEmitsOncePerIncrease(t *testing.T) {
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{
		at(0),
		at(0),
		at(time.Second),
		at(time.Second),
		at(time.Second),
		at(500 * time.Millisecond),
	}}
	watcher, constructionError := NewWatcher(fingerprinter)
	require.NoError(t, constructionError)

	require.True(t, watcher.poll())
	require.Equal(t, 0, pendingEvents(watcher), "first poll only seeds the baseline")

	require.True(t, watcher.poll())
	require.Equal(t, 0, pendingEvents(watcher), "unchanged fingerprint")

	require.True(t, watcher.poll())
	require.Equal(t, 1, pendingEvents(watcher), "strict increase")
	<-watcher.Events()

	require.True(t, watcher.poll())
	require.True(t, watcher.poll())
	require.True(t, watcher.poll())
	require.Equal(t, 0, pendingEvents(watcher), "equal and older fingerprints")
}

func TestWatcherPollCoalescesUndrainedNotifications(t *testing.T) {
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{at(0), at(time.Second), at(2 * time.Second), at(3 * time.Second)}}
	watcher, constructionError := NewWatcher(fingerprinter)
	require.NoError(t, constructionError)

	for range 4 {
		require.True(t, watcher.poll())
	}
	require.Equal(t, 1, pendingEvents(watcher))
	require.True(t, watcher.baseline.Equal(fingerprintBaseTime.Add(3*time.Second)))
}

func TestWatcherPollSkipsTransientErrors(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{
		{err: errors.New(testStubFingerprintText)},
		at(0),
		{err: errors.New(testStubFingerprintText)},
		at(time.Second),
	}}
	watcher, constructionError := NewWatcher(fingerprinter, WithLogger(zap.New(core)))
	require.NoError(t, constructionError)

	require.True(t, watcher.poll())
	require.False(t, watcher.seeded)
	require.True(t, watcher.poll())
	require.True(t, watcher.poll())
	require.Equal(t, 0, pendingEvents(watcher))
	require.True(t, watcher.poll())
	require.Equal(t, 1, pendingEvents(watcher))
	require.Equal(t, 2, recorded.FilterMessage(pollSkippedMessageConstant).Len())
}

func TestWatcherPollStopsWhenPathMissing(t *testing.T) {
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{at(0), {err: ErrWatchedPathMissing}}}
	watcher, constructionError := NewWatcher(fingerprinter)
	require.NoError(t, constructionError)

	require.True(t, watcher.poll())
	require.False(t, watcher.poll())
	require.Equal(t, 0, pendingEvents(watcher))
}

func TestWatcherLifecycle(t *testing.T) {
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{at(0)}}
	watcher, constructionError := NewWatcher(fingerprinter, WithPollInterval(testShortPollInterval))
	require.NoError(t, constructionError)
	require.Equal(t, StateIdle, watcher.State())

	require.NoError(t, watcher.Start(context.Background()))
	require.ErrorIs(t, watcher.Start(context.Background()), ErrWatcherAlreadyStarted)
	require.Equal(t, StatePolling, watcher.State())

	waitForSeed(t, fingerprinter)
	fingerprinter.set(at(time.Minute))
	require.Eventually(t, func() bool {
		return watcher.State() == StateNotifyPending
	}, testEventuallyWait, testEventuallyTick)

	_, open := <-watcher.Events()
	require.True(t, open)
	require.Equal(t, StatePolling, watcher.State())

	watcher.Stop()
	watcher.Stop()
	<-watcher.Done()
	_, open = <-watcher.Events()
	require.False(t, open)
	require.Equal(t, StateStopped, watcher.State())
	require.ErrorIs(t, watcher.Start(context.Background()), ErrWatcherStopped)
}

func TestWatcherStopsOnContextCancellation(t *testing.T) {
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{at(0)}}
	watcher, constructionError := NewWatcher(fingerprinter, WithPollInterval(testShortPollInterval))
	require.NoError(t, constructionError)

	executionContext, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(executionContext))
	cancel()

	select {
	case <-watcher.Done():
	case <-time.After(testEventuallyWait):
		t.Fatal("watcher did not stop after cancellation")
	}
	require.Equal(t, StateStopped, watcher.State())
}

func TestWatcherStopsWithoutEmittingWhenPathDisappears(t *testing.T) {
	metadataDirectory := newMetadataDirectory(t)
	watcher, constructionError := NewWatcher(NewMetadataFingerprinter(metadataDirectory), WithPollInterval(testShortPollInterval))
	require.NoError(t, constructionError)
	require.NoError(t, watcher.Start(context.Background()))

	time.Sleep(testQuietPeriod)
	require.NoError(t, os.Rename(metadataDirectory, filepath.Join(filepath.Dir(metadataDirectory), "moved")))

	select {
	case <-watcher.Done():
	case <-time.After(testEventuallyWait):
		t.Fatal("watcher kept polling a missing path")
	}
	_, open := <-watcher.Events()
	require.False(t, open, "no notification is emitted for a vanished path")
}

func TestWatcherStopBeforeStart(t *testing.T) {
	watcher, constructionError := NewWatcher(&scriptedFingerprinter{results: []fingerprintResult{at(0)}})
	require.NoError(t, constructionError)

	watcher.Stop()
	<-watcher.Done()
	require.Equal(t, StateStopped, watcher.State())
	require.ErrorIs(t, watcher.Start(context.Background()), ErrWatcherStopped)
}

func TestWatcherEventAssistancePollsBetweenTicks(t *testing.T) {
	notifier, notifierError := fsnotify.NewWatcher()
	if notifierError != nil {
		t.Skipf("filesystem notifications unavailable: %v", notifierError)
	}
	require.NoError(t, notifier.Close())

	metadataDirectory := newMetadataDirectory(t)
	watcher, constructionError := NewWatcher(
		NewMetadataFingerprinter(metadataDirectory),
		WithPollInterval(time.Hour),
		WithEventAssistance(metadataDirectory),
	)
	require.NoError(t, constructionError)
	require.NoError(t, watcher.Start(context.Background()))
	t.Cleanup(watcher.Stop)

	time.Sleep(testQuietPeriod)
	branchReference := filepath.Join(metadataDirectory, "refs", "heads", "main")
	attempt := 0
	require.Eventually(t, func() bool {
		attempt++
		touched := fingerprintBaseTime.Add(time.Duration(attempt) * time.Hour)
		_ = os.Chtimes(branchReference, touched, touched)
		return pendingEvents(watcher) > 0
	}, testEventuallyWait, 20*time.Millisecond)
}

func TestWatcherFallsBackToPollingWhenEventDirectoryIsMissing(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	fingerprinter := &scriptedFingerprinter{results: []fingerprintResult{at(0)}}
	watcher, constructionError := NewWatcher(
		fingerprinter,
		WithPollInterval(testShortPollInterval),
		WithLogger(zap.New(core)),
		WithEventAssistance(filepath.Join(t.TempDir(), "absent")),
	)
	require.NoError(t, constructionError)
	require.NoError(t, watcher.Start(context.Background()))
	t.Cleanup(watcher.Stop)

	require.Equal(t, 1, recorded.FilterMessage(eventAssistanceFailedMessageConstant).Len())
	waitForSeed(t, fingerprinter)
	fingerprinter.set(at(time.Minute))
	require.Eventually(t, func() bool {
		return pendingEvents(watcher) > 0
	}, testEventuallyWait, testEventuallyTick)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "polling", StatePolling.String())
	require.Equal(t, "notify_pending", StateNotifyPending.String())
	require.Equal(t, "stopped", StateStopped.String())
}
