package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// StatsSource is the part of storage the monitor reads.
type StatsSource interface {
	Stats() (storage.Stats, error)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Storage     StatsSource
	StorageType string
	LogManager  *logging.SlogManager
	DexCache    *cache.DexCache
	Version     string
	// StatusFile, when set, is rewritten with the status every Interval.
	StatusFile string
	Interval   time.Duration
	// Breakers reports the state of each remote service.
	Breakers func() map[string]string
	Now      func() time.Time
}

// ToolStats aggregates the calls of one tool.
type ToolStats struct {
	Calls      int            `json:"calls"`
	Failures   int            `json:"failures"`
	ErrorKinds map[string]int `json:"errorKinds,omitempty"`
	AvgMs      float64        `json:"avgMs"`
	MaxMs      float64        `json:"maxMs"`
	LastCall   time.Time      `json:"lastCall"`

	totalMs float64
}

// CacheStats describes the pokedex read cache.
type CacheStats struct {
	Species int `json:"species"`
	Moves   int `json:"moves"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Status is the snapshot returned by get_status.
type Status struct {
	Version     string               `json:"version"`
	StartedAt   time.Time            `json:"startedAt"`
	Uptime      string               `json:"uptime"`
	StorageType string               `json:"storage"`
	Storage     storage.Stats        `json:"counts"`
	StorageErr  string               `json:"storageError,omitempty"`
	Cache       *CacheStats          `json:"cache,omitempty"`
	TotalCalls  int                  `json:"totalCalls"`
	Tools       map[string]ToolStats `json:"tools"`
	Breakers    map[string]string    `json:"breakers,omitempty"`
}

// Service tracks tool calls and reports program status
type Service struct {
	deps      Dependencies
	startedAt time.Time

	mu        sync.RWMutex
	tools     map[string]*ToolStats
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	return &Service{
		deps:      deps,
		startedAt: deps.Now(),
		tools:     make(map[string]*ToolStats),
	}
}

// Observe counts a finished call. It is registered as a dispatcher observer.
func (s *Service) Observe(rec core.CallRecord) {
	ms := float64(rec.Duration.Microseconds()) / 1000

	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.tools[rec.Tool]
	if !ok {
		ts = &ToolStats{}
		s.tools[rec.Tool] = ts
	}
	ts.Calls++
	ts.totalMs += ms
	ts.AvgMs = ts.totalMs / float64(ts.Calls)
	ts.MaxMs = max(ts.MaxMs, ms)
	if rec.Time.After(ts.LastCall) {
		ts.LastCall = rec.Time
	}
	if !rec.OK {
		ts.Failures++
		if ts.ErrorKinds == nil {
			ts.ErrorKinds = make(map[string]int)
		}
		ts.ErrorKinds[rec.ErrorKind]++
	}
}

// GetStatus returns the current program status
func (s *Service) GetStatus() Status {
	st := Status{
		Version:     s.deps.Version,
		StartedAt:   s.startedAt,
		Uptime:      s.deps.Now().Sub(s.startedAt).Truncate(time.Second).String(),
		StorageType: s.deps.StorageType,
		Tools:       make(map[string]ToolStats),
	}

	if s.deps.Storage != nil {
		counts, err := s.deps.Storage.Stats()
		if err != nil {
			st.StorageErr = err.Error()
		}
		st.Storage = counts
	}
	if s.deps.DexCache != nil {
		species, moves, hits, misses := s.deps.DexCache.Stats()
		st.Cache = &CacheStats{Species: species, Moves: moves, Hits: hits, Misses: misses}
	}
	if s.deps.Breakers != nil {
		st.Breakers = s.deps.Breakers()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, ts := range s.tools {
		cp := *ts
		if ts.ErrorKinds != nil {
			cp.ErrorKinds = make(map[string]int, len(ts.ErrorKinds))
			for k, v := range ts.ErrorKinds {
				cp.ErrorKinds[k] = v
			}
		}
		st.Tools[name] = cp
		st.TotalCalls += ts.Calls
	}
	return st
}

// ToolNames returns the tools seen so far, sorted.
func (s *Service) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteStatusFile writes the status as indented JSON, replacing the file.
func (s *Service) WriteStatusFile(path string) error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating status dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return os.Rename(tmp, path)
}

// IsRunning returns whether the status writer is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status file writer. It does nothing without a StatusFile.
func (s *Service) Start() error {
	if s.deps.StatusFile == "" {
		return nil
	}
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		s.deps.LogManager.WriteLog("startStatusMonitor", "Starting status monitor", "DEBUG")
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatusFile(s.deps.StatusFile); err != nil {
					s.deps.LogManager.WriteLog("startStatusMonitor", err.Error(), "ERROR")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status writer and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
