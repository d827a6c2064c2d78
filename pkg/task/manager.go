package task

import (
	"context"
	"fmt"
	"sync"

	"stream-service/pkg/logger"
)

// BackgroundTask represents a long-running background process (consumer, worker, cron).
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// Manager starts registered tasks in order and stops them in reverse order.
type Manager struct {
	tasks  []BackgroundTask
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewManager() *Manager {
	return &Manager{tasks: make([]BackgroundTask, 0)}
}

// Register adds a background task; should be called during assembly before StartAll.
func (m *Manager) Register(task BackgroundTask) {
	if task == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// StartAll starts all registered tasks once. Tasks started before a failure are stopped again.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	for i, t := range m.tasks {
		if err := t.Start(runCtx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.tasks[j].Stop()
			}
			cancel()
			return fmt.Errorf("start %s: %w", t.Name(), err)
		}
		logger.Infof("background task started name=%s", t.Name())
	}
	m.cancel = cancel
	return nil
}

// StopAll stops all running tasks.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if err := m.tasks[i].Stop(); err != nil {
			logger.Warnf("background task stop failed name=%s error=%v", m.tasks[i].Name(), err)
		}
	}
	m.cancel = nil
}

// FuncTask adapts Start/Stop functions to the BackgroundTask interface.
type FuncTask struct {
	TaskName  string
	StartFunc func(ctx context.Context) error
	StopFunc  func() error
}

func (f *FuncTask) Name() string { return f.TaskName }

func (f *FuncTask) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f *FuncTask) Stop() error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc()
}
