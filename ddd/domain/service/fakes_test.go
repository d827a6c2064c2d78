package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/gateway"
	"stream-service/ddd/domain/port"
	"stream-service/ddd/domain/vo"
	"stream-service/pkg/errno"
)

type fakeRepo struct {
	mu    sync.Mutex
	items map[string]entity.VideoAssetSnapshot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]entity.VideoAssetSnapshot)}
}

func (r *fakeRepo) Save(_ context.Context, v *entity.VideoAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[v.ID()] = v.Snapshot()
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*entity.VideoAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, errno.Newf(errno.ErrVideoNotFound, "video %s", id)
	}
	return entity.RestoreVideoAsset(s), nil
}

func (r *fakeRepo) FindAll(_ context.Context) ([]*entity.VideoAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.VideoAsset, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, entity.RestoreVideoAsset(s))
	}
	return out, nil
}

func (r *fakeRepo) FindByStates(ctx context.Context, states ...vo.VideoState) ([]*entity.VideoAsset, error) {
	all, _ := r.FindAll(ctx)
	out := make([]*entity.VideoAsset, 0, len(all))
	for _, v := range all {
		for _, s := range states {
			if v.State() == s {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type fakeLock struct {
	held sync.Map
}

func (l *fakeLock) TryAcquire(_ context.Context, id string) (func(), error) {
	if _, loaded := l.held.LoadOrStore(id, struct{}{}); loaded {
		return nil, errno.Newf(errno.ErrJobAlreadyRunning, "video %s", id)
	}
	var once sync.Once
	return func() { once.Do(func() { l.held.Delete(id) }) }, nil
}

func (l *fakeLock) IsHeld(_ context.Context, id string) (bool, error) {
	_, ok := l.held.Load(id)
	return ok, nil
}

// scriptedEncoder writes a playlist and segments unless told otherwise.
type scriptedEncoder struct {
	mu       sync.Mutex
	calls    int
	exitCode int
	err      error
	segments int
	block    chan struct{}
}

func (e *scriptedEncoder) Run(ctx context.Context, _ string, outputDir string) (*port.EncodeResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, errno.NewBizError(errno.ErrEncodeTimeout, ctx.Err())
			}
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.exitCode != 0 {
		return &port.EncodeResult{ExitCode: e.exitCode, Stderr: "encoder said no"}, &port.EncodeFailedError{ExitCode: e.exitCode, Stderr: "encoder said no"}
	}
	if err := os.WriteFile(filepath.Join(outputDir, MasterPlaylistName), []byte("#EXTM3U\n"), 0o644); err != nil {
		return nil, err
	}
	for i := 0; i < e.segments; i++ {
		name := filepath.Join(outputDir, fmt.Sprintf(SegmentPattern, i))
		if err := os.WriteFile(name, []byte("ts"), 0o644); err != nil {
			return nil, err
		}
	}
	return &port.EncodeResult{ExitCode: 0}, nil
}

func (e *scriptedEncoder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []gateway.VideoEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt gateway.VideoEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type countingArchiver struct {
	mu   sync.Mutex
	dirs []string
}

func (a *countingArchiver) ArchiveDirectory(_ context.Context, _ string, dir string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirs = append(a.dirs, dir)
	entries, err := os.ReadDir(dir)
	return len(entries), err
}
