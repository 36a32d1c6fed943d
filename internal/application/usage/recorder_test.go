package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/domain/entity"
)

type fakeUsageRepo struct {
	mu      sync.Mutex
	events  []*entity.LLMUsageEvent
	createC chan struct{}
	err     error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{createC: make(chan struct{}, 128)}
}

func (f *fakeUsageRepo) Create(_ context.Context, event *entity.LLMUsageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.createC <- struct{}{}
	return nil
}

func (f *fakeUsageRepo) GetTokenUsage(context.Context, string, time.Time, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, e := range f.events {
		total += int64(e.TokensPrompt + e.TokensCompletion)
	}
	return total, nil
}

func (f *fakeUsageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func waitCreates(t *testing.T, repo *fakeUsageRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-repo.createC:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for create %d/%d", i+1, n)
		}
	}
}

func TestRecorder_WritesInBackground(t *testing.T) {
	repo := newFakeUsageRepo()
	r := NewRecorder(repo, 8)
	defer r.Close()

	r.Record(context.Background(), &entity.LLMUsageEvent{
		Feature:          "chat",
		Provider:         "azure",
		Model:            "gpt-4o",
		TokensPrompt:     120,
		TokensCompletion: 45,
	})

	waitCreates(t, repo, 1)
	require.Equal(t, 1, repo.count())
	assert.Equal(t, "chat", repo.events[0].Feature)
	assert.Equal(t, 120, repo.events[0].TokensPrompt)
}

func TestRecorder_CloseDrainsQueue(t *testing.T) {
	repo := newFakeUsageRepo()
	r := NewRecorder(repo, 64)

	for i := 0; i < 10; i++ {
		r.Record(context.Background(), &entity.LLMUsageEvent{Feature: "chat", Provider: "azure", Model: "gpt-4o"})
	}
	r.Close()

	// Close は積み残しを書き切ってから戻る
	assert.Equal(t, 10, repo.count())
}

func TestRecorder_NilEventIgnored(t *testing.T) {
	repo := newFakeUsageRepo()
	r := NewRecorder(repo, 8)
	defer r.Close()

	r.Record(context.Background(), nil)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, repo.count())
}

func TestRecorder_RepoErrorDoesNotPropagate(t *testing.T) {
	repo := newFakeUsageRepo()
	repo.err = assert.AnError
	r := NewRecorder(repo, 8)

	// 書き込み失敗は呼び出し側に伝播しない
	r.Record(context.Background(), &entity.LLMUsageEvent{Feature: "chat", Provider: "azure", Model: "gpt-4o"})
	r.Close()
	assert.Zero(t, repo.count())
}

func TestRecorder_CloseIdempotent(t *testing.T) {
	r := NewRecorder(newFakeUsageRepo(), 8)
	r.Close()
	r.Close()
}
