package pulse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/gitops"
	"github.com/teranos/gitpulse/message"
)

const testHash = "0123456789abcdef0123456789abcdef01234567"

type fakeRepo struct {
	changes    bool
	changesErr error
	stageErr   error
	diffErr    error
	commitErr  error
	pushErr    error

	// pushFailures fails the first N push attempts even when pushErr
	// is unset
	pushFailures int

	stageCalls  int
	commitCalls int
	pushCalls   int
	changeset   *gitops.ChangeSet
}

func (f *fakeRepo) HasChanges() (bool, error) {
	return f.changes, f.changesErr
}

func (f *fakeRepo) StageAll() error {
	f.stageCalls++
	return f.stageErr
}

func (f *fakeRepo) ChangedFilesAndDiff(maxBytes int) (*gitops.ChangeSet, error) {
	if f.diffErr != nil {
		return nil, f.diffErr
	}
	if f.changeset != nil {
		return f.changeset, nil
	}
	return &gitops.ChangeSet{
		Paths: []string{"main.go", "util.go"},
		Diff:  "--- a/main.go\n+++ b/main.go\n+added line\n",
	}, nil
}

func (f *fakeRepo) Commit(msg string, author gitops.Author) (string, error) {
	f.commitCalls++
	if f.commitErr != nil {
		return "", f.commitErr
	}
	return testHash, nil
}

func (f *fakeRepo) Push(ctx context.Context) error {
	f.pushCalls++
	if f.pushErr != nil {
		return f.pushErr
	}
	if f.pushCalls <= f.pushFailures {
		return assert.AnError
	}
	return nil
}

type fakeRecorder struct {
	outcomes []*Outcome
	err      error
}

func (r *fakeRecorder) RecordOutcome(o *Outcome) error {
	r.outcomes = append(r.outcomes, o)
	return r.err
}

func pipelineConfig() *am.Config {
	return &am.Config{
		Schedule: am.ScheduleConfig{IntervalSeconds: 600, JitterSeconds: 50},
		Push: am.PushConfig{
			Enabled:            false,
			MaxRetries:         2,
			BackoffBaseSeconds: 0,
			BackoffMaxSeconds:  0,
		},
		Commit: am.CommitConfig{
			AuthorName:  "gitpulse",
			AuthorEmail: "gitpulse@localhost",
		},
		Message:        am.MessageConfig{MaxLength: 120},
		LocalInference: am.LocalInferenceConfig{MaxPromptBytes: 8192},
	}
}

func newTestPipeline(repo *fakeRepo, recorder *fakeRecorder, cfg *am.Config) *Pipeline {
	log := zap.NewNop().Sugar()
	composer := message.NewComposer(nil, cfg.Message.MaxLength, log)
	return NewPipeline(repo, composer, recorder, cfg, log)
}

func TestPipelineNoChanges(t *testing.T) {
	repo := &fakeRepo{changes: false}
	recorder := &fakeRecorder{}
	p := newTestPipeline(repo, recorder, pipelineConfig())

	o := p.Run(context.Background())

	assert.False(t, o.Success)
	assert.Equal(t, ErrKindNoChanges, o.ErrorKind)
	assert.Zero(t, repo.stageCalls)
	assert.Zero(t, repo.commitCalls)
	assert.Zero(t, repo.pushCalls)
	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, o.ID, recorder.outcomes[0].ID)
}

func TestPipelineStageFailed(t *testing.T) {
	repo := &fakeRepo{changes: true, stageErr: assert.AnError}
	recorder := &fakeRecorder{}
	p := newTestPipeline(repo, recorder, pipelineConfig())

	o := p.Run(context.Background())

	assert.False(t, o.Success)
	assert.Equal(t, ErrKindStageFailed, o.ErrorKind)
	assert.Zero(t, repo.commitCalls)
	require.Len(t, recorder.outcomes, 1)
}

func TestPipelineStatusErrorCountsAsStageFailure(t *testing.T) {
	repo := &fakeRepo{changesErr: assert.AnError}
	p := newTestPipeline(repo, &fakeRecorder{}, pipelineConfig())

	o := p.Run(context.Background())

	assert.False(t, o.Success)
	assert.Equal(t, ErrKindStageFailed, o.ErrorKind)
	assert.Zero(t, repo.stageCalls)
}

func TestPipelineCommitFailed(t *testing.T) {
	repo := &fakeRepo{changes: true, commitErr: assert.AnError}
	recorder := &fakeRecorder{}
	p := newTestPipeline(repo, recorder, pipelineConfig())

	o := p.Run(context.Background())

	assert.False(t, o.Success)
	assert.Equal(t, ErrKindCommitFailed, o.ErrorKind)
	assert.Empty(t, o.CommitHash)
	assert.Zero(t, repo.pushCalls)
}

func TestPipelineSuccessWithoutPush(t *testing.T) {
	repo := &fakeRepo{changes: true}
	recorder := &fakeRecorder{}
	p := newTestPipeline(repo, recorder, pipelineConfig())

	o := p.Run(context.Background())

	assert.True(t, o.Success)
	assert.False(t, o.PushFailed)
	assert.Empty(t, o.ErrorKind)
	assert.Equal(t, testHash, o.CommitHash)
	assert.Equal(t, 2, o.FilesChanged)
	assert.False(t, o.UsedAI)
	assert.NoError(t, message.Validate(o.Message, 120))
	assert.Zero(t, repo.pushCalls)
	require.Len(t, recorder.outcomes, 1)
}

func TestPipelinePushRetriesExhausted(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Push.Enabled = true
	cfg.Push.MaxRetries = 2

	repo := &fakeRepo{changes: true, pushErr: assert.AnError}
	p := newTestPipeline(repo, &fakeRecorder{}, cfg)

	o := p.Run(context.Background())

	// max_retries + 1 attempts in total
	assert.Equal(t, 3, repo.pushCalls)
	assert.True(t, o.Success)
	assert.True(t, o.PushFailed)
	assert.Equal(t, ErrKindPushFailed, o.ErrorKind)
	assert.Equal(t, testHash, o.CommitHash)
}

func TestPipelinePushSucceedsOnRetry(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Push.Enabled = true
	cfg.Push.MaxRetries = 3

	repo := &fakeRepo{changes: true, pushFailures: 2}
	p := newTestPipeline(repo, &fakeRecorder{}, cfg)

	o := p.Run(context.Background())

	assert.Equal(t, 3, repo.pushCalls)
	assert.True(t, o.Success)
	assert.False(t, o.PushFailed)
	assert.Empty(t, o.ErrorKind)
}

func TestPipelineRecorderFailureSwallowed(t *testing.T) {
	repo := &fakeRepo{changes: true}
	recorder := &fakeRecorder{err: assert.AnError}
	p := newTestPipeline(repo, recorder, pipelineConfig())

	o := p.Run(context.Background())

	assert.True(t, o.Success)
	require.Len(t, recorder.outcomes, 1)
}

func TestPipelineNilRecorder(t *testing.T) {
	repo := &fakeRepo{changes: true}
	cfg := pipelineConfig()
	log := zap.NewNop().Sugar()
	p := NewPipeline(repo, message.NewComposer(nil, cfg.Message.MaxLength, log), nil, cfg, log)

	o := p.Run(context.Background())
	assert.True(t, o.Success)
}

func TestPipelineDiffErrorStillCommits(t *testing.T) {
	repo := &fakeRepo{changes: true, diffErr: assert.AnError}
	p := newTestPipeline(repo, &fakeRecorder{}, pipelineConfig())

	o := p.Run(context.Background())

	assert.True(t, o.Success)
	assert.Zero(t, o.FilesChanged)
	assert.NoError(t, message.Validate(o.Message, 120))
}
