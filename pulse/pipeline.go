package pulse

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/gitops"
	"github.com/teranos/gitpulse/message"
)

// GitBackend is the version-control collaborator the pipeline drives.
// *gitops.Repository implements it.
type GitBackend interface {
	HasChanges() (bool, error)
	StageAll() error
	ChangedFilesAndDiff(maxBytes int) (*gitops.ChangeSet, error)
	Commit(message string, author gitops.Author) (string, error)
	Push(ctx context.Context) error
}

// MessageSource produces a commit message for a changeset.
// *message.Composer implements it.
type MessageSource interface {
	Compose(ctx context.Context, cs *gitops.ChangeSet, theme string) message.Message
}

// OutcomeRecorder persists outcomes. *Store implements it.
type OutcomeRecorder interface {
	RecordOutcome(o *Outcome) error
}

// Pipeline executes one commit attempt end to end: detect changes,
// stage, compose a message, commit, push with retry, record the outcome.
// Only the scheduler loop calls Run, so attempts never overlap.
type Pipeline struct {
	repo     GitBackend
	composer MessageSource
	store    OutcomeRecorder // nil disables persistence
	logger   *zap.SugaredLogger

	mu  sync.Mutex
	cfg *am.Config
}

// NewPipeline creates a commit pipeline
func NewPipeline(repo GitBackend, composer MessageSource, store OutcomeRecorder, cfg *am.Config, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		composer: composer,
		store:    store,
		cfg:      cfg,
		logger:   log,
	}
}

// ApplyConfig swaps in a freshly loaded configuration. Takes effect on
// the next Run.
func (p *Pipeline) ApplyConfig(cfg *am.Config) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func (p *Pipeline) config() *am.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Run executes one commit attempt and always returns an outcome.
// Stage and commit failures are fatal to the attempt; push failure
// after retries only degrades it; persistence failure is logged and
// swallowed.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	cfg := p.config()

	outcome := &Outcome{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}

	hasChanges, err := p.repo.HasChanges()
	if err != nil {
		// Status errors count as stage failures for the record
		return p.fail(outcome, ErrKindStageFailed, err)
	}
	if !hasChanges {
		p.logger.Debugw("No changes to commit", "outcome_id", outcome.ID)
		outcome.ErrorKind = ErrKindNoChanges
		p.record(outcome)
		return outcome
	}

	if err := p.repo.StageAll(); err != nil {
		return p.fail(outcome, ErrKindStageFailed, err)
	}

	changeset, err := p.repo.ChangedFilesAndDiff(cfg.LocalInference.MaxPromptBytes)
	if err != nil {
		// The staged files still get committed; compose falls back to
		// the template path on an empty changeset
		p.logger.Warnw("Failed to collect changed files and diff", "error", err)
		changeset = &gitops.ChangeSet{}
	}

	msg := p.composer.Compose(ctx, changeset, cfg.Message.Theme)
	outcome.Message = msg.Text
	outcome.UsedAI = msg.UsedAI
	outcome.FilesChanged = len(changeset.Paths)

	author := gitops.Author{
		Name:  cfg.Commit.AuthorName,
		Email: cfg.Commit.AuthorEmail,
	}
	hash, err := p.repo.Commit(msg.Text, author)
	if err != nil {
		return p.fail(outcome, ErrKindCommitFailed, err)
	}
	outcome.CommitHash = hash
	outcome.Success = true

	p.logger.Infow("Committed",
		"hash", shortHash(hash),
		"files", outcome.FilesChanged,
		"used_ai", outcome.UsedAI,
		"message", msg.Text)

	if cfg.Push.Enabled {
		if err := p.pushWithRetry(ctx, cfg); err != nil {
			// The commit already succeeded locally, so a failed push
			// only flags the outcome
			outcome.PushFailed = true
			outcome.ErrorKind = ErrKindPushFailed
			p.logger.Warnw("Push failed after retries", "hash", shortHash(hash), "error", err)
		}
	}

	p.record(outcome)
	return outcome
}

// pushWithRetry attempts the push up to max_retries+1 times with
// exponential backoff between attempts (base doubling, capped)
func (p *Pipeline) pushWithRetry(ctx context.Context, cfg *am.Config) error {
	attempts := cfg.Push.MaxRetries + 1
	base := time.Duration(cfg.Push.BackoffBaseSeconds) * time.Second
	ceiling := time.Duration(cfg.Push.BackoffMaxSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := base << (attempt - 2)
			if ceiling > 0 && delay > ceiling {
				delay = ceiling
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = p.repo.Push(ctx); lastErr == nil {
			return nil
		}
		p.logger.Warnw("Push attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", lastErr)
	}

	return lastErr
}

func (p *Pipeline) fail(o *Outcome, kind ErrorKind, err error) *Outcome {
	o.ErrorKind = kind
	p.logger.Errorw("Commit attempt failed",
		"outcome_id", o.ID,
		"error_kind", kind,
		"error", err)
	p.record(o)
	return o
}

// record hands the outcome to the store. Persistence failures are
// logged and swallowed so an unavailable store never stops scheduling.
func (p *Pipeline) record(o *Outcome) {
	if p.store == nil {
		return
	}
	if err := p.store.RecordOutcome(o); err != nil {
		p.logger.Warnw("Failed to record outcome", "outcome_id", o.ID, "error", err)
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
