// Package message produces commit messages for the pipeline. It tries the
// configured language model first and falls back to a deterministic template,
// so composition never fails: the pipeline always gets a valid message.
package message

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/gitpulse/ai/provider"
	"github.com/teranos/gitpulse/gitops"
)

const systemPrompt = `You write git commit messages. Reply with a single line in
conventional commit format: <type>: <summary>. Valid types are feat, fix,
chore, docs, style, refactor, test, perf. No explanation, no quotes, no
trailing period.`

// Message is a composed commit message and how it was produced
type Message struct {
	Text   string
	UsedAI bool
}

// Composer turns a change set into a commit message
type Composer struct {
	generator provider.Generator // nil = template-only
	maxLength int
	logger    *zap.SugaredLogger
}

// NewComposer creates a composer. generator may be nil, in which case every
// message comes from the template path.
func NewComposer(generator provider.Generator, maxLength int, logger *zap.SugaredLogger) *Composer {
	return &Composer{
		generator: generator,
		maxLength: maxLength,
		logger:    logger,
	}
}

// Compose returns a valid commit message for the change set. The AI path is
// attempted once; any failure (error, empty output, validation) falls through
// to the template. Compose never returns an invalid message and never errors.
func (c *Composer) Compose(ctx context.Context, cs *gitops.ChangeSet, theme string) Message {
	if c.generator != nil {
		text, err := c.generator.GenerateText(ctx, systemPrompt, buildUserPrompt(cs, theme))
		if err == nil {
			candidate := sanitize(text)
			if err := Validate(candidate, c.maxLength); err == nil {
				return Message{Text: candidate, UsedAI: true}
			} else if c.logger != nil {
				c.logger.Warnw("AI message failed validation, using template",
					"candidate", candidate,
					"error", err,
				)
			}
		} else if c.logger != nil {
			c.logger.Warnw("AI generation failed, using template",
				"error", err,
			)
		}
	}

	return Message{Text: c.fallback(cs), UsedAI: false}
}

// buildUserPrompt assembles the prompt from the change set and optional theme
func buildUserPrompt(cs *gitops.ChangeSet, theme string) string {
	var b strings.Builder

	b.WriteString("Changed files:\n")
	for _, path := range cs.Paths {
		b.WriteString("  " + path + "\n")
	}

	if cs.Diff != "" {
		b.WriteString("\nDiff:\n")
		b.WriteString(cs.Diff)
		b.WriteString("\n")
	}

	if theme != "" {
		b.WriteString("\nStyle hint: " + theme + "\n")
	}

	b.WriteString("\nWrite the commit message.")
	return b.String()
}

// sanitize reduces raw model output to a single clean subject line
func sanitize(text string) string {
	text = strings.TrimSpace(text)

	// Models wrap answers in code fences or quotes often enough to matter
	text = strings.Trim(text, "`\"'")

	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}

	return strings.TrimSpace(text)
}

// fallback builds the deterministic template message. It is infallible: the
// result always satisfies Validate for any change set.
func (c *Composer) fallback(cs *gitops.ChangeSet) string {
	kind := inferKind(cs.Paths)

	noun := "files"
	if len(cs.Paths) == 1 {
		noun = "file"
	}

	text := fmt.Sprintf("%s: %d %s changed at %s",
		kind, len(cs.Paths), noun, nowStamp())

	if len(text) > c.maxLength {
		// A pathologically small max_length still has to yield a valid message
		text = kind + ": update"
	}

	return text
}
