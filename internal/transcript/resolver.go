package transcript

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

// Source is one upstream transcript provider. Implementations are stateless;
// each call stands alone and partial results are never merged across sources.
type Source interface {
	Name() string
	// Timeout bounds a single attempt against this source.
	Timeout() time.Duration
	Transcribe(ctx context.Context, ref, langHint string) (string, error)
}

// Resolver tries an ordered chain of sources until one produces a transcript.
// A source failure advances the chain immediately; there are no per-source
// retries. Intermediate failures are logged and swallowed; only the last
// source's error is surfaced to the caller.
type Resolver struct {
	sources []Source
	ceiling time.Duration
}

func NewResolver(ceiling time.Duration, sources ...Source) *Resolver {
	return &Resolver{sources: sources, ceiling: ceiling}
}

func (r *Resolver) Resolve(ctx context.Context, ref, langHint string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", domain.Invalid("content reference is empty")
	}
	if len(r.sources) == 0 {
		return "", domain.Invalid("no transcript sources configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.ceiling)
	defer cancel()

	var lastErr error
	for _, source := range r.sources {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			break
		}

		attemptCtx, cancelAttempt := context.WithTimeout(ctx, source.Timeout())
		text, err := source.Transcribe(attemptCtx, ref, langHint)
		cancelAttempt()

		if err != nil {
			log.Printf("transcript source %s failed for %s: %v", source.Name(), ref, err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("transcript source %s returned empty transcript for %s", source.Name(), ref)
			lastErr = domain.Upstream(source.Name()+" returned empty transcript", nil)
			continue
		}
		return text, nil
	}

	return "", domain.Upstream("all transcript sources failed", lastErr)
}
