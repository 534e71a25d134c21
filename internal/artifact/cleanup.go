package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/voice-service/internal/core"
)

// DeleteMatching removes every artifact whose id satisfies the predicate and
// returns the number removed. Deletion is best-effort: a single-item failure
// is recorded and the remaining matches are still attempted, so frequent
// cleanup runs make progress even on a flaky store. An artifact deleted by a
// concurrent run counts as removed here too.
func DeleteMatching(
	ctx context.Context,
	store core.ArtifactStore,
	predicate func(id string) bool,
) (int, error) {
	keys, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts for cleanup: %w", err)
	}

	var (
		deleted  int
		firstErr error
	)

	for _, key := range keys {
		if !predicate(key) {
			continue
		}

		deleteErr := store.Delete(ctx, key)
		if deleteErr != nil && !errors.Is(deleteErr, core.ErrNotFound) {
			if firstErr == nil {
				firstErr = deleteErr
			}

			continue
		}

		deleted++
	}

	return deleted, firstErr
}
