package organizer

import (
	"context"
	"time"

	appErrors "messynotes-backend/pkg/errors"

	"go.uber.org/zap"
)

// archiveThreshold is how long an ephemeral note may go unmodified before
// the sweep archives it.
const archiveThreshold = 48 * time.Hour

// ArchiveStale archives the user's ephemeral notes that have gone
// unmodified past the threshold and returns how many were archived.
// Archiving does not touch updatedAt, so the sweep is idempotent: a second
// pass with no intervening edits finds nothing.
func (s *service) ArchiveStale(ctx context.Context, userID string) (int, error) {
	notes, err := s.repo.ListActiveNotes(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, "failed to load notes for archival sweep")
	}

	now := s.now()
	archived := 0
	for i := range notes {
		note := notes[i]
		if !note.StaleEphemeral(now, archiveThreshold) {
			continue
		}
		note.Archived = true
		if err := s.repo.UpdateNote(ctx, note); err != nil {
			s.logger.Warn("failed to archive stale note",
				zap.String("user_id", userID),
				zap.String("note_id", note.ID),
				zap.Error(err),
			)
			continue
		}
		s.simIndex.SetArchived(userID, note.ID, true)
		archived++
	}

	if archived > 0 {
		s.invalidateUser(userID)
		s.logger.Info("archived stale ephemeral notes",
			zap.String("user_id", userID),
			zap.Int("count", archived),
		)
	}
	return archived, nil
}

// ArchiveStaleAllUsers runs the archival sweep for every user with notes.
// Used by the periodic scheduler.
func (s *service) ArchiveStaleAllUsers(ctx context.Context) (int, error) {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, "failed to enumerate users for archival sweep")
	}

	total := 0
	for _, userID := range userIDs {
		count, err := s.ArchiveStale(ctx, userID)
		if err != nil {
			s.logger.Warn("archival sweep failed for user",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		total += count
	}
	return total, nil
}
