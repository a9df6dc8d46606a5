package organizer

import (
	"context"
	"fmt"
	"strings"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// minMentionTitleLen guards against trivial matches: one- and two-character
// titles would be contained in almost any text.
const minMentionTitleLen = 3

// autoLink scans every other active note for mutual textual mentions of the
// just-updated note. A match either creates a directed link from the
// updated note to the candidate or strengthens the existing one.
//
// This is deliberately a linear heuristic: one case-insensitive substring
// scan per candidate, no index built across calls. Errors on individual
// candidates are logged and skipped; a concurrent edit losing one link
// update is accepted.
func (s *service) autoLink(ctx context.Context, updated *domain.Note) {
	candidates, err := s.repo.ListActiveNotes(ctx, updated.UserID)
	if err != nil {
		s.logger.Warn("auto-link scan could not load notes",
			zap.String("user_id", updated.UserID),
			zap.Error(err),
		)
		return
	}

	updatedText := strings.ToLower(updated.RawText)
	updatedTitle := strings.ToLower(updated.Title)

	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == updated.ID {
			continue
		}

		term, matched := mentionMatch(updatedText, updatedTitle, updated.Title, candidate)
		if !matched {
			continue
		}

		if err := s.reinforceOrCreateLink(ctx, updated.UserID, updated.ID, candidate.ID, domain.AutoLinkDelta, fmt.Sprintf("mentions %q", term)); err != nil {
			s.logger.Warn("auto-link failed for candidate",
				zap.String("user_id", updated.UserID),
				zap.String("note_id", updated.ID),
				zap.String("candidate_id", candidate.ID),
				zap.Error(err),
			)
		}
	}
}

// mentionMatch checks containment in both directions: the updated note's
// text mentioning the candidate's title, or the candidate's text mentioning
// the updated note's title. Returns the shared term for the link reason.
func mentionMatch(updatedText, updatedTitleLower, updatedTitle string, candidate *domain.Note) (string, bool) {
	candidateTitle := strings.ToLower(candidate.Title)
	if len(candidateTitle) >= minMentionTitleLen && strings.Contains(updatedText, candidateTitle) {
		return candidate.Title, true
	}
	if len(updatedTitleLower) >= minMentionTitleLen && strings.Contains(strings.ToLower(candidate.RawText), updatedTitleLower) {
		return updatedTitle, true
	}
	return "", false
}

// reinforceOrCreateLink increments an existing ordered-pair link by delta,
// or creates it at the initial strength.
func (s *service) reinforceOrCreateLink(ctx context.Context, userID, sourceID, targetID string, delta float64, reason string) error {
	_, err := s.repo.FindLink(ctx, userID, sourceID, targetID)
	switch {
	case err == nil:
		return s.repo.IncrementLinkStrength(ctx, userID, sourceID, targetID, delta)
	case appErrors.IsNotFound(err):
		now := s.now()
		return s.repo.CreateLink(ctx, domain.Link{
			ID:        uuid.New().String(),
			UserID:    userID,
			SourceID:  sourceID,
			TargetID:  targetID,
			Strength:  domain.InitialLinkStrength,
			Reason:    reason,
			CreatedAt: now,
			UpdatedAt: now,
		})
	default:
		return err
	}
}

// CreateLink is the explicit, user-initiated link operation. Re-creating an
// existing ordered pair reinforces it by the manual delta rather than
// failing.
func (s *service) CreateLink(ctx context.Context, userID, sourceID, targetID string) (*domain.Link, error) {
	if sourceID == targetID {
		return nil, appErrors.NewValidation("a note cannot link to itself")
	}

	// Both ends must exist; a note deleted mid-request surfaces as an
	// invalid reference, not a generic failure.
	if _, err := s.repo.FindNoteByID(ctx, userID, sourceID); err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewInvalidReference("source note does not exist")
		}
		return nil, err
	}
	target, err := s.repo.FindNoteByID(ctx, userID, targetID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewInvalidReference("target note does not exist")
		}
		return nil, err
	}

	if err := s.reinforceOrCreateLink(ctx, userID, sourceID, targetID, domain.ManualLinkDelta, fmt.Sprintf("linked to %q", target.Title)); err != nil {
		return nil, err
	}
	s.invalidateUser(userID)
	return s.repo.FindLink(ctx, userID, sourceID, targetID)
}

// ListLinks returns all of the user's links.
func (s *service) ListLinks(ctx context.Context, userID string) ([]domain.Link, error) {
	return s.repo.ListLinks(ctx, userID)
}
