package organizer

import (
	"context"
	"testing"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoLinkCreatesLinkOnMention(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	alpha, err := svc.CreateNote(ctx, testUser, NoteInput{
		Title:   "Project Alpha",
		RawText: "Kickoff notes for the alpha initiative.",
	})
	require.NoError(t, err)
	standup, err := svc.CreateNote(ctx, testUser, NoteInput{
		Title:   "Standup",
		RawText: "Nothing of note today.",
	})
	require.NoError(t, err)

	text := "Today we discussed PROJECT ALPHA timelines and blockers."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &text, AutoOrganize: true})
	require.NoError(t, err)

	link, err := repo.FindLink(ctx, testUser, standup.ID, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InitialLinkStrength, link.Strength)
	assert.Contains(t, link.Reason, "Project Alpha")
}

func TestAutoLinkReinforcesExistingLink(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	alpha, err := svc.CreateNote(ctx, testUser, NoteInput{
		Title:   "Project Alpha",
		RawText: "Kickoff notes for the alpha initiative.",
	})
	require.NoError(t, err)
	standup, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Standup"})
	require.NoError(t, err)

	first := "Discussed project alpha timelines."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &first, AutoOrganize: true})
	require.NoError(t, err)

	second := "Revisited project alpha scope after review."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &second, AutoOrganize: true})
	require.NoError(t, err)

	link, err := repo.FindLink(ctx, testUser, standup.ID, alpha.ID)
	require.NoError(t, err)
	assert.InDelta(t, domain.InitialLinkStrength+domain.AutoLinkDelta, link.Strength, 1e-9)
}

func TestAutoLinkMatchesReverseDirection(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// The candidate's text mentions the updated note's title.
	candidate, err := svc.CreateNote(ctx, testUser, NoteInput{
		Title:   "Friday retro",
		RawText: "Carry the open items into the weekly review.",
	})
	require.NoError(t, err)
	review, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Weekly Review"})
	require.NoError(t, err)

	text := "Agenda for this week."
	_, err = svc.UpdateNote(ctx, testUser, review.ID, NotePatch{RawText: &text, AutoOrganize: true})
	require.NoError(t, err)

	link, err := repo.FindLink(ctx, testUser, review.ID, candidate.ID)
	require.NoError(t, err)
	assert.Contains(t, link.Reason, "Weekly Review")
}

func TestAutoLinkIgnoresShortTitles(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Go", RawText: "Language notes."})
	require.NoError(t, err)
	standup, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Standup"})
	require.NoError(t, err)

	text := "We need to go over the release plan."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &text, AutoOrganize: true})
	require.NoError(t, err)

	links, err := repo.ListLinks(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAutoLinkRequiresOptIn(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Project Alpha", RawText: "Kickoff."})
	require.NoError(t, err)
	standup, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Standup"})
	require.NoError(t, err)

	text := "Discussed project alpha timelines."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &text})
	require.NoError(t, err)

	links, err := repo.ListLinks(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAutoLinkSkipsArchivedCandidates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedNote(t, repo, domain.Note{Title: "Project Alpha", RawText: "Kickoff.", Archived: true})
	standup, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "Standup"})
	require.NoError(t, err)

	text := "Discussed project alpha timelines."
	_, err = svc.UpdateNote(ctx, testUser, standup.ID, NotePatch{RawText: &text, AutoOrganize: true})
	require.NoError(t, err)

	links, err := repo.ListLinks(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestCreateLinkManual(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "A"})
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "B"})
	require.NoError(t, err)

	link, err := svc.CreateLink(ctx, testUser, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InitialLinkStrength, link.Strength)
	assert.Contains(t, link.Reason, `"B"`)

	// Re-linking the same ordered pair reinforces instead of failing.
	link, err = svc.CreateLink(ctx, testUser, a.ID, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, domain.InitialLinkStrength+domain.ManualLinkDelta, link.Strength, 1e-9)
}

func TestCreateLinkRejectsSelfLink(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "A"})
	require.NoError(t, err)

	_, err = svc.CreateLink(ctx, testUser, a.ID, a.ID)
	assert.True(t, appErrors.IsValidation(err))
}

func TestCreateLinkRejectsMissingEnds(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateNote(ctx, testUser, NoteInput{Title: "A"})
	require.NoError(t, err)

	_, err = svc.CreateLink(ctx, testUser, a.ID, "missing")
	assert.True(t, appErrors.IsInvalidReference(err))

	_, err = svc.CreateLink(ctx, testUser, "missing", a.ID)
	assert.True(t, appErrors.IsInvalidReference(err))
}
