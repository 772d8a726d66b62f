package handlers

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reddit-tools/modbot/internal/moderation"
	"github.com/reddit-tools/modbot/internal/store"
)

// fakeModerator returns canned results and records what it was asked.
type fakeModerator struct {
	outcome   moderation.Outcome
	approval  *moderation.Approval
	err       error
	classifyN int
	approveN  int

	gotURL       string
	gotRequester string
	gotPostID    string
}

func (f *fakeModerator) Classify(_ context.Context, rawURL, requesterID string, _ time.Time) moderation.Outcome {
	f.classifyN++
	f.gotURL = rawURL
	f.gotRequester = requesterID
	return f.outcome
}

func (f *fakeModerator) Approve(_ context.Context, postID string, _ time.Time) (*moderation.Approval, error) {
	f.approveN++
	f.gotPostID = postID
	if f.err != nil {
		return nil, f.err
	}
	return f.approval, nil
}

func newTestHandler(t *testing.T, svc Moderator) *Handler {
	t.Helper()

	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"cookie":"c","reddits":["golang","help"],"ips":{},"users":{},"checks":{}}`), 0600))
	st, err := store.Load(backup)
	require.NoError(t, err)

	// Repo-root template, two levels up from this package
	h, err := NewHandler(svc, st, filepath.Join("..", "..", "template.html"))
	require.NoError(t, err)
	return h
}

func TestHandleIndex_WelcomeForm(t *testing.T) {
	svc := &fakeModerator{}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/r/golang")
	assert.Contains(t, body, "/r/help")
	assert.Zero(t, svc.classifyN)
	assert.Zero(t, svc.approveN)
}

func TestHandleIndex_RefererPrefill(t *testing.T) {
	h := newTestHandler(t, &fakeModerator{})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Referer", "http://www.reddit.com/r/help/comments/abc/title/")
	rec := httptest.NewRecorder()
	h.HandleIndex(rec, req)
	assert.Contains(t, rec.Body.String(), `value="http://www.reddit.com/r/help/comments/abc/title/"`)

	// Non-reddit referers are ignored
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Referer", "http://example.com/somewhere")
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	assert.NotContains(t, rec.Body.String(), "example.com")
}

func TestHandleIndex_ClassifyUsesClientIP(t *testing.T) {
	svc := &fakeModerator{outcome: moderation.Outcome{Kind: moderation.OutcomeInfo, Upvotes: "10", Downvotes: "2"}}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest("GET", "/?url=http://www.reddit.com/r/help/comments/abc/t/", nil)
	req.RemoteAddr = "203.0.113.7:4567"
	rec := httptest.NewRecorder()
	h.HandleIndex(rec, req)

	assert.Equal(t, 1, svc.classifyN)
	assert.Equal(t, "http://www.reddit.com/r/help/comments/abc/t/", svc.gotURL)
	assert.Equal(t, "203.0.113.7", svc.gotRequester)
	assert.Contains(t, rec.Body.String(), "10 upvotes")
}

func TestHandleIndex_FlaggedShowsApproveLink(t *testing.T) {
	svc := &fakeModerator{outcome: moderation.Outcome{Kind: moderation.OutcomeFlagged, PostID: "t3_abc"}}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/?url=http://www.reddit.com/r/help/comments/abc/t/", nil))

	assert.Contains(t, rec.Body.String(), "/?id=t3_abc")
}

func TestHandleIndex_FlaggedLocked(t *testing.T) {
	svc := &fakeModerator{outcome: moderation.Outcome{Kind: moderation.OutcomeFlaggedLocked}}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/?url=http://www.reddit.com/r/help/comments/abc/t/", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "already had")
	assert.NotContains(t, body, "/?id=")
}

func TestHandleIndex_WrongSubListsChoices(t *testing.T) {
	svc := &fakeModerator{outcome: moderation.Outcome{
		Kind:       moderation.OutcomeWrongSub,
		Subreddit:  "pics",
		Subreddits: []string{"golang", "help"},
	}}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/?url=http://www.reddit.com/r/pics/comments/abc/t/", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "/r/pics isn")
	assert.Contains(t, body, "/r/golang")
}

func TestHandleIndex_ApproveSuccess(t *testing.T) {
	svc := &fakeModerator{approval: &moderation.Approval{PostID: "t3_abc", User: "alice"}}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/?id=t3_abc", nil))

	assert.Equal(t, 1, svc.approveN)
	assert.Equal(t, "t3_abc", svc.gotPostID)
	assert.Contains(t, rec.Body.String(), "has been approved")
}

func TestHandleIndex_ApproveErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown post", &moderation.ApprovalError{Kind: moderation.ErrUnknownPost}, "Something went wrong"},
		{"locked submitter", &moderation.ApprovalError{Kind: moderation.ErrSubmitterLocked}, "already had a post approved"},
		{"request failed", &moderation.ApprovalError{Kind: moderation.ErrRequestFailed}, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeModerator{err: tt.err}
			h := newTestHandler(t, svc)

			rec := httptest.NewRecorder()
			h.HandleIndex(rec, httptest.NewRequest("GET", "/?id=t3_abc", nil))
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestHandleHealthz(t *testing.T) {
	h := newTestHandler(t, &fakeModerator{})

	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
