// Package moderation implements the post-verification and approval workflow:
// classifying a reddit comment page into a moderation outcome, and approving
// spam-filtered posts under per-submitter and per-requester rate limits.
package moderation

import (
	"context"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/reddit-tools/modbot/internal/metrics"
	"github.com/reddit-tools/modbot/internal/reddit"
	"github.com/reddit-tools/modbot/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Sender issues a single outbound request to reddit.
type Sender interface {
	Send(ctx context.Context, method, path, body string) (*reddit.Response, error)
}

// Service ties the classifier and the approval workflow to the state store
// and the outbound client.
type Service struct {
	store  *store.Store
	client Sender
	limit  int

	// approvals collapses concurrent approve calls for the same post id so
	// two callers cannot both race past the submitter lock check.
	approvals singleflight.Group
}

// NewService creates a moderation service with the default daily quota.
func NewService(st *store.Store, client Sender) *Service {
	return &Service{
		store:  st,
		client: client,
		limit:  store.DefaultRateLimit,
	}
}

// Classify validates and fetches the given post URL and classifies the page
// into a moderation outcome. Only genuinely completed checks count against
// the requester's daily quota; invalid URLs, off-list subreddits, rate-limit
// rejections and fetch failures are free.
func (s *Service) Classify(ctx context.Context, rawURL, requesterID string, now time.Time) Outcome {
	out := s.classify(ctx, rawURL, requesterID, now)
	metrics.ChecksTotal.WithLabelValues(out.Kind.String()).Inc()
	return out
}

func (s *Service) classify(ctx context.Context, rawURL, requesterID string, now time.Time) Outcome {
	sub, ok := extractSubreddit(rawURL)
	if !ok {
		return Outcome{Kind: OutcomeInvalid}
	}

	if !s.store.HasSubreddit(sub) {
		return Outcome{
			Kind:       OutcomeWrongSub,
			Subreddit:  sub,
			Subreddits: s.store.Subreddits(),
		}
	}

	// Checked before any network call so a throttled requester costs nothing.
	if s.store.RateLimited(requesterID, s.limit) {
		return Outcome{Kind: OutcomeTooMany}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Outcome{Kind: OutcomeInvalid}
	}

	resp, err := s.client.Send(ctx, "GET", u.Path, "")
	if err != nil {
		return Outcome{Kind: OutcomeRequestFailed, Err: err}
	}

	out := s.classifyBody(resp.Body, sub, now)

	// The check completed, whatever it found; charge the quota.
	s.store.RecordRequest(requesterID, now)

	return out
}

// classifyBody scans a fetched comment page and applies the marker priority
// rules. A page can carry stale markup, so the moderator-relevant states
// (approved, removed) take precedence over the generic vote counts.
func (s *Service) classifyBody(body, sub string, now time.Time) Outcome {
	postID, haveID := extractPostID(body)
	submitter, haveUser := extractSubmitter(body)
	modhash, haveHash := extractModhash(body)
	up, down, _ := extractVotes(body)

	if !haveID || !haveUser || !haveHash {
		// Most likely the post no longer exists or the page layout changed.
		return Outcome{Kind: OutcomeNoPost}
	}

	if mod, ok := extractApprovedBy(body); ok {
		return Outcome{Kind: OutcomeAlreadyApproved, ApprovedBy: mod}
	}

	if wasRemoved(body) {
		check := store.PendingCheck{
			Time:      now.UnixMilli(),
			Subreddit: sub,
			PostID:    postID,
			User:      submitter,
			Modhash:   modhash,
		}
		if err := s.store.CachePending(check); err != nil {
			log.Error().Err(err).Str("post_id", postID).Msg("failed to persist pending check")
		}

		log.Info().
			Str("post_id", postID).
			Str("subreddit", sub).
			Str("submitter", submitter).
			Msg("Post flagged by spam filter")

		if s.store.IsLocked(submitter) {
			return Outcome{Kind: OutcomeFlaggedLocked, PostID: postID}
		}
		return Outcome{Kind: OutcomeFlagged, PostID: postID}
	}

	if _, ok := extractRemovedBy(body); ok {
		return Outcome{Kind: OutcomeRemovedByModerator, Subreddit: sub}
	}

	return Outcome{Kind: OutcomeInfo, Upvotes: up, Downvotes: down}
}

// approveForm is the body of the approve call, form-encoded.
type approveForm struct {
	RenderStyle string `url:"renderstyle"`
	ID          string `url:"id"`
	UH          string `url:"uh"`
	R           string `url:"r"`
}

// Approve approves a previously flagged post. Submitter eligibility is
// re-verified at approval time rather than trusted from the earlier check.
// All failures are returned as *ApprovalError.
func (s *Service) Approve(ctx context.Context, postID string, now time.Time) (*Approval, error) {
	v, err, _ := s.approvals.Do(postID, func() (interface{}, error) {
		return s.approve(ctx, postID, now)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Approval), nil
}

func (s *Service) approve(ctx context.Context, postID string, now time.Time) (*Approval, error) {
	check, ok := s.store.GetPending(postID)
	if !ok {
		metrics.ApprovalsTotal.WithLabelValues("unknown").Inc()
		return nil, &ApprovalError{Kind: ErrUnknownPost}
	}

	if s.store.IsLocked(check.User) {
		metrics.ApprovalsTotal.WithLabelValues("locked").Inc()
		return nil, &ApprovalError{Kind: ErrSubmitterLocked}
	}

	form, err := query.Values(approveForm{
		RenderStyle: "html",
		ID:          check.PostID,
		UH:          check.Modhash,
		R:           check.Subreddit,
	})
	if err != nil {
		metrics.ApprovalsTotal.WithLabelValues("request_failed").Inc()
		return nil, &ApprovalError{Kind: ErrRequestFailed, err: err}
	}

	if _, err := s.client.Send(ctx, "POST", "/api/approve", form.Encode()); err != nil {
		metrics.ApprovalsTotal.WithLabelValues("request_failed").Inc()
		return nil, &ApprovalError{Kind: ErrRequestFailed, err: err}
	}

	// One approval per submitter per day.
	if err := s.store.RecordApproval(check.User, now); err != nil {
		log.Error().Err(err).Str("user", check.User).Msg("failed to persist approval lock")
	}

	metrics.ApprovalsTotal.WithLabelValues("approved").Inc()
	log.Info().
		Str("post_id", check.PostID).
		Str("subreddit", check.Subreddit).
		Str("submitter", check.User).
		Msg("Post approved")

	return &Approval{
		PostID:    check.PostID,
		Subreddit: check.Subreddit,
		User:      check.User,
	}, nil
}
