package moderation

import "fmt"

// OutcomeKind enumerates the classification states a checked post can be in.
type OutcomeKind int

const (
	// OutcomeInvalid means the URL does not look like a reddit comment page.
	OutcomeInvalid OutcomeKind = iota

	// OutcomeWrongSub means the post's subreddit is not on the allow-list.
	OutcomeWrongSub

	// OutcomeTooMany means the requester has used up its daily check quota.
	OutcomeTooMany

	// OutcomeRequestFailed means the page could not be fetched.
	OutcomeRequestFailed

	// OutcomeNoPost means the page did not contain a recognizable post.
	OutcomeNoPost

	// OutcomeAlreadyApproved means a moderator has already approved the post.
	OutcomeAlreadyApproved

	// OutcomeFlagged means the spam filter removed the post and the
	// submitter is eligible for approval.
	OutcomeFlagged

	// OutcomeFlaggedLocked means the spam filter removed the post but the
	// submitter already used an approval within the last day.
	OutcomeFlaggedLocked

	// OutcomeRemovedByModerator means a moderator manually removed the post.
	OutcomeRemovedByModerator

	// OutcomeInfo means the post is live; vote counts are attached.
	OutcomeInfo
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeWrongSub:
		return "wrong_subreddit"
	case OutcomeTooMany:
		return "too_many"
	case OutcomeRequestFailed:
		return "request_failed"
	case OutcomeNoPost:
		return "no_post"
	case OutcomeAlreadyApproved:
		return "already_approved"
	case OutcomeFlagged:
		return "flagged"
	case OutcomeFlaggedLocked:
		return "flagged_locked"
	case OutcomeRemovedByModerator:
		return "removed_by_moderator"
	case OutcomeInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Outcome is the result of classifying a post URL. Kind selects which of the
// remaining fields carry meaning.
type Outcome struct {
	Kind OutcomeKind

	// Subreddit extracted from the URL (WrongSub, RemovedByModerator).
	Subreddit string

	// Subreddits is the current allow-list, attached to WrongSub so the
	// caller can present valid choices.
	Subreddits []string

	// PostID of the flagged post (Flagged).
	PostID string

	// ApprovedBy is the moderator named in the approval marker
	// (AlreadyApproved).
	ApprovedBy string

	// Upvotes and Downvotes as shown on the page (Info).
	Upvotes   string
	Downvotes string

	// Err is the underlying failure for RequestFailed.
	Err error
}

// ApprovalErrKind discriminates the ways an approval can fail.
type ApprovalErrKind int

const (
	// ErrUnknownPost means no pending check exists for the post id, either
	// because it was never flagged or the cache did not survive a restart.
	ErrUnknownPost ApprovalErrKind = iota

	// ErrSubmitterLocked means the submitter already used an approval
	// within the last day.
	ErrSubmitterLocked

	// ErrRequestFailed means the approval call to reddit failed.
	ErrRequestFailed
)

// ApprovalError is the error type returned by Approve.
type ApprovalError struct {
	Kind ApprovalErrKind
	err  error
}

func (e *ApprovalError) Error() string {
	switch e.Kind {
	case ErrUnknownPost:
		return "moderation: no pending check for post"
	case ErrSubmitterLocked:
		return "moderation: submitter is locked out"
	default:
		return fmt.Sprintf("moderation: approval request failed: %v", e.err)
	}
}

func (e *ApprovalError) Unwrap() error { return e.err }

// Approval is the successful result of an approval action.
type Approval struct {
	PostID    string
	Subreddit string
	User      string
}
