// Package handlers implements the thin HTTP front-end over the moderation
// core: a single page that accepts a post URL, shows the classification
// outcome, and offers the approval action.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/reddit-tools/modbot/internal/middleware"
	"github.com/reddit-tools/modbot/internal/moderation"
	"github.com/reddit-tools/modbot/internal/store"
	"github.com/rs/zerolog/log"
)

// Moderator is the core workflow surface the front-end renders.
type Moderator interface {
	Classify(ctx context.Context, rawURL, requesterID string, now time.Time) moderation.Outcome
	Approve(ctx context.Context, postID string, now time.Time) (*moderation.Approval, error)
}

// Handler contains the HTTP handler methods and their dependencies.
type Handler struct {
	svc   Moderator
	store *store.Store
	tmpl  *template.Template
}

// NewHandler creates a handler rendering the page template at templatePath.
func NewHandler(svc Moderator, st *store.Store, templatePath string) (*Handler, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page template: %w", err)
	}

	tmpl, err := template.New("page").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Handler{svc: svc, store: st, tmpl: tmpl}, nil
}

// page carries everything the template can render. Exactly one of the
// outcome flags is set per response.
type page struct {
	URL     string
	Referer string

	NoURL    bool
	ShowSub  bool
	Reddits  []string
	TooMany  bool
	Invalid  bool
	WrongSub bool
	Reddit   string
	NoPost   bool
	Approved bool
	User     string
	Flagged  bool
	ID       string
	Used     bool
	Removed  bool
	About    bool
	Up       string
	Down     string
	Error    bool
}

// HandleIndex serves the whole front-end: a check when ?url= is present, an
// approval when ?id= is present, the welcome form otherwise.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	now := time.Now()

	switch {
	case query.Get("url") != "":
		rawURL := query.Get("url")
		requester := middleware.GetClientIP(r)
		out := h.svc.Classify(r.Context(), rawURL, requester, now)

		p := outcomePage(out)
		p.URL = rawURL
		h.render(w, p)

	case query.Get("id") != "":
		_, err := h.svc.Approve(r.Context(), query.Get("id"), now)
		h.render(w, approvalPage(err))

	default:
		p := page{
			NoURL:   true,
			ShowSub: true,
			Reddits: h.store.Subreddits(),
		}
		// Pre-fill the form when the visitor came from a reddit post
		if ref := r.Referer(); moderation.IsPostURL(ref) {
			p.Referer = ref
		}
		h.render(w, p)
	}
}

// HandleHealthz reports liveness.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (h *Handler) render(w http.ResponseWriter, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, p); err != nil {
		log.Error().Err(err).Msg("failed to render page")
	}
}

// outcomePage maps a classification outcome onto template fields.
func outcomePage(out moderation.Outcome) page {
	switch out.Kind {
	case moderation.OutcomeInvalid:
		return page{Invalid: true}
	case moderation.OutcomeWrongSub:
		return page{WrongSub: true, Reddit: out.Subreddit, Reddits: out.Subreddits, ShowSub: true}
	case moderation.OutcomeTooMany:
		return page{TooMany: true}
	case moderation.OutcomeRequestFailed:
		return page{Error: true}
	case moderation.OutcomeNoPost:
		return page{NoPost: true}
	case moderation.OutcomeAlreadyApproved:
		return page{Approved: true, User: out.ApprovedBy}
	case moderation.OutcomeFlagged:
		return page{Flagged: true, ID: out.PostID}
	case moderation.OutcomeFlaggedLocked:
		return page{Flagged: true, Used: true}
	case moderation.OutcomeRemovedByModerator:
		return page{Removed: true, Reddit: out.Subreddit}
	default:
		return page{About: true, Up: out.Upvotes, Down: out.Downvotes}
	}
}

// approvalPage maps an approval result onto template fields.
func approvalPage(err error) page {
	if err == nil {
		return page{Approved: true}
	}

	var apErr *moderation.ApprovalError
	if errors.As(err, &apErr) && apErr.Kind == moderation.ErrSubmitterLocked {
		return page{Used: true}
	}
	return page{Error: true}
}
