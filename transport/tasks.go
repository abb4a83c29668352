package transport

import (
	"net/http"
	"strconv"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/task"
	"github.com/darve-social/darve-go/wallet"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Currency         string   `json:"currency"`
	RequestText      string   `json:"content"`
	Participants     []string `json:"participants"`
	OfferAmount      int64    `json:"offer_amount"`
	AcceptancePeriod int64    `json:"acceptance_period"`
	DeliveryPeriod   int64    `json:"delivery_period"`
}

func (req createTaskRequest) periods(cfg *App) (int64, int64) {
	acceptance := req.AcceptancePeriod
	if acceptance <= 0 {
		acceptance = int64(cfg.Cfg.DefaultAcceptancePeriod.Seconds())
	}
	delivery := req.DeliveryPeriod
	if delivery <= 0 {
		delivery = int64(cfg.Cfg.DefaultDeliveryPeriod.Seconds())
	}
	return acceptance, delivery
}

// CreateTaskOnDiscussion handles POST /api/discussions/{id}/tasks
// (spec.md §6).
func (a *App) CreateTaskOnDiscussion(w http.ResponseWriter, r *http.Request) {
	discussionID := chi.URLParam(r, "id")
	d, err := a.Discussions.Get(r.Context(), discussionID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	a.createTask(w, r, task.BelongsToDiscussion, discussionID, content.DiscussionLineage(d))
}

// CreateTaskOnPost handles POST /api/posts/{id}/tasks (spec.md §6).
func (a *App) CreateTaskOnPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	p, err := a.Posts.Get(r.Context(), postID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	d, err := a.Discussions.Get(r.Context(), p.DiscussionID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	a.createTask(w, r, task.BelongsToPost, postID, content.PostLineage(d, p))
}

func (a *App) createTask(w http.ResponseWriter, r *http.Request, kind task.BelongsToKind, belongsToID string, parentLineage []access.Node) {
	userID := UserID(r.Context())
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	currency := wallet.Currency(req.Currency)
	if currency == "" {
		currency = wallet.Currency("USD")
	}
	visibility := task.VisibilityPublic
	if len(req.Participants) > 0 {
		visibility = task.VisibilityPrivate
	}
	acceptance, delivery := req.periods(a)

	created, err := a.Tasks.Create(r.Context(), task.CreateParams{
		BelongsToKind:    kind,
		BelongsToID:      belongsToID,
		CreatorID:        userID,
		Visibility:       visibility,
		RewardType:       task.RewardOnDelivery,
		Currency:         currency,
		RequestText:      req.RequestText,
		AcceptancePeriod: acceptance,
		DeliveryPeriod:   delivery,
		DonationAmount:   req.OfferAmount,
		ParticipantIDs:   req.Participants,
		ParentLineage:    parentLineage,
	})
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *App) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := a.Tasks.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// taskParentLineage resolves the lineage a task's own Lineage() needs to
// extend, by looking up whichever parent (post or discussion) it belongs
// to (spec.md §4.1 example path).
func (a *App) taskParentLineage(r *http.Request, t *task.Request) ([]access.Node, error) {
	if t.BelongsToKind == task.BelongsToPost {
		p, err := a.Posts.Get(r.Context(), t.BelongsToID)
		if err != nil {
			return nil, err
		}
		d, err := a.Discussions.Get(r.Context(), p.DiscussionID)
		if err != nil {
			return nil, err
		}
		return content.PostLineage(d, p), nil
	}
	d, err := a.Discussions.Get(r.Context(), t.BelongsToID)
	if err != nil {
		return nil, err
	}
	return content.DiscussionLineage(d), nil
}

func (a *App) AcceptTask(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	t, err := a.Tasks.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	parent, err := a.taskParentLineage(r, t)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	if err := a.Tasks.Accept(r.Context(), userID, id, parent); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) RejectTask(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	t, err := a.Tasks.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	parent, err := a.taskParentLineage(r, t)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	if err := a.Tasks.Reject(r.Context(), userID, id, parent); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deliverTaskRequest struct {
	PostID     *string  `json:"post_id"`
	Link       *string  `json:"link"`
	PostTitle  string   `json:"post_title"`
	PostBody   string   `json:"post_body"`
	MediaLinks []string `json:"media_links"`
}

// DeliverTask handles POST /api/tasks/{id}/deliver (spec.md §6, §4.6.1
// "Deliver"). An externally-hosted deliverable is passed as `link`;
// otherwise the service creates a Public post in the caller's profile
// discussion.
func (a *App) DeliverTask(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req deliverTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	t, err := a.Tasks.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	parent, err := a.taskParentLineage(r, t)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	err = a.Tasks.Deliver(r.Context(), task.DeliverParams{
		UserID:        userID,
		TaskID:        id,
		PostTitle:     req.PostTitle,
		PostBody:      req.PostBody,
		MediaLinks:    req.MediaLinks,
		Link:          req.Link,
		ParentLineage: parent,
	})
	if err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type donorRequest struct {
	Amount int64 `json:"amount"`
}

// Donate handles POST /api/tasks/{id}/donor (spec.md §6).
func (a *App) Donate(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req donorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	t, err := a.Tasks.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	parent, err := a.taskParentLineage(r, t)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	if err := a.Tasks.Donate(r.Context(), userID, id, req.Amount, parent); err != nil {
		a.handleErr(w, err)
		return
	}
	a.Notify.OnUpdatedBalance(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// taskViewForParticipant is the shape spec.md §6 names
// "TaskViewForParticipant" for the /api/tasks/received listing.
type taskViewForParticipant struct {
	Task              *task.Request `json:"task"`
	ParticipantStatus string        `json:"participant_status"`
	IsEnded           bool          `json:"is_ended"`
}

// ListReceived handles GET /api/tasks/received?status=&is_ended=
// (spec.md §6).
func (a *App) ListReceived(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	parts, err := a.TaskParticipants.ListForUser(r.Context(), userID)
	if err != nil {
		a.handleErr(w, err)
		return
	}

	statusFilter := r.URL.Query().Get("status")
	var isEndedFilter *bool
	if v := r.URL.Query().Get("is_ended"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			isEndedFilter = &parsed
		}
	}

	views := make([]taskViewForParticipant, 0, len(parts))
	for _, p := range parts {
		if statusFilter != "" && string(p.Status) != statusFilter {
			continue
		}
		t, err := a.TaskRequests.Get(r.Context(), p.TaskID)
		if err != nil {
			if aerr, ok := apperr.As(err); ok && aerr.Kind == apperr.NotFound {
				continue
			}
			a.handleErr(w, err)
			return
		}
		ended := t.Status == task.StatusCompleted
		if isEndedFilter != nil && ended != *isEndedFilter {
			continue
		}
		views = append(views, taskViewForParticipant{Task: t, ParticipantStatus: string(p.Status), IsEnded: ended})
	}
	writeJSON(w, http.StatusOK, views)
}

// ListGiven handles GET /api/tasks/given (spec.md §6).
func (a *App) ListGiven(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	rows, err := a.TaskRequests.ListByCreator(r.Context(), userID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
