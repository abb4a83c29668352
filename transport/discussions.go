package transport

import (
	"net/http"

	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/identity"
	"github.com/go-chi/chi/v5"
)

type createDiscussionRequest struct {
	CommunityID string   `json:"community_id"`
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	MemberIDs   []string `json:"member_ids"`
}

// CreateDiscussion creates a public discussion, or — when member_ids is
// non-empty — the idempotent private discussion keyed on the sorted
// member set (spec.md §4.3, §8 Property 5).
func (a *App) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	var req createDiscussionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}

	if len(req.MemberIDs) > 0 {
		d, err := a.Discussions.CreatePrivate(r.Context(), req.CommunityID, userID, req.MemberIDs)
		if err != nil {
			a.handleErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
		return
	}

	d, err := a.Discussions.CreatePublic(r.Context(), req.CommunityID, userID, req.Title, req.ImageURL)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (a *App) GetDiscussion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := a.Discussions.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type updateDiscussionRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func (a *App) UpdateDiscussion(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req updateDiscussionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	d, err := a.Discussions.Update(r.Context(), userID, id, req.Title, req.ImageURL)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *App) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	if err := a.Discussions.Delete(r.Context(), userID, id); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// AddChatUsers admits members to a private discussion (spec.md §4.3
// "add_chat_users").
func (a *App) AddChatUsers(w http.ResponseWriter, r *http.Request) {
	actorID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req chatUsersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	if err := a.Discussions.AddChatUsers(r.Context(), actorID, id, req.UserIDs); err != nil {
		a.handleErr(w, err)
		return
	}
	a.Notify.OnDiscussionUsersChanged(r.Context(), id, req.UserIDs)
	w.WriteHeader(http.StatusNoContent)
}

// RemoveChatUsers evicts members (spec.md §4.3 "remove_chat_users").
func (a *App) RemoveChatUsers(w http.ResponseWriter, r *http.Request) {
	actorID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req chatUsersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	if err := a.Discussions.RemoveChatUsers(r.Context(), actorID, id, req.UserIDs); err != nil {
		a.handleErr(w, err)
		return
	}
	a.Notify.OnDiscussionUsersChanged(r.Context(), id, req.UserIDs)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Posts ──────────────────────────────────────────────────

type createPostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	MediaLinks []string `json:"media_links"`
	Tags       []string `json:"tags"`
	IsIdea     bool     `json:"is_idea"`
	MemberIDs  []string `json:"member_ids"`
	ReplyToID  *string  `json:"reply_to_id"`
}

// CreatePost resolves the post type from the request exactly as spec.md
// §4.3 "Post type resolution" describes: is_idea wins outright, otherwise
// a non-empty member list makes it Private.
func (a *App) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	discussionID := chi.URLParam(r, "id")
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}

	postType := content.PostPublic
	switch {
	case req.IsIdea:
		postType = content.PostIdea
	case len(req.MemberIDs) > 0:
		postType = content.PostPrivate
	}

	p, err := a.Posts.Create(r.Context(), userID, discussionID, postType, req.Title, req.Content, req.MediaLinks, req.Tags, req.ReplyToID)
	if err != nil {
		a.handleErr(w, err)
		return
	}

	if postType == content.PostPrivate && len(req.MemberIDs) > 0 {
		if err := a.Checker.Grant(r.Context(), req.MemberIDs, identity.EntityPost, []string{p.ID}, identity.RoleMember); err != nil {
			a.handleErr(w, err)
			return
		}
	}

	d, err := a.Discussions.Get(r.Context(), discussionID)
	if err == nil && d.Type == content.DiscussionPrivate {
		edges, edgeErr := a.Checker.RolesOnEntity(r.Context(), discussionID)
		if edgeErr == nil {
			recipients := make([]string, 0, len(edges))
			for _, e := range edges {
				recipients = append(recipients, e.UserID)
			}
			a.Notify.OnNewPost(r.Context(), discussionID, p.ID, recipients)
		}
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := a.Posts.Get(r.Context(), id)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	MediaLinks []string `json:"media_links"`
}

func (a *App) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	p, err := a.Posts.Update(r.Context(), userID, id, req.Title, req.Content, req.MediaLinks)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := chi.URLParam(r, "id")
	if err := a.Posts.Delete(r.Context(), userID, id); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkPostRead updates the caller's unread ledger row for the post's
// discussion (spec.md §4.4 "User reads a post").
func (a *App) MarkPostRead(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	postID := chi.URLParam(r, "id")
	p, err := a.Posts.Get(r.Context(), postID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	if err := a.Unread.ReadPost(r.Context(), p.DiscussionID, userID, postID); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Replies ────────────────────────────────────────────────

type createReplyRequest struct {
	Content string `json:"content"`
}

func (a *App) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	postID := chi.URLParam(r, "id")
	var req createReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	rep, err := a.Replies.Create(r.Context(), userID, postID, req.Content)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (a *App) ListReplies(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	reps, err := a.Replies.ListForPost(r.Context(), postID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reps)
}

// ─── Likes ──────────────────────────────────────────────────

type likeRequest struct {
	Count int `json:"count"`
}

// Like applies spec.md §4.3 "Like with credits": count must be 1..10, and
// any count above 1 is charged against the caller's credit balance.
func (a *App) Like(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	postID := chi.URLParam(r, "id")
	var req likeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	if err := a.Likes.Like(r.Context(), userID, postID, req.Count); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
