package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

type homePage struct {
	Posts    []model.Post
	Services []model.Service
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

func (s *Site) Home(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.NotFound(w, r)
			return
		}
		page = n
	}

	ctx := r.Context()
	posts, total, err := s.content.ListPublished(ctx, page, postsPerPage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if page > 1 && len(posts) == 0 {
		http.NotFound(w, r)
		return
	}
	services, err := s.catalog.ListDisplayed(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "home.html", homePage{
		Posts:    posts,
		Services: services,
		HasPrev:  page > 1,
		HasNext:  page*postsPerPage < total,
		PrevPage: page - 1,
		NextPage: page + 1,
	})
}

type postPage struct {
	Post      model.Post
	Comments  []model.Comment
	Liked     bool
	Commented bool
}

// Post shows a published post with its approved comments. A POST stores a comment from the
// signed-in visitor; it stays hidden until an operator approves it.
func (s *Site) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := s.content.GetPublished(ctx, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err)
		return
	}

	id := IdentityFrom(ctx)
	commented := false
	if r.Method == http.MethodPost {
		if _, ok := s.requireLogin(w, r); !ok {
			return
		}
		body := strings.TrimSpace(r.FormValue("body"))
		if body != "" {
			commentID, err := s.content.AddComment(ctx, model.Comment{
				PostID: post.ID,
				Name:   id.Username,
				Email:  id.Email,
				Body:   body,
			})
			if err != nil {
				s.fail(w, r, err)
				return
			}
			s.logger.InfoContext(ctx, "comment awaiting approval", "comment_id", commentID, "post_id", post.ID)
		}
		commented = true
	}

	comments, err := s.content.ApprovedComments(ctx, post.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	liked := false
	if id.Authenticated() {
		if liked, err = s.content.HasLiked(ctx, post.ID, id.UserID); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	s.render(w, r, http.StatusOK, "post.html", postPage{
		Post:      post,
		Comments:  comments,
		Liked:     liked,
		Commented: commented,
	})
}

// Like toggles the visitor's like on a post and returns to it.
func (s *Site) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireLogin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	post, err := s.content.GetPublished(ctx, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, err)
		return
	}
	if _, err := s.content.ToggleLike(ctx, post.ID, id.UserID); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/"+post.Slug+"/", http.StatusSeeOther)
}
