package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
)

type Content struct {
	mu       sync.Mutex
	posts    []model.Post
	comments []model.Comment
	likes    map[int64]map[int64]struct{}
}

func NewContent() *Content {
	return &Content{likes: map[int64]map[int64]struct{}{}}
}

func (c *Content) AddPost(p model.Post) model.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.ID = int64(len(c.posts) + 1)
	if p.CreatedOn.IsZero() {
		p.CreatedOn = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(p.ID) * time.Hour)
	}
	c.posts = append(c.posts, p)
	return p
}

func (c *Content) ListPublished(_ context.Context, page, perPage int) ([]model.Post, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var published []model.Post
	for _, p := range c.posts {
		if p.Status == model.PostPublished {
			p.Likes = len(c.likes[p.ID])
			published = append(published, p)
		}
	}
	sort.Slice(published, func(i, j int) bool { return published[i].CreatedOn.After(published[j].CreatedOn) })
	total := len(published)
	start, ok := storage.PageOffset(page, perPage, total)
	if !ok || start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return published[start:end], total, nil
}

func (c *Content) GetPublished(_ context.Context, slug string) (model.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.posts {
		if p.Slug == slug && p.Status == model.PostPublished {
			p.Likes = len(c.likes[p.ID])
			return p, nil
		}
	}
	return model.Post{}, fmt.Errorf("post %q: %w", slug, model.ErrNoRecord)
}

func (c *Content) ApprovedComments(_ context.Context, postID int64) ([]model.Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Comment
	for _, cm := range c.comments {
		if cm.PostID == postID && cm.Approved {
			out = append(out, cm)
		}
	}
	return out, nil
}

func (c *Content) AddComment(_ context.Context, cm model.Comment) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cm.ID = int64(len(c.comments) + 1)
	c.comments = append(c.comments, cm)
	return cm.ID, nil
}

func (c *Content) ApproveComment(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.comments {
		if c.comments[i].ID == id {
			c.comments[i].Approved = true
			return nil
		}
	}
	return fmt.Errorf("comment %d: %w", id, model.ErrNoRecord)
}

// Comments returns every stored comment, approved or not.
func (c *Content) Comments() []model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Comment(nil), c.comments...)
}

func (c *Content) HasLiked(_ context.Context, postID, userID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.likes[postID][userID]
	return ok, nil
}

func (c *Content) ToggleLike(_ context.Context, postID, userID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.likes[postID] == nil {
		c.likes[postID] = map[int64]struct{}{}
	}
	if _, ok := c.likes[postID][userID]; ok {
		delete(c.likes[postID], userID)
		return false, nil
	}
	c.likes[postID][userID] = struct{}{}
	return true, nil
}

type Users struct {
	mu    sync.Mutex
	users []model.User
}

func (u *Users) Add(user model.User) model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	user.ID = int64(len(u.users) + 1)
	u.users = append(u.users, user)
	return user
}

func (u *Users) GetByUsername(_ context.Context, username string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("user %q: %w", username, model.ErrNoRecord)
}

func (u *Users) GetByID(_ context.Context, id int64) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.ID == id {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNoRecord)
}

func (u *Users) UpdateProfile(_ context.Context, id int64, firstName, lastName, phone string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.users {
		if u.users[i].ID == id {
			u.users[i].FirstName = firstName
			u.users[i].LastName = lastName
			u.users[i].PhoneNumber = phone
			return nil
		}
	}
	return fmt.Errorf("user %d: %w", id, model.ErrNoRecord)
}
