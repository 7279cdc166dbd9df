package main

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/spf13/cobra"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage blog posts",
}

var postsCreateCmd = &cobra.Command{
	Use:   "create [slug]",
	Short: "Create a blog post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsCreate,
}

var postFlags struct {
	title   string
	author  string
	content string
	excerpt string
	image   string
	publish bool
}

func init() {
	f := postsCreateCmd.Flags()
	f.StringVar(&postFlags.title, "title", "", "Post title (required)")
	f.StringVar(&postFlags.author, "author", "", "Username of the author (required)")
	f.StringVar(&postFlags.content, "content", "", "Post body")
	f.StringVar(&postFlags.excerpt, "excerpt", "", "Short summary for the home page")
	f.StringVar(&postFlags.image, "image", "", "Featured image URL")
	f.BoolVar(&postFlags.publish, "publish", false, "Publish right away instead of saving a draft")

	postsCmd.AddCommand(postsCreateCmd)
	rootCmd.AddCommand(postsCmd)
}

func newPost(slug string) (model.Post, error) {
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return model.Post{}, fmt.Errorf("invalid slug %q: use lowercase letters, digits and single hyphens", slug)
	}
	title := strings.TrimSpace(postFlags.title)
	if title == "" {
		return model.Post{}, errors.New("--title is required")
	}
	if strings.TrimSpace(postFlags.author) == "" {
		return model.Post{}, errors.New("--author is required")
	}
	status := model.PostDraft
	if postFlags.publish {
		status = model.PostPublished
	}
	return model.Post{
		Title:         title,
		Slug:          slug,
		Content:       postFlags.content,
		Excerpt:       postFlags.excerpt,
		FeaturedImage: postFlags.image,
		Status:        status,
	}, nil
}

func runPostsCreate(cmd *cobra.Command, args []string) error {
	post, err := newPost(args[0])
	if err != nil {
		return err
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		author, err := storage.NewUserRepository(pool).GetByUsername(ctx, strings.TrimSpace(postFlags.author))
		if err != nil {
			if storage.IsNotFound(err) {
				return fmt.Errorf("author %q not found", postFlags.author)
			}
			return fmt.Errorf("load author: %w", err)
		}
		post.AuthorID = author.ID
		created, err := storage.NewContentRepository(pool).CreatePost(ctx, post)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return fmt.Errorf("a post with slug or title %q already exists", post.Slug)
			}
			return fmt.Errorf("create post: %w", err)
		}
		state := "draft"
		if created.Status == model.PostPublished {
			state = "published"
		}
		cmd.Printf("Created post /%s/ (id %d, %s)\n", created.Slug, created.ID, state)
		return nil
	})
}
