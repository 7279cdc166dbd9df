package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/spf13/cobra"
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Moderate blog comments",
}

var commentsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List comments awaiting approval",
	Args:  cobra.NoArgs,
	RunE:  runCommentsPending,
}

var commentsApproveCmd = &cobra.Command{
	Use:   "approve [comment-id]",
	Short: "Approve a comment so it shows under its post",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsApprove,
}

func init() {
	commentsCmd.AddCommand(commentsPendingCmd)
	commentsCmd.AddCommand(commentsApproveCmd)
	rootCmd.AddCommand(commentsCmd)
}

func runCommentsPending(cmd *cobra.Command, _ []string) error {
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		comments, err := storage.NewContentRepository(pool).PendingComments(ctx)
		if err != nil {
			return fmt.Errorf("list pending comments: %w", err)
		}
		if len(comments) == 0 {
			cmd.Println("No comments awaiting approval.")
			return nil
		}
		for _, c := range comments {
			cmd.Printf("  %d  post %d  %s <%s>  %s\n", c.ID, c.PostID, c.Name, c.Email, c.CreatedOn.Format("2006-01-02 15:04"))
			cmd.Printf("      %s\n", c.Body)
		}
		cmd.Printf("\nTotal: %d pending\n", len(comments))
		return nil
	})
}

func runCommentsApprove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid comment id %q", args[0])
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		if err := storage.NewContentRepository(pool).ApproveComment(ctx, id); err != nil {
			if storage.IsNotFound(err) {
				return fmt.Errorf("comment %d not found", id)
			}
			return fmt.Errorf("approve comment: %w", err)
		}
		cmd.Printf("Approved comment %d\n", id)
		return nil
	})
}
