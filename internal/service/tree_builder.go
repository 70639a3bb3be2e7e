package service

import (
	"fmt"
	"sort"
	"time"

	"colloquy/internal/models"
)

// DeletedMessage replaces the body of a soft-deleted comment that is
// kept in the tree because it still has surviving replies.
const DeletedMessage = "[deleted]"

// CommentTree is the display-ready form of one comment and its included
// replies. It is ephemeral and JSON-serializable for whatever surface
// renders it.
type CommentTree struct {
	ID            uint          `json:"id"`
	Anchor        string        `json:"anchor"`
	FullName      string        `json:"full_name,omitempty"`
	Date          time.Time     `json:"date"`
	Message       string        `json:"message"`
	MessageHTML   string        `json:"message_html,omitempty"`
	Liked         bool          `json:"liked"`
	Likes         int64         `json:"likes"`
	OwnedByViewer bool          `json:"owned_by_viewer"`
	Edited        bool          `json:"edited"`
	IsDeleted     bool          `json:"is_deleted"`
	IsArchived    bool          `json:"is_archived"`
	IsTopLevel    bool          `json:"is_top_level"`
	Replies       []CommentTree `json:"replies"`

	// Action handles. Empty means the action is unavailable to the
	// viewer; the presentation layer hides the control.
	LikeURL           string `json:"like_url,omitempty"`
	EditURL           string `json:"edit_url,omitempty"`
	DeleteURL         string `json:"delete_url,omitempty"`
	DeleteTreeURL     string `json:"delete_tree_url,omitempty"`
	HardDeleteTreeURL string `json:"hard_delete_tree_url,omitempty"`
	ArchiveTreeURL    string `json:"archive_tree_url,omitempty"`
}

// Comments is the full thread view for one target.
type Comments struct {
	// CommentURL is the endpoint for creating a new top-level comment
	// on the target.
	CommentURL string `json:"comment_url"`
	// NumberOfComments counts the input set, before pruning.
	NumberOfComments int           `json:"number_of_comments"`
	CommentTrees     []CommentTree `json:"comment_trees"`
}

// Viewer identifies who the tree is being built for. A nil UserID is an
// anonymous visitor.
type Viewer struct {
	UserID      *uint
	IsModerator bool
}

// TreeInput carries the precomputed per-comment like state so the
// builder itself stays a pure transform with no data-store access.
type TreeInput struct {
	Comments []models.Comment
	Viewer   Viewer
	// Liked holds the ids of comments the viewer has liked.
	Liked map[uint]bool
	// LikeCounts holds per-comment like row counts.
	LikeCounts map[uint]int64
	// CommentURL is passed through to the output.
	CommentURL string
}

// BuildCommentTree turns the flat comment set of one target into the
// nested, pruned, display-ready thread view.
//
// A soft-deleted comment is dropped entirely when none of its
// descendants survive; with at least one surviving descendant it is
// kept as a placeholder with its message and author suppressed.
// Inclusion is decided bottom-up so pruning works at any depth.
func BuildCommentTree(in TreeInput) Comments {
	byParent := make(map[uint][]*models.Comment)
	var topLevel []*models.Comment
	for i := range in.Comments {
		c := &in.Comments[i]
		if c.ReplyToID == nil {
			topLevel = append(topLevel, c)
		} else {
			byParent[*c.ReplyToID] = append(byParent[*c.ReplyToID], c)
		}
	}

	included := make(map[uint]bool, len(in.Comments))
	var decide func(c *models.Comment) bool
	decide = func(c *models.Comment) bool {
		anySurvivor := false
		for _, reply := range byParent[c.ID] {
			if decide(reply) {
				anySurvivor = true
			}
		}
		keep := !c.IsDeleted() || anySurvivor
		included[c.ID] = keep
		return keep
	}
	for _, c := range topLevel {
		decide(c)
	}

	var build func(c *models.Comment) CommentTree
	build = func(c *models.Comment) CommentTree {
		replies := make([]CommentTree, 0)
		children := append([]*models.Comment(nil), byParent[c.ID]...)
		sortNewestFirst(children)
		for _, reply := range children {
			if included[reply.ID] {
				replies = append(replies, build(reply))
			}
		}

		node := CommentTree{
			ID:         c.ID,
			Anchor:     c.Anchor(),
			Date:       c.CreatedAt,
			IsDeleted:  c.IsDeleted(),
			IsArchived: c.IsArchived,
			IsTopLevel: c.ReplyToID == nil,
			Replies:    replies,
		}

		if c.IsDeleted() {
			// Keep the skeleton, hide the content and every action.
			node.Message = DeletedMessage
			return node
		}

		owned := c.OwnedBy(in.Viewer.UserID)
		node.FullName = c.AuthorName()
		node.Message = c.Message
		node.MessageHTML = c.MessageHTML
		node.Liked = in.Liked[c.ID]
		node.Likes = in.LikeCounts[c.ID]
		node.OwnedByViewer = owned
		node.Edited = c.Edited()
		node.LikeURL = commentActionURL(c.ID, "like")

		if owned || in.Viewer.IsModerator {
			node.EditURL = commentActionURL(c.ID, "edit")
			// Single-node deletion is only offered for nodes with no
			// surviving replies; anything else requires the moderator
			// tree controls below.
			if len(replies) == 0 {
				node.DeleteURL = commentActionURL(c.ID, "delete")
			}
		}
		if in.Viewer.IsModerator {
			node.DeleteTreeURL = commentActionURL(c.ID, "delete-tree")
			node.HardDeleteTreeURL = commentActionURL(c.ID, "hard-delete-tree")
			node.ArchiveTreeURL = commentActionURL(c.ID, "archive-tree")
		}
		return node
	}

	sortNewestFirst(topLevel)
	trees := make([]CommentTree, 0, len(topLevel))
	for _, c := range topLevel {
		if included[c.ID] {
			trees = append(trees, build(c))
		}
	}

	return Comments{
		CommentURL:       in.CommentURL,
		NumberOfComments: len(in.Comments),
		CommentTrees:     trees,
	}
}

// sortNewestFirst orders siblings newest first at every level, id as
// the tie-breaker for identical timestamps.
func sortNewestFirst(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID > comments[j].ID
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}

func commentActionURL(id uint, action string) string {
	return fmt.Sprintf("/api/comments/%d/%s", id, action)
}
