package conversation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tangent-backend/internal/models"
)

// titlePreviewLimit bounds the title derived from the first user message.
const titlePreviewLimit = 50

// AddOptions controls where AddMessage attaches the new node. Both fields
// are optional: BranchID defaults to the active branch, ParentID to that
// branch's current tip.
type AddOptions struct {
	ParentID string
	BranchID string
}

// AddMessage appends a message to the chat, advances the target branch's tip
// to it and bumps the chat's UpdatedAt. While the chat still carries the
// placeholder title, the first user message also becomes the chat title.
func AddMessage(chat *models.Chat, role models.Role, content string, meta *models.MessageMetadata, opts AddOptions) (*models.Message, error) {
	branch, err := resolveBranch(chat, opts.BranchID)
	if err != nil {
		return nil, err
	}

	parentID := opts.ParentID
	if parentID != "" {
		if _, ok := chat.Messages[parentID]; !ok {
			return nil, fmt.Errorf("parent %s: %w", parentID, ErrMessageNotFound)
		}
		// The tip becomes a descendant of the parent, so the branch's fork
		// point must sit on the parent's ancestor chain or the fork point
		// would drop off the tip ancestry.
		if branch.ForkPointMessageID != "" && !pathContains(chat, parentID, branch.ForkPointMessageID) {
			return nil, fmt.Errorf("parent %s precedes fork point %s: %w",
				parentID, branch.ForkPointMessageID, ErrParentOutsideBranch)
		}
	} else {
		parentID = branch.TipMessageID
	}

	msg := &models.Message{
		ID:        NewMessageID(),
		ParentID:  parentID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	}

	chat.Messages[msg.ID] = msg
	branch.TipMessageID = msg.ID
	chat.UpdatedAt = msg.Timestamp

	if role == models.RoleUser && chat.Title == models.DefaultChatTitle {
		chat.Title = deriveTitle(content)
	}

	return msg, nil
}

// MessagePath walks parent links from messageID up to a root and returns the
// ordered root->target list. A parent id that does not resolve truncates the
// path silently rather than failing; a cycle terminates the walk at the
// first repeated id.
func MessagePath(chat *models.Chat, messageID string) []*models.Message {
	var reversed []*models.Message
	seen := make(map[string]bool)

	for cur := messageID; cur != ""; {
		msg, ok := chat.Messages[cur]
		if !ok || seen[cur] {
			break
		}
		seen[cur] = true
		reversed = append(reversed, msg)
		cur = msg.ParentID
	}

	path := make([]*models.Message, len(reversed))
	for i, msg := range reversed {
		path[len(reversed)-1-i] = msg
	}
	return path
}

// Children returns the direct children of messageID in deterministic
// (timestamp, then id) order. A linear scan over the message map is
// deliberate: adequate at single-conversation scale.
func Children(chat *models.Chat, messageID string) []*models.Message {
	var children []*models.Message
	for _, msg := range chat.Messages {
		if msg.ParentID == messageID {
			children = append(children, msg)
		}
	}
	sortMessages(children)
	return children
}

// Descendants returns every message below messageID, depth-first in the same
// deterministic order as Children.
func Descendants(chat *models.Chat, messageID string) []*models.Message {
	var out []*models.Message
	for _, child := range Children(chat, messageID) {
		out = append(out, child)
		out = append(out, Descendants(chat, child.ID)...)
	}
	return out
}

// LeafNodes returns the ids of messages never referenced as a parent,
// sorted for stable output.
func LeafNodes(chat *models.Chat) []string {
	hasChild := make(map[string]bool)
	for _, msg := range chat.Messages {
		if msg.ParentID != "" {
			hasChild[msg.ParentID] = true
		}
	}

	var leaves []string
	for id := range chat.Messages {
		if !hasChild[id] {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// deriveTitle turns the first user message into a chat title, bounded to
// titlePreviewLimit runes.
func deriveTitle(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return models.DefaultChatTitle
	}
	return truncate(title, titlePreviewLimit)
}

// truncate bounds s to limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// sortMessages orders messages by timestamp, falling back to id so equal
// timestamps still produce a stable order.
func sortMessages(msgs []*models.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
