package conversation

import (
	"tangent-backend/internal/models"
)

// contentPreviewLimit bounds the per-node content preview in tree views.
const contentPreviewLimit = 50

// TreeStructure builds the nested view of the whole message forest for
// visualization: every root message with its children attached depth-first,
// in deterministic (timestamp, then id) order. It is independent of branch
// pointers and therefore also shows messages no branch can reach.
func TreeStructure(chat *models.Chat) []*models.TreeNode {
	return buildSubtree(chat, "")
}

// Subtree builds the nested view rooted at messageID.
func Subtree(chat *models.Chat, messageID string) (*models.TreeNode, error) {
	msg, ok := chat.Messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return buildNode(chat, msg), nil
}

// BranchMessages returns the ordered root->tip transcript for a branch,
// including all ancestors shared with other branches. A branch whose tip is
// unset has an empty transcript.
func BranchMessages(chat *models.Chat, branchID string) ([]*models.Message, error) {
	branch, err := resolveBranch(chat, branchID)
	if err != nil {
		return nil, err
	}
	if branch.TipMessageID == "" {
		return []*models.Message{}, nil
	}
	return MessagePath(chat, branch.TipMessageID), nil
}

func buildSubtree(chat *models.Chat, parentID string) []*models.TreeNode {
	children := Children(chat, parentID)
	nodes := make([]*models.TreeNode, 0, len(children))
	for _, msg := range children {
		nodes = append(nodes, buildNode(chat, msg))
	}
	return nodes
}

func buildNode(chat *models.Chat, msg *models.Message) *models.TreeNode {
	return &models.TreeNode{
		ID:        msg.ID,
		ParentID:  msg.ParentID,
		Role:      msg.Role,
		Preview:   truncate(msg.Content, contentPreviewLimit),
		Timestamp: msg.Timestamp,
		Children:  buildSubtree(chat, msg.ID),
	}
}
