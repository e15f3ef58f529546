package conversation

import (
	"fmt"
	"time"

	"tangent-backend/internal/models"
)

// CreateBranchOptions controls where and how a new branch forks.
type CreateBranchOptions struct {
	// ForkPointMessageID is the message the branch diverges from. Empty
	// means the branch starts with no history and new messages on it
	// become roots.
	ForkPointMessageID string
	// Name defaults to "Branch N" when empty.
	Name string
}

// NewMainBranch returns the reserved main branch a chat is created with.
func NewMainBranch(createdAt time.Time) *models.Branch {
	return &models.Branch{
		ID:        models.MainBranchID,
		Name:      models.MainBranchName,
		CreatedAt: createdAt,
		IsActive:  true,
	}
}

// CreateBranch appends a new branch whose tip starts at the fork point
// itself, so it initially shares the fork point's full history and diverges
// only as messages are added to it. The new branch is not activated.
func CreateBranch(chat *models.Chat, opts CreateBranchOptions) (*models.Branch, error) {
	if opts.ForkPointMessageID != "" {
		if _, ok := chat.Messages[opts.ForkPointMessageID]; !ok {
			return nil, fmt.Errorf("fork point %s: %w", opts.ForkPointMessageID, ErrMessageNotFound)
		}
	}

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("Branch %d", len(chat.Branches)+1)
	}

	branch := &models.Branch{
		ID:                 NewBranchID(),
		Name:               name,
		CreatedAt:          time.Now().UTC(),
		ForkPointMessageID: opts.ForkPointMessageID,
		TipMessageID:       opts.ForkPointMessageID,
	}
	chat.Branches = append(chat.Branches, branch)
	chat.UpdatedAt = branch.CreatedAt
	return branch, nil
}

// SetActiveBranch makes branchID the single active branch.
func SetActiveBranch(chat *models.Chat, branchID string) error {
	if _, err := FindBranch(chat, branchID); err != nil {
		return err
	}
	for _, b := range chat.Branches {
		b.IsActive = b.ID == branchID
	}
	chat.ActiveBranchID = branchID
	chat.UpdatedAt = time.Now().UTC()
	return nil
}

// RenameBranch updates the branch name; no other branch field is mutable.
func RenameBranch(chat *models.Chat, branchID, name string) error {
	branch, err := FindBranch(chat, branchID)
	if err != nil {
		return err
	}
	branch.Name = name
	chat.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteBranch removes the branch pointer. With deleteMessages set, it also
// removes the messages on the branch's path strictly after its fork point
// that are not on any other branch's root->tip path; without it those
// messages stay in the map, unreachable from any tip. Deleting the main
// branch is rejected, and deleting the active branch activates main.
func DeleteBranch(chat *models.Chat, branchID string, deleteMessages bool) error {
	if branchID == models.MainBranchID {
		return ErrMainBranchProtected
	}

	idx := -1
	for i, b := range chat.Branches {
		if b.ID == branchID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("branch %s: %w", branchID, ErrBranchNotFound)
	}
	branch := chat.Branches[idx]

	if deleteMessages {
		for _, id := range exclusiveMessages(chat, branch) {
			delete(chat.Messages, id)
		}
	}

	wasActive := branch.IsActive
	chat.Branches = append(chat.Branches[:idx], chat.Branches[idx+1:]...)
	chat.UpdatedAt = time.Now().UTC()

	if wasActive {
		return SetActiveBranch(chat, models.MainBranchID)
	}
	return nil
}

// ListBranches returns the branches in insertion order, each annotated with
// the length of its root->tip path.
func ListBranches(chat *models.Chat) []models.BranchInfo {
	infos := make([]models.BranchInfo, 0, len(chat.Branches))
	for _, b := range chat.Branches {
		infos = append(infos, models.BranchInfo{
			Branch:       *b,
			MessageCount: len(MessagePath(chat, b.TipMessageID)),
		})
	}
	return infos
}

// ActiveBranch resolves the chat's active branch.
func ActiveBranch(chat *models.Chat) (*models.Branch, error) {
	return FindBranch(chat, chat.ActiveBranchID)
}

// FindBranch resolves a branch by id.
func FindBranch(chat *models.Chat, branchID string) (*models.Branch, error) {
	for _, b := range chat.Branches {
		if b.ID == branchID {
			return b, nil
		}
	}
	return nil, fmt.Errorf("branch %s: %w", branchID, ErrBranchNotFound)
}

// resolveBranch returns the branch with branchID, or the active branch when
// branchID is empty.
func resolveBranch(chat *models.Chat, branchID string) (*models.Branch, error) {
	if branchID == "" {
		return ActiveBranch(chat)
	}
	return FindBranch(chat, branchID)
}

// exclusiveMessages returns the ids on branch's path strictly after its fork
// point that no other branch's root->tip path contains.
func exclusiveMessages(chat *models.Chat, branch *models.Branch) []string {
	path := MessagePath(chat, branch.TipMessageID)

	start := 0
	if branch.ForkPointMessageID != "" {
		for i, msg := range path {
			if msg.ID == branch.ForkPointMessageID {
				start = i + 1
				break
			}
		}
	}

	shared := make(map[string]bool)
	for _, other := range chat.Branches {
		if other.ID == branch.ID {
			continue
		}
		for _, msg := range MessagePath(chat, other.TipMessageID) {
			shared[msg.ID] = true
		}
	}

	var exclusive []string
	for _, msg := range path[start:] {
		if !shared[msg.ID] {
			exclusive = append(exclusive, msg.ID)
		}
	}
	return exclusive
}
