// Package conversation implements the tree/branch engine at the heart of the
// server: messages stored as a forest keyed by id, named branches pointing at
// tips inside it, path reconstruction, and branch-aware export. All functions
// operate on a *models.Chat document in memory; persistence lives in the
// store packages.
package conversation

import "errors"

var (
	// ErrMessageNotFound is returned when a message id does not resolve
	// within the chat's message map.
	ErrMessageNotFound = errors.New("message not found")

	// ErrBranchNotFound is returned when a branch id does not resolve.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrMainBranchProtected is returned on attempts to delete the reserved
	// main branch.
	ErrMainBranchProtected = errors.New("the main branch cannot be deleted")

	// ErrParentOutsideBranch is returned when an explicit parent would move a
	// branch tip off its fork point's subtree.
	ErrParentOutsideBranch = errors.New("parent is not on the branch's lineage")

	// ErrInvalidChat is returned when an imported document violates the
	// chat invariants.
	ErrInvalidChat = errors.New("invalid chat document")
)
