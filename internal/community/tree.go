// Package community implements the story feed, threaded comments, likes and
// aggregate stats on top of the remote store boundary.
package community

import (
	"frameconomics/internal/models"
)

// ThreadedComment is a comment with its replies resolved. It is a pure
// projection rebuilt on every fetch, never persisted.
type ThreadedComment struct {
	models.Comment
	Replies []*ThreadedComment `json:"replies"`
}

// BuildTree transforms a flat, unordered comment list (all from one story)
// into a forest of root comments with replies nested recursively, preserving
// input order among roots and within each reply list.
//
// Malformed parent references never produce an error; they degrade to "no
// known parent" by policy:
//   - a nil parent_id, a parent_id naming the comment itself, or a parent_id
//     absent from the input makes the comment a root;
//   - comments trapped in a parent cycle (A→B→…→A) are unreachable from any
//     root, so the first such comment in input order is detached from its
//     parent and promoted to root, which breaks the cycle.
//
// Every input comment appears exactly once in the resulting forest.
func BuildTree(flat []models.Comment) []*ThreadedComment {
	if len(flat) == 0 {
		return nil
	}

	nodes := make(map[string]*ThreadedComment, len(flat))
	order := make([]*ThreadedComment, 0, len(flat))
	for _, c := range flat {
		n := &ThreadedComment{Comment: c}
		nodes[c.ID] = n
		order = append(order, n)
	}

	var roots []*ThreadedComment
	for _, n := range order {
		pid := n.ParentID
		if pid == nil || *pid == n.ID {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*pid]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
	}

	// Cycle repair: anything not reachable from a root is part of a parent
	// cycle. Promote the first trapped comment (input order) to root after
	// detaching it from its parent, then re-mark; repeat until all are
	// accounted for.
	reached := make(map[string]bool, len(order))
	for _, r := range roots {
		markReachable(r, reached)
	}
	for _, n := range order {
		if reached[n.ID] {
			continue
		}
		if parent := nodes[*n.ParentID]; parent != nil {
			parent.Replies = removeReply(parent.Replies, n)
		}
		roots = append(roots, n)
		markReachable(n, reached)
	}

	return roots
}

// Flatten walks the forest depth-first and returns every comment once. The
// visited guard makes traversal safe even against a malformed forest where a
// node is reachable through more than one path.
func Flatten(forest []*ThreadedComment) []models.Comment {
	var out []models.Comment
	seen := make(map[string]bool)
	var walk func(n *ThreadedComment)
	walk = func(n *ThreadedComment) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n.Comment)
		for _, r := range n.Replies {
			walk(r)
		}
	}
	for _, n := range forest {
		walk(n)
	}
	return out
}

func markReachable(root *ThreadedComment, reached map[string]bool) {
	stack := []*ThreadedComment{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n.ID] {
			continue
		}
		reached[n.ID] = true
		stack = append(stack, n.Replies...)
	}
}

func removeReply(replies []*ThreadedComment, target *ThreadedComment) []*ThreadedComment {
	for i, r := range replies {
		if r == target {
			return append(replies[:i], replies[i+1:]...)
		}
	}
	return replies
}
