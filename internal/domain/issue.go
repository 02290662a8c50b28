package domain

import "strings"

// IssueStatus is the normalized workflow state of a tracker issue.
type IssueStatus string

const (
	IssueStatusTodo       IssueStatus = "TODO"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusDone       IssueStatus = "DONE"
)

// LinkDirection is the direction of a link relative to the issue that owns it.
type LinkDirection string

const (
	// LinkDirectionInward means the other issue declares the relation towards this one
	// ("PROJ-2 blocks me").
	LinkDirectionInward LinkDirection = "INWARD"
	// LinkDirectionOutward means this issue declares the relation towards the other one.
	LinkDirectionOutward LinkDirection = "OUTWARD"
)

// LinkTypeBlocks is the normalized label of a blocking relation.
const LinkTypeBlocks = "BLOCKS"

// Issue is a tracker issue normalized for merge evaluation.
// Built once per request by an issue tracker adapter and never mutated afterwards.
type Issue struct {
	Key          string        `json:"key"`
	Summary      string        `json:"summary"`
	Status       IssueStatus   `json:"status"`
	LinkedIssues []LinkedIssue `json:"linked_issues"`
	Urgent       bool          `json:"urgent"`
}

// LinkedIssue is one edge of the dependency graph as seen from the owning Issue.
// It carries only what the blocking predicate needs, never the far-end Issue itself.
type LinkedIssue struct {
	Key       string        `json:"key"`
	Type      string        `json:"type"`
	Direction LinkDirection `json:"direction"`
	Status    IssueStatus   `json:"status"`
}

// NormalizeLinkType upper-cases a tracker link label ("Blocks" -> "BLOCKS").
func NormalizeLinkType(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
