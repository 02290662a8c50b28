package domain

import (
	"fmt"
	"strings"
)

// AnchorKind tells how an Anchor identifies the issue of a merge check.
type AnchorKind string

const (
	AnchorKindIssueKey  AnchorKind = "issue_key"
	AnchorKindChangeURL AnchorKind = "change_url"
)

// Anchor is a caller-supplied identifier: either a raw issue key (possibly carrying
// the urgency marker) or a change URL. Build it with IssueKeyAnchor or ChangeURLAnchor.
type Anchor struct {
	Kind  AnchorKind
	Value string
}

func IssueKeyAnchor(key string) Anchor {
	return Anchor{Kind: AnchorKindIssueKey, Value: key}
}

func ChangeURLAnchor(url string) Anchor {
	return Anchor{Kind: AnchorKindChangeURL, Value: url}
}

// Anchors are the identifiers of one merge check request. At least one is set.
type Anchors struct {
	IssueKey  string
	ChangeURL string
}

// NewAnchors trims the raw request parameters and rejects a request without any anchor.
func NewAnchors(issueKey, changeURL string) (Anchors, error) {
	a := Anchors{
		IssueKey:  strings.TrimSpace(issueKey),
		ChangeURL: strings.TrimSpace(changeURL),
	}
	if a.IssueKey == "" && a.ChangeURL == "" {
		return Anchors{}, fmt.Errorf("%w: either an issue key or a pull request url must be provided", ErrInvalidRequest)
	}
	return a, nil
}

// IssueAnchor picks the anchor used to locate the issue: the explicit key when
// given, otherwise the change URL (searched for a linked issue).
func (a Anchors) IssueAnchor() Anchor {
	if a.IssueKey != "" {
		return IssueKeyAnchor(a.IssueKey)
	}
	return ChangeURLAnchor(a.ChangeURL)
}

func (a Anchors) HasChange() bool {
	return a.ChangeURL != ""
}
