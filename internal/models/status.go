package models

import (
	"fmt"
	"strings"
)

// EntityKind names the governed entity tables.
type EntityKind string

const (
	KindPost       EntityKind = "post"
	KindComment    EntityKind = "comment"
	KindConnection EntityKind = "connection"
)

type PostStatus string

const (
	PostDraft      PostStatus = "draft"
	PostDraftSaved PostStatus = "draft_saved"
	PostScheduled  PostStatus = "scheduled"
	PostPosted     PostStatus = "posted"
	PostArchived   PostStatus = "archived"
)

type CommentStatus string

const (
	CommentPending   CommentStatus = "pending"
	CommentScheduled CommentStatus = "scheduled"
	CommentSaved     CommentStatus = "saved"
	CommentPosted    CommentStatus = "posted"
	CommentIgnored   CommentStatus = "ignored"
)

type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionSent      ConnectionStatus = "sent"
	ConnectionAccepted  ConnectionStatus = "accepted"
	ConnectionDismissed ConnectionStatus = "dismissed"
)

// legacy values written by earlier iterations of the pipeline
var legacyPostStatuses = map[string]PostStatus{
	"ignored":  PostArchived,
	"approved": PostPosted,
	"saved":    PostDraftSaved,
}

var legacyCommentStatuses = map[string]CommentStatus{
	"pending_urn": CommentPending,
	"approved":    CommentPosted,
	"archived":    CommentIgnored,
}

var legacyConnectionStatuses = map[string]ConnectionStatus{
	"pending_manual": ConnectionPending,
}

// ParsePostStatus canonicalises a stored or requested post status.
func ParsePostStatus(raw string) (PostStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch s := PostStatus(v); s {
	case PostDraft, PostDraftSaved, PostScheduled, PostPosted, PostArchived:
		return s, nil
	}
	if s, ok := legacyPostStatuses[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown post status %q", raw)
}

// ParseCommentStatus canonicalises a stored or requested comment status.
func ParseCommentStatus(raw string) (CommentStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch s := CommentStatus(v); s {
	case CommentPending, CommentScheduled, CommentSaved, CommentPosted, CommentIgnored:
		return s, nil
	}
	if s, ok := legacyCommentStatuses[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown comment status %q", raw)
}

// ParseConnectionStatus canonicalises a connection request status.
func ParseConnectionStatus(raw string) (ConnectionStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch s := ConnectionStatus(v); s {
	case ConnectionPending, ConnectionSent, ConnectionAccepted, ConnectionDismissed:
		return s, nil
	}
	if s, ok := legacyConnectionStatuses[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown connection status %q", raw)
}

// LegacyPostStatuses returns the stored legacy value -> canonical value pairs.
func LegacyPostStatuses() map[string]PostStatus {
	out := make(map[string]PostStatus, len(legacyPostStatuses))
	for k, v := range legacyPostStatuses {
		out[k] = v
	}
	return out
}

// LegacyCommentStatuses returns the stored legacy value -> canonical value pairs.
func LegacyCommentStatuses() map[string]CommentStatus {
	out := make(map[string]CommentStatus, len(legacyCommentStatuses))
	for k, v := range legacyCommentStatuses {
		out[k] = v
	}
	return out
}

// LegacyConnectionStatuses returns the stored legacy value -> canonical value pairs.
func LegacyConnectionStatuses() map[string]ConnectionStatus {
	out := make(map[string]ConnectionStatus, len(legacyConnectionStatuses))
	for k, v := range legacyConnectionStatuses {
		out[k] = v
	}
	return out
}
