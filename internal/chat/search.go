// ABOUTME: In-transcript text search recomputed from the current store snapshot
// ABOUTME: Also wraps the backend's cross-session search with the same minimum query length

package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/chatsync/internal/api"
	chaterrors "github.com/harper/chatsync/internal/errors"
)

// MinSearchLength is the shortest query, after trimming, that is searched.
const MinSearchLength = 2

const searchPromptTooShort = "Type at least 2 characters to search..."

// Match is one message whose content contains the query.
type Match struct {
	MessageID string
	Index     int // position in the searched snapshot
	Role      Role
}

type SearchResult struct {
	Query   string
	Prompt  string
	Matches []Match
}

// Has reports whether id is among the matches.
func (r SearchResult) Has(id string) bool {
	for _, m := range r.Matches {
		if m.MessageID == id {
			return true
		}
	}
	return false
}

// Search matches query case-insensitively against msgs in document order.
// Pending placeholders are not searched. Nothing is cached between calls.
func Search(msgs []Message, query string) SearchResult {
	q := strings.TrimSpace(query)
	result := SearchResult{Query: q}
	if utf8.RuneCountInString(q) < MinSearchLength {
		result.Prompt = searchPromptTooShort
		return result
	}

	needle := strings.ToLower(q)
	for i, m := range msgs {
		if m.Status == StatusPending {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), needle) {
			result.Matches = append(result.Matches, Match{MessageID: m.ID, Index: i, Role: m.Role})
		}
	}
	result.Prompt = fmt.Sprintf("Found %d message(s) containing \"%s\"", len(result.Matches), q)
	return result
}

// RemoteHit is a backend search result, possibly from another session.
type RemoteHit struct {
	MessageID    string
	SessionID    string
	SessionTitle string
	Role         Role
	Content      string
}

// RemoteSearch asks the backend to search across sessions, or within
// sessionID when it is set.
func RemoteSearch(ctx context.Context, backend Backend, query, sessionID string) ([]RemoteHit, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, chaterrors.NewValidationError("query", "type at least 2 characters to search")
	}

	resp, err := backend.Search(ctx, q, api.ID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]RemoteHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, RemoteHit{
			MessageID:    r.ID.String(),
			SessionID:    r.SessionID.String(),
			SessionTitle: r.SessionTitle,
			Role:         ParseRole(r.Type),
			Content:      r.Content,
		})
	}
	return hits, nil
}
