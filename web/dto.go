package web

import "github.com/mailsonar/mailsonar/core"

// FetchRequest asks for the contents of a mailbox folder.
type FetchRequest struct {
	IMAPHost string `json:"imap_host"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Folder   string `json:"folder,omitempty"`
}

// SearchRequest asks for a semantic search over a mailbox folder.
type SearchRequest struct {
	IMAPHost      string   `json:"imap_host"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Query         string   `json:"query"`
	Folder        string   `json:"folder,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	MinThreshold  *float64 `json:"min_threshold,omitempty"`
	IncludeScores bool     `json:"include_scores,omitempty"`
}

// EmailItem is one email in a response.
type EmailItem struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// SearchResultItem is one ranked email, optionally annotated with its
// similarity score.
type SearchResultItem struct {
	EmailItem
	SimilarityScore *float32 `json:"similarity_score,omitempty"`
	ScoreCategory   string   `json:"score_category,omitempty"`
}

// FetchResponse lists a folder's emails, newest first.
type FetchResponse struct {
	Emails []EmailItem `json:"emails"`
	Count  int         `json:"count"`
}

// SearchResponse lists the ranked matches for a query.
type SearchResponse struct {
	Query   string             `json:"query"`
	Model   string             `json:"model"`
	Results []SearchResultItem `json:"results"`
	Count   int                `json:"count"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func emailToItem(email *core.Email) EmailItem {
	return EmailItem{
		Subject: email.Subject,
		From:    email.From,
		Date:    email.Date,
		Body:    email.Body,
	}
}

// ScoreCategory buckets a cosine similarity score for display.
func ScoreCategory(score float32) string {
	switch {
	case score >= 0.5:
		return "high"
	case score >= 0.3:
		return "medium"
	case score >= 0.1:
		return "low"
	default:
		return "very_low"
	}
}

func resultToItem(result *core.SearchResult, includeScores bool) SearchResultItem {
	item := SearchResultItem{EmailItem: emailToItem(result.Email)}
	if includeScores {
		score := result.Score
		item.SimilarityScore = &score
		item.ScoreCategory = ScoreCategory(score)
	}
	return item
}
