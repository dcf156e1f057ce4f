package models

// Session is the logged-in state persisted across the multi-request
// authorization flow. UserID is empty for anonymous sessions; IntendedURL
// holds the URL to resume after login (typically an interrupted
// /oauth/authorize request).
type Session struct {
	UserID      string `json:"user_id"`
	IntendedURL string `json:"intended_url"`
}
