package models

// Wire values for ChatMessage.MessageType as returned by the service.
const (
	TypeUser = "user"
	TypeAI   = "ai"
)

// User is the identity snapshot returned by the service. It is replaced
// wholesale on every profile fetch, never partially mutated.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName prefers the first name, falling back to the username.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// ChatMessage is one entry in the chat thread. IDs are client-generated for
// optimistic entries and server-generated once confirmed. Timestamps are kept
// as the service's ISO strings; the client only displays them.
type ChatMessage struct {
	ID          string `json:"id"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}
