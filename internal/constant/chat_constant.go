package constant

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"

	// DefaultChatTitle marks a chat whose title has not been derived yet.
	DefaultChatTitle = "New Chat"

	// ChatTitleMaxLen is the number of characters kept from the first user
	// message when deriving a chat title.
	ChatTitleMaxLen = 30

	SystemPreamble = "You are a helpful AI assistant. Provide clear, concise, and accurate responses."

	// FallbackReply is returned when the completion API yields no content.
	FallbackReply = "Sorry, I couldn't generate a response."
)
