package record

// ChatThread is one canonical discussion thread with school staff.
type ChatThread struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	Recipient    string `json:"recipient,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Unread       int    `json:"unread"`
	LastActiveAt int64  `json:"last_active_at"`
}

// ChatMessage is one message inside a thread.
type ChatMessage struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"from_me"`
}
