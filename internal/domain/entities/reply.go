package entities

// QuickReplyItem is one suggested reply button.
type QuickReplyItem struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// SuggestedReplies is the quick-reply payload returned with a reply.
type SuggestedReplies struct {
	Items []QuickReplyItem `json:"items"`
}

// Reply is the result of one conversation turn.
type Reply struct {
	ReplyText  string            `json:"replyText"`
	QuickReply *SuggestedReplies `json:"quickReply,omitempty"`
}
