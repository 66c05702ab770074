package model

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatTurn - 대화 이력의 한 턴
type ChatTurn struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// BotRequest - POST /bot 요청
type BotRequest struct {
	Text                string     `json:"text"`
	IsNew               bool       `json:"isNew"`
	ConversationHistory []ChatTurn `json:"conversationHistory"`
	ConversationID      string     `json:"conversationId,omitempty"`
}

// LegacyChatRequest - 대시보드 ChatBox 가 보내는 POST /chat 요청
type LegacyChatRequest struct {
	Message             string     `json:"message"`
	ConversationHistory []ChatTurn `json:"conversation_history"`
	ConversationID      string     `json:"conversation_id,omitempty"`
}

func (r LegacyChatRequest) BotRequest() BotRequest {
	return BotRequest{
		Text:                r.Message,
		ConversationHistory: r.ConversationHistory,
		ConversationID:      r.ConversationID,
	}
}

// BotResponse - POST /bot 응답
type BotResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId,omitempty"`
}
