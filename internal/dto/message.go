package dto

type MessageRequestDTO struct {
	ChatID     int64  `json:"chat_id" example:"-1002942758131"`
	UserID     string `json:"user_id" example:"1001"`
	UserHandle string `json:"user_handle,omitempty" example:"alice"`
	MessageID  string `json:"message_id,omitempty" example:"5120"`
	Text       string `json:"text" example:"+500 @alice"`
}
