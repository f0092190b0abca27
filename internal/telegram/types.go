package telegram

import "encoding/json"

// BotInfo is the bot identity returned by getMe.
type BotInfo struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Message is the subset of the sent-message result the service cares about.
type Message struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64 `json:"date"`
}

// MeetingNotification carries everything needed to render a booking message.
type MeetingNotification struct {
	MeetingCode string
	MeetingLink string
	Date        string
	Time        string
	DoctorName  string
	PatientName string
	// ForDoctor selects the doctor-facing template; otherwise the
	// patient-facing one is used. The two are mutually exclusive.
	ForDoctor bool
}

type inlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      string                `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type setWebhookRequest struct {
	URL string `json:"url"`
}

// apiResponse is the Bot API envelope common to every endpoint.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}
