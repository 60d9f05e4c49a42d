package bot

// Callback data prefixes. The token after the colon keys the session stores.
const (
	cbApprove = "ok"
	cbReject  = "no"
	cbPay     = "pay"
	cbGet     = "get"
	cbCancel  = "cancel"
)

func confirmKeyboard(token string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "✅ Подтвердить", CallbackData: cbApprove + ":" + token},
		{Text: "❌ Отклонить", CallbackData: cbReject + ":" + token},
	}}}
}

func resultKeyboard(token string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "💳 Оплатить", CallbackData: cbPay + ":" + token},
		{Text: "📥 Забрать", CallbackData: cbGet + ":" + token},
		{Text: "✖ Отмена", CallbackData: cbCancel + ":" + token},
	}}}
}
