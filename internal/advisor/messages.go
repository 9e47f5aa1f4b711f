package advisor

import "masarify/internal/core"

type failure int

const (
	missingKey failure = iota
	serviceError
	emptyAnswer
)

var failureText = map[failure]map[core.Language]string{
	missingKey: {
		core.English: "Error: API Key is missing. Please set GEMINI_API_KEY in the server environment.",
		core.Arabic:  "عذراً، مفتاح الربط مع الذكاء الاصطناعي مفقود. يرجى التأكد من إعداد GEMINI_API_KEY في إعدادات الخادم.",
	},
	serviceError: {
		core.English: "Sorry, an error occurred connecting to the Smart Advisor.",
		core.Arabic:  "عذراً، حدث خطأ أثناء الاتصال بالمستشار الذكي. يرجى المحاولة لاحقاً.",
	},
	emptyAnswer: {
		core.English: "I could not generate a response.",
		core.Arabic:  "لم أتمكن من توليد إجابة.",
	},
}

func (f failure) text(lang core.Language) string {
	if s, ok := failureText[f][lang]; ok {
		return s
	}
	return failureText[f][core.English]
}
