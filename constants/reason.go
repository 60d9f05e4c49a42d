package constants

// Reason is a stable failure code for a document-processing attempt. The code
// is the authoritative signal at the pipeline boundary; HumanReason is
// presentation only.
type Reason string

const (
	ReasonNone Reason = ""

	// Extraction stage.
	ReasonExtractionEmpty Reason = "extraction_empty"

	// Model stage.
	ReasonModelUnavailable Reason = "model_unavailable"
	ReasonNoJSONObject     Reason = "no_json_object"
	ReasonMalformedJSON    Reason = "malformed_json"

	// Validation stage.
	ReasonNotRecognizedFormat     Reason = "not_recognized_format"
	ReasonMalformedFields         Reason = "malformed_fields"
	ReasonMissingFields           Reason = "missing_fields"
	ReasonBadBIC                  Reason = "bad_bic"
	ReasonBadPayeeAccount         Reason = "bad_payee_account"
	ReasonBadCorrespondentAccount Reason = "bad_correspondent_account"
	ReasonBadAmount               Reason = "bad_amount"
	ReasonBadPurpose              Reason = "bad_purpose"

	// Encode stage.
	ReasonEncodeFailed Reason = "encode_failed"

	// Catch-all for unexpected faults recovered at the top of the pipeline.
	ReasonInternal Reason = "internal_error"
)

var humanReasons = map[Reason]string{
	ReasonExtractionEmpty:         "не удалось извлечь текст или изображения из документа",
	ReasonModelUnavailable:        "сервис распознавания недоступен",
	ReasonNoJSONObject:            "модель не вернула структурированный ответ",
	ReasonMalformedJSON:           "ответ модели не удалось разобрать",
	ReasonNotRecognizedFormat:     "строка не соответствует формату ST00012",
	ReasonMalformedFields:         "не удалось разобрать пары ключ=значение",
	ReasonMissingFields:           "не хватает обязательных реквизитов",
	ReasonBadBIC:                  "некорректный БИК",
	ReasonBadPayeeAccount:         "некорректный расчётный счёт",
	ReasonBadCorrespondentAccount: "некорректный корреспондентский счёт",
	ReasonBadAmount:               "некорректная сумма",
	ReasonBadPurpose:              "не указано назначение платежа",
	ReasonEncodeFailed:            "не удалось сгенерировать QR-код",
	ReasonInternal:                "внутренняя ошибка обработки",
}

// HumanReason returns the user-facing explanation for a reason code.
func HumanReason(r Reason) string {
	if s, ok := humanReasons[r]; ok {
		return s
	}
	return string(r)
}
