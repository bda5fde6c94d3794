package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "missing_required":
			return "必須フィールドが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "invalid_enum":
			return "列挙値が不正です"
		case "invalid_value":
			return "値が不正です"
		case "invalid_format":
			return "形式が不正です"
		case "duplicate_item":
			return "要素が重複しています"
		case "schema_error":
			return "スキーマ定義が不正です"
		case "parse_error":
			return "解析エラー"
		case "too_deep":
			return "ネストが深すぎます"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "missing_required":
			return "required field missing"
		case "unknown_key":
			return "unknown key"
		case "invalid_enum":
			return "invalid enum value"
		case "invalid_value":
			return "invalid value"
		case "invalid_format":
			return "invalid format"
		case "duplicate_item":
			return "duplicate item"
		case "schema_error":
			return "malformed schema definition"
		case "parse_error":
			return "parse error"
		case "too_deep":
			return "nesting too deep"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T returns the message for code using the current Translator.
func T(code string, data map[string]string) string {
	return currentTranslator.Message(code, data)
}
