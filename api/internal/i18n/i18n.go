// Package i18n holds the supported response languages and the localized
// disclaimers appended to medical answers.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const Default = "en"

var supported = []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "hi"}

var disclaimers = map[string]string{
	"en": "\n\n*⚠️ This information is for educational purposes. Always consult healthcare professionals for medical advice.*",
	"es": "\n\n*⚠️ Esta información es para fines educativos. Siempre consulte a profesionales de la salud para obtener consejos médicos.*",
	"fr": "\n\n*⚠️ Ces informations sont à des fins éducatives. Consultez toujours des professionnels de la santé pour des conseils médicaux.*",
	"de": "\n\n*⚠️ Diese Informationen dienen Bildungszwecken. Wenden Sie sich für medizinische Beratung immer an Gesundheitsfachkräfte.*",
	"it": "\n\n*⚠️ Queste informazioni sono a scopo educativo. Consulta sempre i professionisti sanitari per consigli medici.*",
	"pt": "\n\n*⚠️ Esta informação é para fins educacionais. Consulte sempre profissionais de saúde para aconselhamento médico.*",
	"ru": "\n\n*⚠️ Эта информация предназначена для образовательных целей. Всегда обращайтесь к медицинским работникам за медицинской консультацией.*",
	"zh": "\n\n*⚠️ 此信息仅供教育目的。请始终咨询医疗专业人员获取医疗建议。*",
	"ja": "\n\n*⚠️ この情報は教育目的のものです。医学的アドバイスについては、必ず医療従事者にご相談ください。*",
	"ko": "\n\n*⚠️ 이 정보는 교육 목적입니다. 의료 조언은 항상 의료 전문가에게 문의하세요.*",
	"ar": "\n\n*⚠️ هذه المعلومات لأغراض تعليمية. استشر دائماً المتخصصين في الرعاية الصحية للحصول على المشورة الطبية.*",
	"hi": "\n\n*⚠️ यह जानकारी शैक्षणिक उद्देश्यों के लिए है। चिकित्सा सलाह के लिए हमेशा स्वास्थ्य पेशेवरों से सलाह लें।*",
}

var shortDisclaimers = map[string]string{
	"en": "\n\n*⚠️ Educational purposes only. Consult healthcare professionals.*",
	"es": "\n\n*⚠️ Solo para fines educativos. Consulte a profesionales de la salud.*",
	"fr": "\n\n*⚠️ À des fins éducatives uniquement. Consultez des professionnels de la santé.*",
	"de": "\n\n*⚠️ Nur zu Bildungszwecken. Wenden Sie sich an Gesundheitsfachkräfte.*",
	"it": "\n\n*⚠️ Solo a scopo educativo. Consulta professionisti sanitari.*",
	"pt": "\n\n*⚠️ Apenas para fins educacionais. Consulte profissionais de saúde.*",
	"ru": "\n\n*⚠️ Только в образовательных целях. Обратитесь к медицинским работникам.*",
	"zh": "\n\n*⚠️ 仅供教育目的。咨询医疗专业人员。*",
	"ja": "\n\n*⚠️ 教育目的のみ。医療従事者にご相談ください。*",
	"ko": "\n\n*⚠️ 교육 목적만. 의료 전문가에게 문의하세요.*",
	"ar": "\n\n*⚠️ لأغراض تعليمية فقط. استشر المتخصصين في الرعاية الصحية.*",
	"hi": "\n\n*⚠️ केवल शैक्षणिक उद्देश्यों के लिए। स्वास्थ्य पेशेवरों से सलाह लें।*",
}

// Codes returns the supported language codes in display order.
func Codes() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

func IsSupported(code string) bool {
	_, ok := disclaimers[code]
	return ok
}

// Normalize maps a tag such as "pt-BR" or "ES" to a supported base code,
// falling back to English.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Default
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Default
	}
	base, _ := tag.Base()
	if IsSupported(base.String()) {
		return base.String()
	}
	return Default
}

// Name is the English name of the language, e.g. "Spanish".
func Name(code string) string {
	return display.English.Tags().Name(language.Make(Normalize(code)))
}

// SelfName is the language's own name, e.g. "español".
func SelfName(code string) string {
	return display.Self.Name(language.Make(Normalize(code)))
}

// Names maps every supported code to its English name.
func Names() map[string]string {
	m := make(map[string]string, len(supported))
	for _, c := range supported {
		m[c] = Name(c)
	}
	return m
}

func Disclaimer(code string) string { return disclaimers[Normalize(code)] }

func ShortDisclaimer(code string) string { return shortDisclaimers[Normalize(code)] }

// AnyName names an arbitrary ISO 639 code, supported or not. Codes the
// display tables do not know are returned upper-cased.
func AnyName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || code == "unknown" {
		return "unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if n := display.English.Tags().Name(tag); n != "" {
		return n
	}
	return strings.ToUpper(code)
}
