// Package language provides heuristic language detection for the bilingual
// (Indonesian/English) conversation surface.
// This is part of the platform layer and contains no business logic.
package language

import "strings"

// Code is an ISO 639-1 language code the bot can speak.
type Code string

const (
	Indonesian Code = "id"
	English    Code = "en"
)

// Valid reports whether c is a language the bot supports.
func (c Code) Valid() bool {
	return c == Indonesian || c == English
}

// Common English words that are not commonly used in Indonesian.
var englishIndicators = wordSet(
	"the", "is", "are", "was", "were", "have", "has", "had", "will", "would",
	"can", "could", "should", "may", "might", "must", "shall",
	"this", "that", "these", "those", "what", "which", "who", "where", "when",
	"how", "why", "please", "thank", "thanks", "hello", "hi", "good", "morning",
	"afternoon", "evening", "night", "order", "need", "want", "like", "get",
	"make", "take", "give", "tell", "ask", "work", "seem", "feel", "try",
	"leave", "call", "delivery", "product", "company", "customer", "date",
)

var indonesianIndicators = wordSet(
	"saya", "anda", "kamu", "kami", "mereka", "dia", "ini", "itu", "yang", "dan",
	"atau", "untuk", "dari", "ke", "di", "pada", "dengan", "adalah", "akan",
	"sudah", "belum", "tidak", "bukan", "jangan", "mau", "ingin", "butuh",
	"bisa", "boleh", "harus", "perlu", "ada", "apa", "siapa", "dimana", "kapan",
	"bagaimana", "kenapa", "mengapa", "tolong", "terima", "kasih", "halo", "hai",
	"selamat", "pagi", "siang", "sore", "malam", "pesan", "pesanan", "kirim",
	"tanggal", "nama", "perusahaan", "produk", "barang",
)

var englishPatterns = []string{"i want", "i need", "can i", "could you", "please", "thank you"}

// Explicit requests to change the conversation language. Sessions lock
// their language; only these phrases unlock it.
var switchToEnglish = []string{"in english", "english please", "speak english", "pakai bahasa inggris", "bahasa inggris"}
var switchToIndonesian = []string{"in indonesian", "bahasa indonesia", "pakai bahasa indonesia", "speak indonesian"}

// Detect returns the likely language of text. Indonesian is the default
// when no indicator wins.
func Detect(text string) Code {
	if strings.TrimSpace(text) == "" {
		return Indonesian
	}

	var english, indonesian int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if englishIndicators[word] {
			english++
		}
		if indonesianIndicators[word] {
			indonesian++
		}
	}

	if english > indonesian {
		return English
	}
	if indonesian > 0 {
		return Indonesian
	}

	lower := strings.ToLower(text)
	for _, pattern := range englishPatterns {
		if strings.Contains(lower, pattern) {
			return English
		}
	}
	return Indonesian
}

// SwitchRequest returns the language the user explicitly asked to switch to,
// or empty when the message is not a switch request.
func SwitchRequest(text string) Code {
	lower := strings.ToLower(text)
	for _, phrase := range switchToEnglish {
		if strings.Contains(lower, phrase) {
			return English
		}
	}
	for _, phrase := range switchToIndonesian {
		if strings.Contains(lower, phrase) {
			return Indonesian
		}
	}
	return ""
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
