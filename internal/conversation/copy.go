package conversation

import (
	"fmt"
	"strings"

	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
)

const (
	welcomeNew  = "Halo! Saya Chatbot Asisten mu hari ini! Ada yang bisa saya bantu dengan pemesanan produk?"
	welcomeBack = "Selamat datang kembali! Ada yang bisa saya bantu hari ini?"
)

func switchAckMessage(lang language.Code) string {
	if lang == language.English {
		return "Of course! I'll continue in English. How can I help you with your order?"
	}
	return "Tentu! Saya akan lanjutkan dalam Bahasa Indonesia. Ada yang bisa saya bantu dengan pesanan Anda?"
}

func escalationMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, for that assistance or question, please contact our customer service at [Phone Number]. " +
			"Is there anything else I can help you with regarding orders?"
	}
	return "Maaf, untuk bantuan atau pertanyaan tersebut silakan hubungi customer service kami di [Nomor Telepon]. " +
		"Ada lagi yang bisa saya bantu terkait pemesanan?"
}

func pleaseRepeatMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, our system is a bit busy right now. Could you repeat your message?"
	}
	return "Maaf, sistem kami sedang sibuk. Boleh diulangi pesannya?"
}

func chitChatFallbackMessage(lang language.Code) string {
	if lang == language.English {
		return "You're welcome! Is there anything else I can help you with?"
	}
	return "Sama-sama! Ada yang bisa saya bantu lagi?"
}

func handoffMessage(summary string, lang language.Code) string {
	if lang == language.English {
		if summary != "" {
			return "Of course! I'll connect you to one of our agents right away.\n\n" +
				"📋 Here's what I've noted so far:\n" + summary + "\n\n" +
				"Our agent will contact you shortly at this number. " +
				"You don't need to repeat the information above, they'll have it ready. " +
				"Is there anything else you'd like to add before I transfer you?"
		}
		return "Of course! I'll connect you to one of our agents right away. " +
			"Our agent will contact you shortly at this number. " +
			"Please hold, is there anything you'd like to share before the transfer?"
	}
	if summary != "" {
		return "Tentu! Saya akan segera menghubungkan Anda ke agen kami.\n\n" +
			"📋 Informasi yang sudah saya catat:\n" + summary + "\n\n" +
			"Agen kami akan menghubungi Anda segera di nomor ini. " +
			"Anda tidak perlu mengulangi informasi di atas, mereka sudah memilikinya. " +
			"Ada yang ingin ditambahkan sebelum saya alihkan?"
	}
	return "Tentu! Saya akan segera menghubungkan Anda ke agen kami. " +
		"Agen kami akan menghubungi Anda segera di nomor ini. " +
		"Mohon ditunggu sebentar."
}

// handoffSummary renders the captured fields for the human agent. Empty
// string when nothing has been captured yet.
func handoffSummary(agg *order.Aggregate) string {
	var lines []string

	if agg.CustomerName != "" {
		lines = append(lines, "  - Nama       : "+agg.CustomerName)
	}
	if agg.CustomerCompany != "" {
		lines = append(lines, "  - Perusahaan : "+agg.CustomerCompany)
	}

	for _, l := range agg.Lines {
		if l.ProductName != "" {
			product := l.ProductName
			if l.PartNum != "" {
				product += " (" + l.PartNum + ")"
			}
			lines = append(lines, "  - Produk     : "+product)
		}
		if l.Quantity > 0 {
			qty := fmt.Sprintf("%d", l.Quantity)
			if l.Unit != "" {
				qty += " " + l.Unit
			}
			lines = append(lines, "  - Jumlah     : "+qty)
		}
		if l.DeliveryDate != "" {
			lines = append(lines, "  - Tgl Kirim  : "+l.DeliveryDate)
		}
	}

	return strings.Join(lines, "\n")
}

func handoffCancelledMessage(lang language.Code) string {
	if lang == language.English {
		return "No problem! I'm back. Let me continue helping you with your order. " +
			"All the information you've provided is still saved. What would you like to do?"
	}
	return "Baik! Saya kembali. Semua informasi yang sudah Anda berikan masih tersimpan. " +
		"Mari kita lanjutkan pesanan Anda. Ada yang bisa saya bantu?"
}

func handoffNotedMessage(lang language.Code) string {
	if lang == language.English {
		return "Got it! I've noted that information and passed it along to the agent. " +
			"They will contact you shortly."
	}
	return "Baik! Informasi tersebut sudah saya catat dan akan diteruskan ke agen. " +
		"Mereka akan segera menghubungi Anda."
}

func handoffAckMessage(lang language.Code) string {
	if lang == language.English {
		return "I've noted your message. Our agent will contact you shortly. " +
			"If you'd like to continue with me instead, just type 'go back'."
	}
	return "Pesan Anda sudah saya catat. Agen kami akan segera menghubungi Anda. " +
		"Jika ingin melanjutkan dengan saya, ketik 'batal' atau 'balik ke bot'."
}

func chitChatSystemPrompt(lang language.Code) string {
	if lang == language.English {
		return `You are a professional call center customer service representative in Indonesia.

TASK:
Respond naturally and friendly to chit chat or courtesy messages from customers.

STYLE:
- Natural, friendly, and professional
- Brief (1-2 sentences maximum)
- Use polite English

RULES:
- If customer says "thank you" respond with "You're welcome! Is there anything else I can help you with?"
- If customer says "good morning/afternoon/evening" return the greeting and ask "How can I help you?"
- If customer says "okay/alright/sure" respond "Alright, thank you"
- If customer says "nothing else/that's all" respond "Thank you! Don't hesitate to contact us again if you need anything. Have a great day!"
- If customer says "wait/hold on" respond "Sure, I'll wait"
- Stay professional and not too casual`
	}
	return `Anda adalah customer service call center profesional di Indonesia.

TUGAS:
Respond secara natural dan ramah terhadap chit chat atau courtesy message dari customer.

GAYA BICARA:
- Natural, ramah, dan profesional
- Singkat (1-2 kalimat maksimal)
- Gunakan Bahasa Indonesia yang sopan

ATURAN:
- Jika customer bilang "terima kasih" respond dengan "Sama-sama! Ada yang bisa saya bantu lagi?"
- Jika customer bilang "selamat pagi/siang/sore" balas greeting dan tanya "Ada yang bisa saya bantu?"
- Jika customer bilang "oke/baik/siap" respond "Baik, silakan lanjutkan" atau "Terima kasih"
- Jika customer bilang "tidak ada lagi/sudah cukup" respond "Terima kasih! Jangan ragu hubungi kami lagi jika ada yang dibutuhkan"
- Jika customer bilang "ditunggu ya/sebentar ya" respond "Baik, saya tunggu"
- Tetap profesional dan jangan terlalu casual`
}

var handoffCancelKeywords = []string{
	"batal", "ga jadi", "gak jadi", "tidak jadi", "lanjut bot", "balik ke bot", "bot saja", "bot aja",
	"cancel", "nevermind", "never mind", "go back", "back to bot", "continue with bot",
}
