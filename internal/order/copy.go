package order

import (
	"fmt"
	"strings"

	"github.com/Leen2210/Chatbot-Samator/platform/language"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConfirmationPrompt renders the full order summary shown before the user
// confirms. Every line is listed, with its own delivery date.
func ConfirmationPrompt(agg *Aggregate, lang language.Code) string {
	var b strings.Builder
	if lang == language.English {
		b.WriteString("Alright, let me confirm your order:\n\n")
		b.WriteString("📦 ORDER DETAILS:\n")
	} else {
		b.WriteString("Baik, saya konfirmasi pesanan Bapak/Ibu:\n\n")
		b.WriteString("📦 DETAIL PESANAN:\n")
	}
	b.WriteString(rule + "\n")
	writeLineBlocks(&b, agg, lang)
	writeCustomerBlock(&b, agg, lang)
	b.WriteString(rule + "\n\n")

	if lang == language.English {
		b.WriteString("Is the information correct to process?\n\n")
		b.WriteString("Type:\n")
		b.WriteString("- \"Yes\" / \"Correct\" to confirm order\n")
		b.WriteString("- \"Change [field]\" to modify (example: \"Change date\")\n")
		b.WriteString("- \"Cancel\" to cancel order")
	} else {
		b.WriteString("Apakah data sudah benar untuk diproses?\n\n")
		b.WriteString("Ketik:\n")
		b.WriteString("- \"Ya\" / \"Benar\" untuk konfirmasi pesanan\n")
		b.WriteString("- \"Ubah [field]\" untuk mengubah (contoh: \"Ubah tanggal\")\n")
		b.WriteString("- \"Batal\" untuk membatalkan pesanan")
	}
	return b.String()
}

// Receipt renders the completion message after an order is persisted.
func Receipt(orderID string, agg *Aggregate, lang language.Code) string {
	var b strings.Builder
	if lang == language.English {
		b.WriteString("✅ ORDER SUCCESSFULLY CONFIRMED!\n\n")
		b.WriteString(rule + "\n")
		b.WriteString("Order Number: " + orderID + "\n")
	} else {
		b.WriteString("✅ PESANAN BERHASIL DIKONFIRMASI!\n\n")
		b.WriteString(rule + "\n")
		b.WriteString("Nomor Pesanan: " + orderID + "\n")
	}
	b.WriteString(rule + "\n")
	writeLineBlocks(&b, agg, lang)
	writeCustomerBlock(&b, agg, lang)
	b.WriteString(rule + "\n\n")

	if lang == language.English {
		b.WriteString("Thank you! Your order is being processed.\n")
		b.WriteString("You will receive updates via WhatsApp.\n\n")
		b.WriteString("Is there anything else I can help you with?")
	} else {
		b.WriteString("Terima kasih! Pesanan Anda sedang diproses.\n")
		b.WriteString("Anda akan menerima update melalui WhatsApp.\n\n")
		b.WriteString("Ada yang bisa saya bantu lagi?")
	}
	return b.String()
}

func writeLineBlocks(b *strings.Builder, agg *Aggregate, lang language.Code) {
	multi := len(agg.Lines) > 1
	for i, line := range agg.Lines {
		if multi {
			if lang == language.English {
				fmt.Fprintf(b, "Item %d\n", i+1)
			} else {
				fmt.Fprintf(b, "Produk ke-%d\n", i+1)
			}
		}
		product := line.ProductName
		if line.PartNum != "" {
			product = fmt.Sprintf("%s (%s)", line.ProductName, line.PartNum)
		}
		if lang == language.English {
			fmt.Fprintf(b, "Product     : %s\n", product)
			fmt.Fprintf(b, "Quantity    : %d %s\n", line.Quantity, line.Unit)
			fmt.Fprintf(b, "Date        : %s\n", line.DeliveryDate)
		} else {
			fmt.Fprintf(b, "Produk      : %s\n", product)
			fmt.Fprintf(b, "Jumlah      : %d %s\n", line.Quantity, line.Unit)
			fmt.Fprintf(b, "Tanggal     : %s\n", line.DeliveryDate)
		}
		if multi && i < len(agg.Lines)-1 {
			b.WriteString("\n")
		}
	}
}

func writeCustomerBlock(b *strings.Builder, agg *Aggregate, lang language.Code) {
	if lang == language.English {
		fmt.Fprintf(b, "Name        : %s\n", agg.CustomerName)
		fmt.Fprintf(b, "Company     : %s\n", agg.CustomerCompany)
	} else {
		fmt.Fprintf(b, "Nama        : %s\n", agg.CustomerName)
		fmt.Fprintf(b, "Perusahaan  : %s\n", agg.CustomerCompany)
	}
}

// ResumePrompt asks whether a returning customer wants to continue an
// unfinished order or start over.
func ResumePrompt(agg *Aggregate, lang language.Code) string {
	if lang == language.English {
		greeting := "Hello!"
		if agg.CustomerName != "" {
			greeting = "Hello " + agg.CustomerName + "!"
		}

		var summary strings.Builder
		for _, line := range agg.Lines {
			if line.ProductName == "" {
				continue
			}
			summary.WriteString("\n- Product: " + line.ProductName)
			if line.Quantity > 0 {
				summary.WriteString(strings.TrimRight(fmt.Sprintf("\n- Quantity: %d %s", line.Quantity, line.Unit), " "))
			}
		}

		if summary.Len() > 0 {
			return greeting + " It looks like your previous order:" + summary.String() + "\n\n" +
				"is not finished yet. Would you like to continue this order?\n\n" +
				"Type:\n- \"Yes\" / \"Continue\" to continue\n- \"Start New\" to create a new order"
		}
		return greeting + " It looks like you have an unfinished order.\n\n" +
			"Would you like to continue your previous order?\n\n" +
			"Type:\n- \"Yes\" / \"Continue\" to continue\n- \"Start New\" to create a new order"
	}

	greeting := "Halo!"
	if agg.CustomerName != "" {
		greeting = "Halo " + agg.CustomerName + "!"
	}

	var summary strings.Builder
	for _, line := range agg.Lines {
		if line.ProductName == "" {
			continue
		}
		summary.WriteString("\n- Produk: " + line.ProductName)
		if line.Quantity > 0 {
			summary.WriteString(strings.TrimRight(fmt.Sprintf("\n- Jumlah: %d %s", line.Quantity, line.Unit), " "))
		}
	}

	if summary.Len() > 0 {
		return greeting + " Sepertinya pesanan Anda sebelumnya:" + summary.String() + "\n\n" +
			"belum selesai. Apakah ingin melanjutkan pesanan ini?\n\n" +
			"Ketik:\n- \"Ya\" / \"Lanjut\" untuk melanjutkan\n- \"Mulai Baru\" untuk membuat pesanan baru"
	}
	return greeting + " Sepertinya Anda memiliki pesanan yang belum selesai.\n\n" +
		"Apakah ingin melanjutkan pesanan sebelumnya?\n\n" +
		"Ketik:\n- \"Ya\" / \"Lanjut\" untuk melanjutkan\n- \"Mulai Baru\" untuk membuat pesanan baru"
}

func cancelledMessage(lang language.Code) string {
	if lang == language.English {
		return "Order has been cancelled. Is there anything else I can help you with?"
	}
	return "Pesanan telah dibatalkan. Ada yang bisa saya bantu lagi?"
}

func confirmCancelledMessage(lang language.Code) string {
	if lang == language.English {
		return "Order cancelled. Thank you. Is there anything else I can help you with?"
	}
	return "Pesanan dibatalkan. Terima kasih. Ada yang bisa saya bantu lagi?"
}

func escalateCancelMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, for this service we will forward it to our call center. " +
			"Please wait a moment, we will contact you back."
	}
	return "Maaf, untuk layanan ini akan saya teruskan ke pihak call center kami. " +
		"Mohon ditunggu sebentar, kami akan menghubungi Anda kembali."
}

func nothingToCancelMessage(lang language.Code) string {
	if lang == language.English {
		return "There is no active order to cancel. Is there anything I can help you with?"
	}
	return "Tidak ada pesanan aktif yang bisa dibatalkan. Ada yang bisa saya bantu?"
}

func unclearConfirmationMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, I didn't quite understand.\n\n" +
			"Is the order correct?\n" +
			"- Type \"Yes\" to confirm\n" +
			"- Type \"Change [field] to [value]\" to modify\n" +
			"- Type \"Cancel\" to cancel"
	}
	return "Maaf, saya kurang mengerti.\n\n" +
		"Apakah data pesanan sudah benar?\n" +
		"- Ketik \"Ya\" untuk konfirmasi\n" +
		"- Ketik \"Ubah [field] jadi [value]\" untuk mengubah\n" +
		"- Ketik \"Batal\" untuk membatalkan"
}

func editWhichFieldMessage(lang language.Code) string {
	if lang == language.English {
		return "Alright, which field would you like to change? " +
			"(e.g., 'change date to tomorrow', 'change company to CV ABC')"
	}
	return "Baik, field apa yang ingin diubah? " +
		"(contoh: 'ubah tanggal jadi besok', 'ganti perusahaan jadi CV ABC')"
}

func editNotUnderstoodMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, I couldn't understand the changes. Could you explain in more detail?"
	}
	return "Maaf, saya tidak bisa memahami perubahan yang Anda inginkan. Bisa dijelaskan lebih detail?"
}

func freshOrderMessage(lang language.Code) string {
	if lang == language.English {
		return "Alright, let's start a new order. What product would you like to order?"
	}
	return "Baik, kita mulai pesanan baru. Produk apa yang ingin Anda pesan?"
}

func resumeUnclearMessage(lang language.Code) string {
	if lang == language.English {
		return "Sorry, I didn't quite understand.\n\n" +
			"Would you like to continue your previous order?\n" +
			"Type \"Yes\" to continue or \"Start New\" for a new order."
	}
	return "Maaf, saya kurang mengerti.\n\n" +
		"Apakah Anda ingin melanjutkan pesanan sebelumnya?\n" +
		"Ketik \"Ya\" untuk melanjutkan atau \"Mulai Baru\" untuk pesanan baru."
}

func askMissingSystemPrompt(snapshot []byte, lang language.Code) string {
	if lang == language.English {
		return fmt.Sprintf(`You are a professional call center customer service representative in Indonesia helping customers order industrial products.

SPEAKING STYLE:
- Natural, friendly, professional English
- Use "you" or "Sir/Madam"
- Vary responses, never monotonous

YOUR TASK:
- Ask for missing order information naturally
- Ensure you collect: product, quantity, unit, delivery date, customer name, company/organization

CURRENT ORDER STATE:
%s

RULES:
- Answer any customer question first, then continue
- Ask for one missing field at a time
- If all fields are complete, show confirmation summary
- Maximum 2-3 sentences per response`, snapshot)
	}
	return fmt.Sprintf(`Anda adalah customer service call center profesional di Indonesia yang membantu pelanggan memesan produk industrial.

GAYA BICARA:
- Bahasa Indonesia natural dan ramah
- Gunakan "Anda" atau "Bapak/Ibu"
- Variasikan respons

TUGAS:
- Tanyakan informasi pesanan yang masih kurang secara natural
- Pastikan mendapatkan: produk, jumlah, satuan, tanggal kirim, nama customer, nama perusahaan/organisasi

INFORMASI PESANAN SAAT INI:
%s

ATURAN:
- Jawab pertanyaan customer dulu sebelum melanjutkan
- Tanyakan satu informasi yang kosong per respons
- Jika semua lengkap, tampilkan konfirmasi
- Maksimal 2-3 kalimat per respons`, snapshot)
}

func completedOrderSystemPrompt(snapshot []byte, lang language.Code) string {
	if lang == language.English {
		return fmt.Sprintf(`You are a professional customer service representative.

IMPORTANT, ORDER ALREADY COMPLETED:
The customer's order is COMPLETED and cannot be modified.
- Answer questions about the previous order politely.
- If they want to modify/cancel: direct them to customer service.
- If they want to order again: offer to create a NEW order.

PREVIOUS ORDER (COMPLETED):
%s

Maximum 2-3 sentences per response.`, snapshot)
	}
	return fmt.Sprintf(`Anda adalah customer service profesional.

PENTING, PESANAN SUDAH SELESAI:
Pesanan customer ini sudah COMPLETED dan tidak bisa diubah.
- Jawab pertanyaan tentang pesanan sebelumnya dengan ramah.
- Jika ingin ubah/cancel: arahkan ke customer service.
- Jika ingin pesan lagi: tawarkan untuk membuat pesanan BARU.

PESANAN SEBELUMNYA (COMPLETED):
%s

Maksimal 2-3 kalimat per respons.`, snapshot)
}
