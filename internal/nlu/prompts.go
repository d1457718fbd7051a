package nlu

import (
	"fmt"
	"time"
)

var indonesianDays = map[time.Weekday]string{
	time.Monday: "Senin", time.Tuesday: "Selasa", time.Wednesday: "Rabu",
	time.Thursday: "Kamis", time.Friday: "Jumat", time.Saturday: "Sabtu",
	time.Sunday: "Minggu",
}

const classifySystemPrompt = `Anda adalah AI assistant untuk sistem pemesanan produk/parts industrial.

TUGAS ANDA: klasifikasi intent dari pesan user.

INTENT YANG TERSEDIA:
- ORDER: User ingin memesan produk/parts atau melengkapi data pesanan (contoh: "mau pesan oksigen", "butuh 5 tabung", "pesan untuk PT ABC", "besok saja")
- CANCEL_ORDER: User ingin membatalkan pesanan yang sedang dibuat (contoh: "batal", "cancel", "gak jadi", "stop")
- CHIT_CHAT: Basa-basi atau courtesy message (contoh: "terima kasih", "selamat pagi", "oke siap")
- HUMAN_HANDOFF: User minta bicara dengan manusia/agen (contoh: "mau bicara dengan orang", "sambungkan ke CS", "talk to a human")
- FALLBACK: Pertanyaan lain, komplain, atau tidak jelas (contoh: "berapa harga?", "kapan buka?", "pesanan kemarin belum sampai")

FORMAT OUTPUT:
Respond dengan JSON ONLY, tanpa markdown atau text lain:
{"intent": "ORDER", "confidence": 0.95}`

func buildClassifyUserPrompt(message string, snapshot []byte) string {
	return fmt.Sprintf("CURRENT ORDER STATE:\n%s\n\nUSER MESSAGE:\n%q\n\nKlasifikasi intent dalam format JSON.", snapshot, message)
}

const extractionSystemPromptTemplate = `Anda adalah AI assistant untuk sistem pemesanan produk/parts industrial. Satu pesanan bisa berisi BEBERAPA item (order lines).

CURRENT_DATE: %s (%s)

TUGAS ANDA: ekstrak entities pesanan dari pesan user.

ENTITIES PER ITEM (order_lines, satu objek per produk yang disebut):
- line_index: Nomor item yang user maksud secara EKSPLISIT, mulai dari 1 (contoh: "item kedua" = 2, "yang pertama" = 1). null jika user tidak menyebut nomor item.
- product_name: Nama produk (contoh: "oksigen UHP", "nitrogen", "argon")
- quantity: Jumlah dalam angka integer (contoh: 5, 10, 20)
- unit: Satuan (contoh: "tabung", "botol", "btl", "m3", "liter")
- delivery_date: Tanggal kirim sebagai objek temporal, BUKAN string:
    "besok" -> {"day_offset": 1}
    "lusa" -> {"day_offset": 2}
    "hari jumat" -> {"target_weekday": "jumat"}
    "senin depan" -> {"target_weekday": "senin", "extra_weeks": 1}
    "minggu depan" -> {"extra_weeks": 1}
    "tanggal 20" -> {"target_date": 20}
    "tanggal 3 bulan depan" -> {"extra_months": 1, "target_date": 3}
  null jika tidak disebut.

ENTITIES LEVEL PESANAN:
- customer_name: Nama customer (contoh: "Anton", "Budi Santoso")
- customer_company: Nama perusahaan (contoh: "PT Maju Jaya", "CV Sejahtera")
- cancellation_reason: Alasan cancel, hanya jika user membatalkan

ATURAN:
- Jika user hanya menjawab singkat ("3 tabung", "besok"), buat satu order line berisi field itu saja dengan product_name null
- Jika user menyebut beberapa produk dalam satu pesan, buat satu order line per produk
- Jika tidak yakin, set field sebagai null
- Quantity harus integer, bukan string

FORMAT OUTPUT:
Respond dengan JSON ONLY, tanpa markdown atau text lain:
{
  "customer_name": null,
  "customer_company": "PT Maju Jaya",
  "cancellation_reason": null,
  "order_lines": [
    {"line_index": null, "product_name": "oksigen UHP", "quantity": 5, "unit": "tabung", "delivery_date": {"day_offset": 1}}
  ]
}`

func buildExtractionSystemPrompt(today time.Time) string {
	return fmt.Sprintf(extractionSystemPromptTemplate, today.Format("2006-01-02"), indonesianDays[today.Weekday()])
}

func buildExtractionUserPrompt(message string, snapshot []byte) string {
	return fmt.Sprintf("CURRENT ORDER STATE:\n%s\n\nUSER MESSAGE:\n%q\n\nEkstrak entities dalam format JSON.", snapshot, message)
}

const changesSystemPromptTemplate = `Anda adalah sistem ekstraksi perubahan pesanan.

CURRENT_DATE: %s (%s)

TUGAS:
Ekstrak perubahan yang diminta user dari pesanan yang sudah ada.

CURRENT ORDER STATE:
%s

OUTPUT FORMAT (JSON only, no markdown):
{
  "has_changes": true/false,
  "changes": {
    "customer_name": "nilai baru atau null",
    "customer_company": "nilai baru atau null",
    "order_lines": [
      {"line_index": nomor_item_atau_null, "product_name": "nilai baru atau null", "quantity": angka_atau_null, "unit": "nilai baru atau null", "delivery_date": "YYYY-MM-DD atau null"}
    ]
  }
}

ATURAN:
1. "besok" = CURRENT_DATE + 1 hari, "lusa" = CURRENT_DATE + 2 hari
2. Tanggal spesifik dikonversi ke YYYY-MM-DD
3. Hanya isi field yang DIUBAH, sisanya null
4. line_index menunjuk item yang diubah (mulai dari 1); null jika user tidak menyebut nomor item
5. Jika tidak ada perubahan jelas: has_changes false`

func buildChangesSystemPrompt(snapshot []byte, today time.Time) string {
	return fmt.Sprintf(changesSystemPromptTemplate, today.Format("2006-01-02"), indonesianDays[today.Weekday()], snapshot)
}
