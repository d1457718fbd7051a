package language

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Code
	}{
		{"english sentence", "I would like to order oxygen for tomorrow", English},
		{"indonesian sentence", "saya mau pesan oksigen untuk besok", Indonesian},
		{"empty defaults to indonesian", "", Indonesian},
		{"no indicators defaults to indonesian", "oksigen 5 tabung", Indonesian},
		{"single english indicator wins", "can i get two cylinders", English},
		{"tie falls back to indonesian", "please kirim", Indonesian},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text); got != tc.want {
				t.Fatalf("Detect(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestSwitchRequest(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Code
	}{
		{"to english", "can we talk in english please", English},
		{"to english in indonesian", "tolong pakai bahasa inggris", English},
		{"to indonesian", "pakai bahasa indonesia ya", Indonesian},
		{"not a switch", "saya mau pesan oksigen", ""},
		{"mentioning english food is not a switch", "ada english breakfast tea?", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SwitchRequest(tc.text); got != tc.want {
				t.Fatalf("SwitchRequest(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestCodeValid(t *testing.T) {
	if !Indonesian.Valid() || !English.Valid() {
		t.Fatal("supported codes must be valid")
	}
	if Code("fr").Valid() || Code("").Valid() {
		t.Fatal("unsupported codes must be invalid")
	}
}
