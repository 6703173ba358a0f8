package normalize

import "testing"

func TestDeliveryDateNowTokens(t *testing.T) {
	tests := []string{"сейчас", "свободно", "готово к въезду", "сегодня", "ГОТОВО К ВЪЕЗДУ", "  СеЙчАс  "}
	for _, in := range tests {
		if got := DeliveryDate(in, 2025); got != NowSentinel {
			t.Errorf("DeliveryDate(%q) = %q, want %q", in, got, NowSentinel)
		}
	}
}

func TestDeliveryDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"numeric dotted", "12.07.2025", "2025-07-12"},
		{"numeric slashed", "3/1/2026", "2026-01-03"},
		{"numeric with prefix and suffix", "с 30.09.2025 г.", "2025-09-30"},
		{"textual full", "  1  марта 2024 ", "2024-03-01"},
		{"textual full genitive", "12 июля 2025", "2025-07-12"},
		{"month only with noise", "освобождение/ октябрь", "2025-10-01"},
		{"month year with noise", "готово к ноябрь, 2024", "2024-11-01"},
		{"quarter latin", "Q4 2025", "2025-12-31"},
		{"quarter ru compact", "4кв2026", "2026-12-31"},
		{"quarter ru spaced", "2 кв 2028", "2028-06-30"},
		{"quarter roman", "iv квартал 2027", "2027-12-31"},
		{"prefix before quarter", "С q4 2027", "2027-12-31"},
		{"prefix ge", ">= 01.02.2030", "2030-02-01"},
		{"prefix before month", "с сентябрь 2025", "2025-09-01"},
		{"month only", "март 2025", "2025-03-01"},
		{"genitive with prefix", "с апреля 2025", "2025-04-01"},
		{"empty", "", ""},
		{"impossible date", "32/13/2025", ""},
		{"gibberish", "какая-то ерунда", ""},
		{"february overflow", "30.02.2025", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeliveryDate(tt.in, 2025); got != tt.want {
				t.Errorf("DeliveryDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeliveryDateDefaultYear(t *testing.T) {
	if got := DeliveryDate("октябрь", 2030); got != "2030-10-01" {
		t.Errorf("DeliveryDate default year = %q, want 2030-10-01", got)
	}
}
