package scheduler

import "testing"

func TestTicketMinter_Mint(t *testing.T) {
	m := NewTicketMinterWithFiller(func() int { return 42 })

	tests := []struct {
		name       string
		date       string
		existing   int64
		nationalID string
		want       int64
	}{
		{"first of the day", "2024-05-01", 0, "29912345678901", 202405010018901},
		{"fifth of the day", "2024-05-01", 4, "29912345678901", 202405010058901},
		{"leading zero suffix", "2024-12-31", 0, "29912345670042", 202412310010042},
		{"short id uses filler", "2024-05-01", 0, "12", 202405010010042},
		{"non digit tail uses filler", "2024-05-01", 0, "2991234567ABCD", 202405010010042},
		{"sequence overflows past 999", "2024-05-01", 999, "29912345678901", 2024050110008901},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Mint(tt.date, tt.existing, tt.nationalID)
			if err != nil {
				t.Fatalf("Mint: %v", err)
			}
			if got != tt.want {
				t.Errorf("Mint = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTicketMinter_InvalidDate(t *testing.T) {
	if _, err := NewTicketMinter().Mint("2024/05/01", 0, "29912345678901"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestTicketMinter_RandomFillerInRange(t *testing.T) {
	m := NewTicketMinter()
	for i := 0; i < 50; i++ {
		got, err := m.Mint("2024-05-01", 0, "")
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		if got/10000 != 20240501001 {
			t.Fatalf("unexpected prefix in %d", got)
		}
		if s := TicketSuffix(got); s < 0 || s > 9999 {
			t.Fatalf("suffix %d out of range", s)
		}
	}
}

func TestTicketMinter_NegativeFiller(t *testing.T) {
	m := NewTicketMinterWithFiller(func() int { return -7 })
	got, err := m.Mint("2024-05-01", 0, "")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got != 202405010010007 {
		t.Errorf("Mint = %d", got)
	}
}
