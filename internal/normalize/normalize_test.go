package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"urls removed", "Claim here https://t.co/abc now", "claim here now"},
		{"www removed", "visit www.example.com today", "visit today"},
		{"mention kept as word", "Thanks @NewProject!", "thanks newproject!"},
		{"hashtag kept as word", "#Airdrop is live", "airdrop is live"},
		{"whitespace collapsed", "  lots   of\tspace  ", "lots of space"},
		{"blank lines dropped", "line one\n\n   \nline two", "line one\nline two"},
		{"list lines kept", "Steps:\n1. follow\n2. retweet", "steps:\n1. follow\n2. retweet"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input, false); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePreserveCase(t *testing.T) {
	got := Normalize("Claim $NEWP via @NewProject https://x.com/a", true)
	want := "Claim $NEWP via NewProject"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "#Testnet LIVE @zkchain\n\n1. bridge https://bridge.zk"
	once := Normalize(in, false)
	if twice := Normalize(once, false); twice != once {
		t.Errorf("expected idempotent normalization, got %q then %q", once, twice)
	}
}
