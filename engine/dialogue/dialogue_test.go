package dialogue

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/types"
)

func TestText(t *testing.T) {
	both := types.Dict{"en": "Hello", "ja": "こんにちは"}

	tests := []struct {
		name string
		dict types.Dict
		lang language.Tag
		want string
	}{
		{"exact english", both, language.English, "Hello"},
		{"exact japanese", both, language.Japanese, "こんにちは"},
		{"regional english", both, language.BritishEnglish, "Hello"},
		{"regional japanese", both, language.MustParse("ja-JP"), "こんにちは"},
		{"unsupported falls back to english", both, language.French, "Hello"},
		{"no english falls back to first key", types.Dict{"ja": "猫", "zh": "猫咪"}, language.French, "猫"},
		{"empty dict", types.Dict{}, language.English, ""},
		{"nil dict", nil, language.English, ""},
		{"unparseable keys", types.Dict{"???": "raw"}, language.English, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.dict, tt.lang)
			if got != tt.want {
				t.Errorf("Text(%v, %v) = %q, want %q", tt.dict, tt.lang, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"cat", "Cat"},
		{"witch_cat", "Witch Cat"},
		{"old_raven_king", "Old Raven King"},
		{"", ""},
	}
	for _, tt := range tests {
		got := DisplayName(tt.id)
		if got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	if got := Line("", "The wind howls."); got != "The wind howls." {
		t.Errorf("expected narration unchanged, got %q", got)
	}
	if got := Line("witch_cat", "Meow."); got != "Witch Cat: 'Meow.'" {
		t.Errorf("expected speaker line, got %q", got)
	}
}
