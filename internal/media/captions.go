package media

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/JesmerAFK/movie-night/pkg/types"
)

var langNames = map[string]string{
	"en": "English", "ar": "Arabic", "zh": "Chinese", "fr": "French",
	"de": "German", "es": "Spanish", "it": "Italian", "ja": "Japanese",
	"ko": "Korean", "pt": "Portuguese", "ru": "Russian", "ur": "Urdu",
	"hi": "Hindi", "vi": "Vietnamese", "tr": "Turkish", "th": "Thai",
	"id": "Indonesian", "ms": "Malay", "fa": "Persian", "he": "Hebrew",
	"tl": "Tagalog",
}

// LanguageName looks a caption code up in the fixed name table. Regional and
// three-letter forms ("pt-BR", "eng") resolve through their base language.
func LanguageName(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", false
	}
	if name, ok := langNames[code]; ok {
		return name, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	name, ok := langNames[base.String()]
	return name, ok
}

// Subtitles labels caption options for display. Options without a URL are
// dropped, but numbering follows the position in the original slice.
func Subtitles(captions []types.CaptionOption) []types.Subtitle {
	out := make([]types.Subtitle, 0, len(captions))
	for i, c := range captions {
		if c.URL == "" {
			continue
		}
		label, ok := LanguageName(c.LanguageCode)
		if !ok {
			label = strings.TrimSpace(c.LanguageLabel)
		}
		if label == "" || label == "None" {
			label = "Subtitle " + strconv.Itoa(i+1)
		}
		out = append(out, types.Subtitle{Language: label, URL: c.URL})
	}
	return out
}
