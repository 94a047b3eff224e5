package fonts

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// MeasureString returns the shaped advance of s in points. Kerning and
// ligatures are taken into account. Line breaks are not interpreted.
func (t *TrueType) MeasureString(s string, size float64) float64 {
	input, ok := t.shapingInput()
	runes := []rune(s)
	if !ok || len(runes) == 0 {
		return float64(rawWidth(t, s)) * size / 1000
	}
	script := DetectScript(runes)
	input.Text = runes
	input.RunStart = 0
	input.RunEnd = len(runes)
	input.Direction = scriptDirection(script)
	// 1 em = 1000 units
	input.Size = fixed.Int26_6(1000 * 64)
	input.Script = script
	input.Language = language.DefaultLanguage()
	shaper := &shaping.HarfbuzzShaper{}
	output := shaper.Shape(input)

	var adv fixed.Int26_6
	for _, g := range output.Glyphs {
		adv += g.XAdvance
	}
	return float64(adv) / 64.0 * size / 1000
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// DetectScript returns the most frequent script of runes, Latin when none
// is recognized. Ties keep the script seen first.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	bestScript := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			bestScript = script
		}
	}
	return bestScript
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
