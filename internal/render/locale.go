package render

import (
	"strings"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// LocaleFor maps a BCP 47 tag (underscores tolerated, e.g. "de_DE") to
// the closest weekday-name locale. Unknown languages fall back to en_US.
func LocaleFor(tag string) monday.Locale {
	parsed, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return monday.LocaleEnUS
	}
	base, _ := parsed.Base()

	switch base.String() {
	case "de":
		return monday.LocaleDeDE
	case "en":
		if region, _ := parsed.Region(); region.String() == "GB" {
			return monday.LocaleEnGB
		}
		return monday.LocaleEnUS
	case "fr":
		return monday.LocaleFrFR
	case "es":
		return monday.LocaleEsES
	case "it":
		return monday.LocaleItIT
	case "nl":
		return monday.LocaleNlNL
	case "pt":
		return monday.LocalePtPT
	case "pl":
		return monday.LocalePlPL
	default:
		return monday.LocaleEnUS
	}
}
