package locale

// Lang is a language code such as "en" or "fr".
type Lang string

const (
	English Lang = "en"
	French  Lang = "fr"
)

// SupportedLangs are the languages event content can be written in.
var SupportedLangs = []Lang{English, French}

// IsSupported reports whether content may be stored in l.
func IsSupported(l Lang) bool {
	for _, s := range SupportedLangs {
		if s == l {
			return true
		}
	}
	return false
}

// Variant is one language version of an event's content.
type Variant struct {
	Lang        Lang    `json:"lang"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PosterRef   *string `json:"posterRef"`
}

// Resolution is the outcome of picking a variant for a reader.
type Resolution struct {
	Chosen         *Variant `json:"translation"`
	ServedLang     Lang     `json:"servedLang"`
	IsFallback     bool     `json:"isFallback"`
	AvailableLangs []Lang   `json:"availableLangs"`
}

// Resolve picks the variant to serve for preferred: the exact language, then English,
// then whatever comes first. Chosen is nil only when variants is empty.
func Resolve(variants []Variant, preferred Lang) Resolution {
	res := Resolution{ServedLang: preferred, AvailableLangs: make([]Lang, 0, len(variants))}
	for _, v := range variants {
		res.AvailableLangs = append(res.AvailableLangs, v.Lang)
	}

	idx := indexOf(variants, preferred)
	if idx < 0 {
		idx = indexOf(variants, English)
	}
	if idx < 0 && len(variants) > 0 {
		idx = 0
	}
	if idx < 0 {
		return res
	}

	chosen := variants[idx]
	res.Chosen = &chosen
	res.ServedLang = chosen.Lang
	res.IsFallback = chosen.Lang != preferred
	return res
}

func indexOf(variants []Variant, l Lang) int {
	for i := range variants {
		if variants[i].Lang == l {
			return i
		}
	}
	return -1
}
