package mg

import "strings"

// AffixKind says which end of a morph an affix attaches to.
type AffixKind uint8

const (
	Prefix AffixKind = iota
	Suffix
)

func (k AffixKind) String() string {
	if k == Prefix {
		return "prefix"
	}
	return "suffix"
}

// Affix is a shared prefix ("be-") or suffix ("-s").
type Affix struct {
	Morph string
}

// Kind returns the affix direction. A trailing hyphen wins over a leading one.
func (a Affix) Kind() (AffixKind, error) {
	switch {
	case strings.HasSuffix(a.Morph, "-"):
		return Prefix, nil
	case strings.HasPrefix(a.Morph, "-"):
		return Suffix, nil
	}
	return 0, &InvalidAffixError{Morph: a.Morph}
}

// Bare returns the affix without its directional hyphen.
func (a Affix) Bare() string {
	k, err := a.Kind()
	if err != nil {
		return a.Morph
	}
	if k == Prefix {
		return strings.TrimSuffix(a.Morph, "-")
	}
	return strings.TrimPrefix(a.Morph, "-")
}

// StateID is the category id that links decomposed roots to the affix item.
func (a Affix) StateID() string {
	return ":" + a.Morph
}
