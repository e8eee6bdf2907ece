package market

import "strings"

// Normalizer rewrites source display names into their canonical market
// form. Implementations must be pure.
type Normalizer interface {
	Normalize(name string) string
}

// IdentityNormalizer returns names unchanged.
type IdentityNormalizer struct{}

func (IdentityNormalizer) Normalize(name string) string { return name }

// PatchNormalizer applies a fixed ordered sequence of substring
// replacements. The replacement tables themselves are maintained outside
// this package.
type PatchNormalizer struct {
	replacer *strings.Replacer
}

// NewPatchNormalizer builds a normalizer from old/new string pairs.
func NewPatchNormalizer(pairs ...string) *PatchNormalizer {
	return &PatchNormalizer{replacer: strings.NewReplacer(pairs...)}
}

func (p *PatchNormalizer) Normalize(name string) string {
	return p.replacer.Replace(name)
}
