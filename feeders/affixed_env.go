package feeders

import "os"

// AffixedEnvFeeder reads `env`-tagged fields from variables named
// PREFIX_TAG_SUFFIX. Either affix may be empty but not both.
type AffixedEnvFeeder struct {
	Prefix string
	Suffix string
}

// NewAffixedEnvFeeder creates an AffixedEnvFeeder.
func NewAffixedEnvFeeder(prefix, suffix string) AffixedEnvFeeder {
	return AffixedEnvFeeder{Prefix: prefix, Suffix: suffix}
}

// Feed populates structure from affixed environment variables.
func (f AffixedEnvFeeder) Feed(structure any) error {
	if f.Prefix == "" && f.Suffix == "" {
		return ErrEnvEmptyPrefixAndSuffix
	}
	return feedEnv(structure, envName(f.Prefix, f.Suffix), os.LookupEnv)
}

// FeedKey populates a section the same way as Feed.
func (f AffixedEnvFeeder) FeedKey(_ string, target any) error {
	return f.Feed(target)
}
