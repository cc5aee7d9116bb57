package sitekit

import (
	"github.com/golobby/config/v3"

	"github.com/digitalneighbour/sitekit/feeders"
)

// ConfigFeeders is the default feeder set used when an application has none
// of its own.
var ConfigFeeders = []Feeder{
	feeders.NewEnvFeeder(),
}

// Feeder aliases
type Feeder = config.Feeder

// ComplexFeeder can feed a single keyed section in addition to a whole struct.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, any) error
}
