package catalog

import "errors"

var (
	ErrUnknownFamily      = errors.New("unknown service family")
	ErrUnknownSubService  = errors.New("unknown sub-service")
	ErrLocationNotEnabled = errors.New("location not enabled for service")
	ErrRulesDecode        = errors.New("failed to decode eligibility rules")
	ErrCatalogService     = errors.New("catalog service has unexpected type")
)
