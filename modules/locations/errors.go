package locations

import "errors"

var (
	ErrEmptyName    = errors.New("location name is empty")
	ErrEmptySlug    = errors.New("location slug is empty")
	ErrEmptyTree    = errors.New("location tree is empty")
	ErrTreeDecode   = errors.New("failed to decode location tree")
	ErrUnknownIndex = errors.New("location index service has unexpected type")
)
