package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateID        = errors.New("id already exists")
	ErrInvalidReference   = errors.New("referenced entity does not exist")
	ErrInUse              = errors.New("entity is referenced by shops")
	ErrShopNotFound       = errors.New("shop not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrZoneNotFound       = errors.New("zone not found")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceExists       = errors.New("device already registered")
	ErrFeatureNotFound    = errors.New("feature not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// errNoChange aborts a document update that would not modify anything.
var errNoChange = errors.New("no change")
