package service

import "errors"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("shardrun: client is closed")

// ErrNoSource indicates neither a recipe nor an ad-hoc template was given.
var ErrNoSource = errors.New("either a recipe or a template is required")
