package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrMissingSecret     = goerr.New("required secret is not set")
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")
	ErrInvalidMetric     = goerr.New("invalid distance metric")
	ErrEmptyResponse     = goerr.New("empty response from remote service")
	ErrMissingColumn     = goerr.New("required column not found")
)
