package tracker

import (
	"errors"

	"github.com/erazemk/scantrack/internal/model"
)

// Errors returned by tracker operations. Callers compare with errors.Is.
var (
	ErrEmptyBarcode     = errors.New("barcode is empty")
	ErrInvalidMode      = errors.New("invalid scan mode")
	ErrBoxActive        = errors.New("box is already active")
	ErrNoBoxSelected    = errors.New("no box selected")
	ErrBoxNotFound      = errors.New("box not found")
	ErrBoxNotActive     = errors.New("box is not active")
	ErrItemExists       = errors.New("item already scanned")
	ErrItemNotFound     = errors.New("item not found")
	ErrLocationExists   = errors.New("location already exists")
	ErrLocationNotFound = errors.New("location not found")
	ErrInvalidLocation  = errors.New("location name is empty")
	ErrWrongPassword    = errors.New("wrong password")
	ErrInvalidPassword  = errors.New("invalid password")

	// ErrInvalidTransition is returned when a box cannot move to the
	// requested status.
	ErrInvalidTransition = model.ErrInvalidTransition
)
