package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrIncidentNotFound    = errors.New("incident not found")
	ErrCameraNotFound      = errors.New("camera not found")
	ErrCameraAlreadyExists = errors.New("camera already exists")
)
