package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrEntryNotFound       = errors.New("fuel entry not found")
	ErrParentNotFound      = errors.New("parent fuel entry not found")
	ErrMaintenanceNotFound = errors.New("maintenance cost not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrVehicleHasEntries   = errors.New("cannot delete vehicle with existing fuel entries, deactivate it instead")
	ErrSecurityAnswers     = errors.New("incorrect security answers")
	ErrNoSecurityQuestions = errors.New("no security questions set for this user")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrValidation          = errors.New("validation failed")
)
