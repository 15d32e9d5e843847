package models

// UserIdentity represents the authenticated user of the session.
// Created on login/registration, mutated by profile edits, destroyed on logout.
type UserIdentity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
