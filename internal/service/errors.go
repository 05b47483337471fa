package service

import (
	"errors"
)

var (
	ErrNoCriteria    = errors.New("no search criterion provided")
	ErrNoResults     = errors.New("no results")
	ErrInvalidLetter = errors.New("letter must be a single character a-z")
	// ErrStale is returned when a newer query was dispatched to the same
	// target before this one completed
	ErrStale = errors.New("superseded by a newer request")
)

const (
	msgNoCriteria     = "Please provide at least one search criterion."
	msgInvalidLetter  = "Please choose a letter from A to Z."
	msgNoResults      = "No meals found for the selected criteria."
	msgNoLetterMeals  = "No meals found for the selected letter."
	msgNoCategoryMeal = "No meals found for the selected category."
	msgMealNotFound   = "Meal not found."
	msgFetchMeals     = "Error fetching meals. Please check your internet connection and try again."
	msgFetchCategory  = "Error fetching meals by category. Please check your internet connection and try again."
	msgFetchMeal      = "Error fetching meal details. Please check your internet connection and try again."
	msgGeneric        = "Something went wrong. Please try again."
)

// QueryError carries the banner text shown to the user next to the cause
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func queryError(message string, err error) error {
	return &QueryError{Message: message, Err: err}
}

// UserMessage returns the human-readable text for err
func UserMessage(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	switch {
	case errors.Is(err, ErrNoCriteria):
		return msgNoCriteria
	case errors.Is(err, ErrNoResults):
		return msgNoResults
	}
	return msgGeneric
}
