package models

import (
	"errors"
	"fmt"
)

// Response contract errors
var (
	ErrMissingAnalysis = errors.New("response marked successful but carries no analysis")
	ErrMissingError    = errors.New("response marked failed but carries no error")
)

// Input errors
var (
	ErrTextTooShort     = errors.New("Текст слишком короткий")
	ErrUnsupportedImage = errors.New("Недопустимый формат изображения")
	ErrEmptyURL         = errors.New("URL не указан")
)

// FetchError reports a page that could not be retrieved for parsing.
type FetchError struct {
	URL    string
	Status int
}

func (fe FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d", fe.URL, fe.Status)
}
