package model

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateCard checks the fields a caller must get right before handing a card to the engine
func ValidateCard(c Card, b Board) error {
	categories := make([]interface{}, len(b.Categories))
	for i, name := range b.Categories {
		categories[i] = name
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&c.Status, validation.By(func(v interface{}) error {
			if s, ok := v.(Status); !ok || !s.Valid() {
				return errors.New("must be a known column")
			}
			return nil
		})),
		validation.Field(&c.Energy, validation.By(func(v interface{}) error {
			if e, ok := v.(Energy); !ok || !e.Valid() {
				return errors.New("must be small, medium or large")
			}
			return nil
		})),
		validation.Field(&c.Category, validation.When(c.Category != "", validation.In(categories...).Error("must be one of the board categories"))),
	)
}

// ValidateCategoryName checks a category name before it is added to a board
func ValidateCategoryName(name string) error {
	return validation.Validate(name, validation.Required, validation.Length(1, 64), validation.By(notBlank))
}

// ValidateCapacity checks a column budget entered by the user
func ValidateCapacity(n int) error {
	return validation.Validate(n, validation.Required.Error("must be at least 1"), validation.Min(1))
}

var errBlank = validation.NewError("validation_not_blank", "cannot be blank")

func notBlank(v interface{}) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}
