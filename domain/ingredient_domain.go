package domain

import "errors"

var (
	MessageSuccessGetIngredients   = "success get ingredients"
	MessageSuccessCreateIngredient = "ingredient created successfully"
	MessageSuccessDeleteIngredient = "ingredient deleted successfully"

	MessageFailedGetIngredients   = "failed to get ingredients"
	MessageFailedCreateIngredient = "failed to create ingredient"
	MessageFailedDeleteIngredient = "failed to delete ingredient"

	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrIngredientConflict = errors.New("ingredient with this name and unit already exists")
	ErrIngredientInUse    = errors.New("ingredient is referenced by existing recipes")
)

type (
	CreateIngredientRequest struct {
		Name            string `json:"name" validate:"required,max=128"`
		MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
	}

	IngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
)
