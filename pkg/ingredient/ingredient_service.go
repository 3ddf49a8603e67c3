package ingredient

import (
	"context"
	"errors"
	"strings"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// IngredientService is the catalog contract: recipes resolve ingredients
	// strictly by id, and the (name, unit) uniqueness invariant is enforced
	// here, at catalog-mutation time only.
	IngredientService interface {
		GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error)
		GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error)
		AssertUnique(ctx context.Context, name, unit string, excludeID *uuid.UUID) error
		CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest) (domain.IngredientResponse, error)
		ImportIngredients(ctx context.Context, reqs []domain.CreateIngredientRequest) (int, error)
		DeleteIngredient(ctx context.Context, id string) error
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.IngredientResponse{}, domain.ErrParseUUID
	}

	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	return toIngredientResponse(ingredient), nil
}

func (s *ingredientService) GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}

	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		res = append(res, toIngredientResponse(ingredient))
	}
	return res, nil
}

func (s *ingredientService) AssertUnique(ctx context.Context, name, unit string, excludeID *uuid.UUID) error {
	exists, err := s.ingredientRepository.ExistsByNameAndUnit(ctx, name, unit, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrIngredientConflict
	}
	return nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest) (domain.IngredientResponse, error) {
	if err := s.AssertUnique(ctx, req.Name, req.MeasurementUnit, nil); err != nil {
		return domain.IngredientResponse{}, err
	}

	ingredient := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.IngredientResponse{}, domain.ErrIngredientConflict
		}
		return domain.IngredientResponse{}, err
	}

	return toIngredientResponse(ingredient), nil
}

// ImportIngredients bulk-creates catalog rows, skipping entries that would
// break the (name, unit) uniqueness invariant. Returns how many were created.
func (s *ingredientService) ImportIngredients(ctx context.Context, reqs []domain.CreateIngredientRequest) (int, error) {
	type nameUnit struct {
		name string
		unit string
	}

	seen := make(map[nameUnit]bool)
	ingredients := make([]entities.Ingredient, 0, len(reqs))
	for _, req := range reqs {
		key := nameUnit{name: strings.ToLower(req.Name), unit: strings.ToLower(req.MeasurementUnit)}
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := s.AssertUnique(ctx, req.Name, req.MeasurementUnit, nil); err != nil {
			if errors.Is(err, domain.ErrIngredientConflict) {
				continue
			}
			return 0, err
		}

		ingredients = append(ingredients, entities.Ingredient{
			ID:              uuid.New(),
			Name:            req.Name,
			MeasurementUnit: req.MeasurementUnit,
		})
	}

	if err := s.ingredientRepository.CreateIngredients(ctx, ingredients); err != nil {
		return 0, err
	}
	return len(ingredients), nil
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrParseUUID
	}

	if _, err := s.ingredientRepository.GetIngredientByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrIngredientNotFound
		}
		return err
	}

	// Reference integrity before delete: a referenced catalog row stays.
	references, err := s.ingredientRepository.CountRecipeReferences(ctx, id)
	if err != nil {
		return err
	}
	if references > 0 {
		return domain.ErrIngredientInUse
	}

	return s.ingredientRepository.DeleteIngredient(ctx, id)
}

func toIngredientResponse(ingredient *entities.Ingredient) domain.IngredientResponse {
	return domain.IngredientResponse{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}
