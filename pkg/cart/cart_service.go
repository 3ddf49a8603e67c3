package cart

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/internal/utils/mailing"
)

type (
	CartService interface {
		Aggregate(ctx context.Context, userID string) ([]domain.ShoppingItem, error)
		RenderManifest(items []domain.ShoppingItem) string
		SendShoppingList(ctx context.Context, userID string, toEmail string) error
	}

	cartService struct {
		cartRepository CartRepository
		mailer         mailing.Sender
	}
)

func NewCartService(cartRepository CartRepository, mailer mailing.Sender) CartService {
	return &cartService{
		cartRepository: cartRepository,
		mailer:         mailer,
	}
}

type groupKey struct {
	name string
	unit string
}

// Aggregate merges the ingredient requirements of every recipe in the user's
// cart into one deduplicated list. Rows are grouped by the resolved
// (name, unit) display identity, so two catalog rows sharing name and unit
// fold into one line, while the same name under a different unit stays a
// separate group. An empty cart yields an empty list.
func (s *cartService) Aggregate(ctx context.Context, userID string) ([]domain.ShoppingItem, error) {
	rows, err := s.cartRepository.GetCartIngredientRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[groupKey]int64, len(rows))
	for _, row := range rows {
		key := groupKey{name: row.Name, unit: row.MeasurementUnit}
		totals[key] += int64(row.Amount)
	}

	items := make([]domain.ShoppingItem, 0, len(totals))
	for key, total := range totals {
		items = append(items, domain.ShoppingItem{
			Name:            key.name,
			MeasurementUnit: key.unit,
			TotalAmount:     total,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})

	return items, nil
}

// RenderManifest serializes the aggregated list into the line-oriented text
// form handed to delivery collaborators: a dated header, then one line per
// group.
func (s *cartService) RenderManifest(items []domain.ShoppingItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("Shopping list for %s:", time.Now().Format("02.01.2006")))

	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.TotalAmount))
	}

	return strings.Join(lines, "\n")
}

func (s *cartService) SendShoppingList(ctx context.Context, userID string, toEmail string) error {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return err
	}

	manifest := s.RenderManifest(items)
	return s.mailer.SendMail(toEmail, "Your shopping list", manifest)
}
