package domain

var (
	MessageSuccessGetShoppingList  = "success get shopping list"
	MessageSuccessSendShoppingList = "shopping list sent successfully"

	MessageFailedGetShoppingList  = "failed to get shopping list"
	MessageFailedSendShoppingList = "failed to send shopping list"
)

type (
	// ShoppingItem is one aggregated line of the shopping list: every cart
	// recipe's requirement for the same (name, unit) pair summed together.
	ShoppingItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		TotalAmount     int64  `json:"total_amount"`
	}

	ShoppingListResponse struct {
		Items []ShoppingItem `json:"items"`
	}

	SendShoppingListRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)
