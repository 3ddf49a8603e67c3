package routes

import (
	"Foodgram-Backend/internal/api/handlers"
	"Foodgram-Backend/internal/middleware"
	"Foodgram-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	TagHandler        handlers.TagHandler
	IngredientHandler handlers.IngredientHandler
	RecipeHandler     handlers.RecipeHandler
	CartHandler       handlers.CartHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Tags()
	c.Ingredients()
	c.Recipes()
	c.ShoppingCart()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		user.Get("/subscriptions", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.GetSubscriptions)
		user.Post("/:id/subscribe", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Subscribe)
		user.Delete("/:id/subscribe", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Unsubscribe)
	}
}

func (c *Config) Tags() {
	tags := c.App.Group("/api/v1/tags")
	tags.Get("", c.TagHandler.GetTags)
	tags.Get("/:id", c.TagHandler.GetTag)
	tags.Post("", c.Middleware.AuthMiddleware(c.JWTService), c.TagHandler.CreateTag)
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group("/api/v1/ingredients")
	ingredients.Get("", c.IngredientHandler.GetIngredients)
	ingredients.Get("/:id", c.IngredientHandler.GetIngredient)
	ingredients.Post("", c.Middleware.AuthMiddleware(c.JWTService), c.IngredientHandler.CreateIngredient)
	ingredients.Delete("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.IngredientHandler.DeleteIngredient)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")
	recipes.Get("", c.RecipeHandler.GetRecipes)
	recipes.Get("/:id", c.RecipeHandler.GetRecipeDetail)

	auth := c.Middleware.AuthMiddleware(c.JWTService)
	recipes.Post("", auth, c.RecipeHandler.CreateRecipe)
	recipes.Patch("/:id", auth, c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", auth, c.RecipeHandler.DeleteRecipe)
	recipes.Post("/:id/favorite", auth, c.RecipeHandler.FavoriteRecipe)
	recipes.Delete("/:id/favorite", auth, c.RecipeHandler.UnfavoriteRecipe)
	recipes.Post("/:id/shopping_cart", auth, c.RecipeHandler.AddToCart)
	recipes.Delete("/:id/shopping_cart", auth, c.RecipeHandler.RemoveFromCart)
}

func (c *Config) ShoppingCart() {
	cart := c.App.Group("/api/v1/shopping_cart", c.Middleware.AuthMiddleware(c.JWTService))
	cart.Get("", c.CartHandler.GetShoppingList)
	cart.Get("/download", c.CartHandler.DownloadShoppingList)
	cart.Post("/send", c.CartHandler.SendShoppingList)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
