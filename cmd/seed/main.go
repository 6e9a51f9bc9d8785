// Seeds an admin and a regular account plus a handful of sample recipes.
// Intended for development databases; running it twice is a no-op for the
// accounts (matched by email) but adds the recipes again.
package main

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/recipeshare/backend/config"
	"github.com/recipeshare/backend/internal/database"
	"github.com/recipeshare/backend/internal/models"
)

type seedRecipe struct {
	name        string
	cuisineType string
	ingredients string
	steps       string
}

var sampleRecipes = []seedRecipe{
	{
		name:        "Classic Spaghetti Carbonara",
		cuisineType: "Italian",
		ingredients: "400g spaghetti\n200g pancetta or guanciale\n4 large eggs\n100g Pecorino Romano cheese\nBlack pepper\nSalt",
		steps:       "Cook spaghetti in salted boiling water until al dente\nCrisp the pancetta in a large pan\nBeat eggs with grated cheese and black pepper\nDrain pasta, reserving some pasta water\nToss hot pasta with pancetta\nRemove from heat and quickly mix in egg mixture\nAdd pasta water to create creamy sauce\nServe immediately with extra cheese",
	},
	{
		name:        "Chicken Tikka Masala",
		cuisineType: "Indian",
		ingredients: "500g chicken breast\n1 cup yogurt\n2 tbsp tikka masala paste\n1 onion, diced\n3 cloves garlic\n1 can tomato sauce\n1 cup heavy cream\nFresh cilantro\nBasmati rice",
		steps:       "Marinate chicken in yogurt and half the tikka paste for 2 hours\nGrill or pan-fry chicken until cooked\nSauté onion and garlic until soft\nAdd remaining tikka paste and cook for 1 minute\nAdd tomato sauce and simmer for 10 minutes\nStir in cream and cooked chicken\nSimmer for 5 more minutes\nGarnish with cilantro and serve with rice",
	},
	{
		name:        "Classic Beef Tacos",
		cuisineType: "Mexican",
		ingredients: "500g ground beef\n1 packet taco seasoning\nTaco shells\nLettuce, shredded\nTomatoes, diced\nCheddar cheese, shredded\nSour cream\nSalsa",
		steps:       "Brown ground beef in a large skillet\nDrain excess fat\nAdd taco seasoning and water according to package\nSimmer until thickened\nWarm taco shells in oven\nFill shells with beef\nTop with lettuce, tomatoes, cheese\nAdd sour cream and salsa\nServe immediately",
	},
	{
		name:        "Pad Thai",
		cuisineType: "Thai",
		ingredients: "200g rice noodles\n200g shrimp or chicken\n2 eggs\n3 tbsp fish sauce\n2 tbsp tamarind paste\n2 tbsp sugar\nBean sprouts\nPeanuts, crushed\nLime wedges\nGreen onions",
		steps:       "Soak rice noodles in warm water for 30 minutes\nHeat oil in wok and scramble eggs, set aside\nStir-fry protein until cooked\nAdd drained noodles to wok\nMix fish sauce, tamarind, and sugar\nPour sauce over noodles and toss\nAdd bean sprouts and eggs\nServe with peanuts, lime, and green onions",
	},
	{
		name:        "French Onion Soup",
		cuisineType: "French",
		ingredients: "4 large onions, thinly sliced\n4 tbsp butter\n1 tsp sugar\n2 cloves garlic\n8 cups beef broth\n1 cup white wine\nFrench bread slices\nGruyere cheese\nFresh thyme",
		steps:       "Melt butter in large pot over medium heat\nAdd onions and sugar, cook for 30-40 minutes until caramelized\nAdd garlic and cook 1 minute\nPour in wine and scrape bottom of pot\nAdd broth and thyme, simmer 30 minutes\nToast bread slices\nLadle soup into oven-safe bowls\nTop with bread and cheese\nBroil until cheese is bubbly and golden",
	},
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	admin, err := ensureUser(db, "Admin User", "admin@example.com", "password", models.RoleAdmin)
	if err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}
	user, err := ensureUser(db, "John Doe", "user@example.com", "password", models.RoleUser)
	if err != nil {
		logger.Fatal("failed to seed regular user", zap.Error(err))
	}

	owners := []*models.User{user, user, admin, admin, user}
	for i, r := range sampleRecipes {
		recipe := models.Recipe{
			Name:        r.name,
			CuisineType: r.cuisineType,
			Ingredients: r.ingredients,
			Steps:       r.steps,
			UserID:      owners[i].ID,
		}
		if err := db.Create(&recipe).Error; err != nil {
			logger.Fatal("failed to seed recipe", zap.String("name", r.name), zap.Error(err))
		}
		logger.Info("seeded recipe", zap.String("name", r.name))
	}

	logger.Info("seeding complete",
		zap.String("admin", admin.Email),
		zap.String("user", user.Email),
		zap.Int("recipes", len(sampleRecipes)))
}

func ensureUser(db *gorm.DB, name, email, password, role string) (*models.User, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
