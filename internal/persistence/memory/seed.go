package memory

import "github.com/Alish28/NutriAI/internal/nutrition"

// DemoUserID is the profile seeded for local development.
const DemoUserID = "demo-user"

// Seed loads a starter catalog and a demo profile.
func (r *Repository) Seed() {
	for _, t := range starterCatalog() {
		r.AddTemplate(t)
	}

	age, weight, height, budget := 29, 68.0, 172.0, 15.0
	r.AddUser(nutrition.UserProfile{
		UserID:            DemoUserID,
		Age:               &age,
		WeightKg:          &weight,
		HeightCm:          &height,
		Gender:            nutrition.GenderFemale,
		ActivityLevel:     "Lightly Active",
		HealthGoals:       []string{nutrition.GoalHeartHealth},
		PreferredCuisines: []string{"Mediterranean"},
		DailyBudget:       &budget,
	})
}

func starterCatalog() []nutrition.MealTemplate {
	return []nutrition.MealTemplate{
		{ID: "tpl-overnight-oats", Name: "Overnight Oats with Berries", MealType: "breakfast", Calories: 380, Protein: 14, Carbs: 62, Fats: 9,
			DietaryTags: []string{"vegetarian"}, Ingredients: []string{"rolled oats", "milk", "blueberries", "chia seeds"},
			CuisineType: "American", EstimatedCost: 3.5, PopularityScore: 82, IsActive: true},
		{ID: "tpl-veggie-omelette", Name: "Veggie Omelette", MealType: "breakfast", Calories: 310, Protein: 22, Carbs: 8, Fats: 20,
			DietaryTags: []string{"vegetarian", "gluten-free"}, Ingredients: []string{"eggs", "spinach", "bell pepper", "feta"},
			CuisineType: "Mediterranean", EstimatedCost: 4, PopularityScore: 77, IsActive: true},
		{ID: "tpl-tofu-scramble", Name: "Tofu Scramble", MealType: "breakfast", Calories: 290, Protein: 21, Carbs: 12, Fats: 17,
			DietaryTags: []string{"vegan", "vegetarian", "gluten-free"}, Ingredients: []string{"firm tofu", "turmeric", "onion", "kale"},
			CuisineType: "American", EstimatedCost: 3.8, PopularityScore: 64, IsActive: true},
		{ID: "tpl-grilled-chicken-salad", Name: "Grilled Chicken Salad", MealType: "lunch", Calories: 420, Protein: 38, Carbs: 18, Fats: 20,
			DietaryTags: []string{"gluten-free"}, Ingredients: []string{"chicken breast", "romaine", "cherry tomatoes", "olive oil"},
			CuisineType: "Mediterranean", EstimatedCost: 7.5, PopularityScore: 88, IsActive: true},
		{ID: "tpl-lentil-curry", Name: "Red Lentil Curry", MealType: "lunch", Calories: 480, Protein: 24, Carbs: 70, Fats: 11,
			DietaryTags: []string{"vegan", "vegetarian"}, Ingredients: []string{"red lentils", "coconut milk", "tomato", "rice"},
			CuisineType: "Indian", EstimatedCost: 4.2, PopularityScore: 79, IsActive: true},
		{ID: "tpl-falafel-wrap", Name: "Falafel Wrap", MealType: "lunch", Calories: 540, Protein: 19, Carbs: 66, Fats: 22,
			DietaryTags: []string{"vegan", "vegetarian"}, Ingredients: []string{"chickpeas", "tahini", "pita", "cucumber"},
			CuisineType: "Middle Eastern", EstimatedCost: 6, PopularityScore: 71, IsActive: true},
		{ID: "tpl-salmon-quinoa", Name: "Baked Salmon with Quinoa", MealType: "dinner", Calories: 560, Protein: 40, Carbs: 42, Fats: 24,
			DietaryTags: []string{"pescatarian", "gluten-free"}, Ingredients: []string{"salmon", "quinoa", "asparagus", "lemon"},
			CuisineType: "Mediterranean", EstimatedCost: 11, PopularityScore: 90, IsActive: true},
		{ID: "tpl-turkey-chili", Name: "Turkey Chili", MealType: "dinner", Calories: 450, Protein: 36, Carbs: 38, Fats: 14,
			DietaryTags: []string{"gluten-free"}, Ingredients: []string{"ground turkey", "kidney beans", "tomato", "chili powder"},
			CuisineType: "Mexican", EstimatedCost: 6.5, PopularityScore: 74, IsActive: true},
		{ID: "tpl-veggie-stir-fry", Name: "Tofu Veggie Stir Fry", MealType: "dinner", Calories: 430, Protein: 23, Carbs: 48, Fats: 15,
			DietaryTags: []string{"vegan", "vegetarian"}, Ingredients: []string{"tofu", "broccoli", "soy sauce", "brown rice"},
			CuisineType: "Chinese", EstimatedCost: 5, PopularityScore: 69, IsActive: true},
		{ID: "tpl-greek-yogurt", Name: "Greek Yogurt with Honey", MealType: "snack", Calories: 180, Protein: 15, Carbs: 20, Fats: 4,
			DietaryTags: []string{"vegetarian", "gluten-free"}, Ingredients: []string{"greek yogurt", "honey", "walnuts"},
			CuisineType: "Mediterranean", EstimatedCost: 2.5, PopularityScore: 80, IsActive: true},
		{ID: "tpl-hummus-veg", Name: "Hummus and Veggie Sticks", MealType: "snack", Calories: 160, Protein: 6, Carbs: 18, Fats: 8,
			DietaryTags: []string{"vegan", "vegetarian", "gluten-free"}, Ingredients: []string{"chickpeas", "tahini", "carrot", "celery"},
			CuisineType: "Middle Eastern", EstimatedCost: 2, PopularityScore: 72, IsActive: true},
		{ID: "tpl-protein-bar", Name: "Peanut Protein Bar", MealType: "snack", Calories: 220, Protein: 20, Carbs: 22, Fats: 8,
			DietaryTags: []string{"vegetarian"}, Ingredients: []string{"peanuts", "whey protein", "oats"},
			CuisineType: "American", EstimatedCost: 2.8, PopularityScore: 55, IsActive: false},
	}
}
