package catalog

import "strings"

// DefaultAisles is the aisle layout seeded for every new store, in sort
// order.
var DefaultAisles = []string{
	"Produce",
	"Dairy",
	"Meat & Seafood",
	"Bakery",
	"Pantry",
	"Frozen",
	"Beverages",
	"Snacks",
	"Household",
	"Other",
}

// SuggestAisle returns the default aisle name for an item created without an
// explicit location. Case-insensitive: exact match first, then substring
// match. Falls back to "Other".
func SuggestAisle(itemName string) string {
	name := NormalizeName(itemName)
	if name == "" {
		return "Other"
	}

	if aisle, ok := exactMatch[name]; ok {
		return aisle
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.aisle
		}
	}

	return "Other"
}

var exactMatch = map[string]string{
	// Produce
	"apple":        "Produce",
	"apples":       "Produce",
	"banana":       "Produce",
	"bananas":      "Produce",
	"orange":       "Produce",
	"oranges":      "Produce",
	"lemon":        "Produce",
	"lemons":       "Produce",
	"lime":         "Produce",
	"limes":        "Produce",
	"avocado":      "Produce",
	"avocados":     "Produce",
	"tomato":       "Produce",
	"tomatoes":     "Produce",
	"potato":       "Produce",
	"potatoes":     "Produce",
	"onion":        "Produce",
	"onions":       "Produce",
	"garlic":       "Produce",
	"lettuce":      "Produce",
	"spinach":      "Produce",
	"kale":         "Produce",
	"broccoli":     "Produce",
	"carrots":      "Produce",
	"celery":       "Produce",
	"cucumber":     "Produce",
	"peppers":      "Produce",
	"mushrooms":    "Produce",
	"grapes":       "Produce",
	"strawberries": "Produce",
	"blueberries":  "Produce",
	"cilantro":     "Produce",
	"basil":        "Produce",
	"ginger":       "Produce",
	"zucchini":     "Produce",

	// Dairy
	"milk":           "Dairy",
	"eggs":           "Dairy",
	"butter":         "Dairy",
	"cheese":         "Dairy",
	"yogurt":         "Dairy",
	"cream cheese":   "Dairy",
	"sour cream":     "Dairy",
	"heavy cream":    "Dairy",
	"cottage cheese": "Dairy",

	// Meat & Seafood
	"chicken": "Meat & Seafood",
	"beef":    "Meat & Seafood",
	"pork":    "Meat & Seafood",
	"turkey":  "Meat & Seafood",
	"bacon":   "Meat & Seafood",
	"sausage": "Meat & Seafood",
	"ham":     "Meat & Seafood",
	"steak":   "Meat & Seafood",
	"salmon":  "Meat & Seafood",
	"shrimp":  "Meat & Seafood",
	"tuna":    "Meat & Seafood",
	"fish":    "Meat & Seafood",

	// Bakery
	"bread":     "Bakery",
	"bagels":    "Bakery",
	"tortillas": "Bakery",
	"rolls":     "Bakery",
	"buns":      "Bakery",
	"muffins":   "Bakery",

	// Pantry
	"rice":          "Pantry",
	"pasta":         "Pantry",
	"flour":         "Pantry",
	"sugar":         "Pantry",
	"salt":          "Pantry",
	"pepper":        "Pantry",
	"olive oil":     "Pantry",
	"vinegar":       "Pantry",
	"soy sauce":     "Pantry",
	"ketchup":       "Pantry",
	"mustard":       "Pantry",
	"mayonnaise":    "Pantry",
	"honey":         "Pantry",
	"peanut butter": "Pantry",
	"cereal":        "Pantry",
	"oatmeal":       "Pantry",
	"soup":          "Pantry",
	"broth":         "Pantry",
	"beans":         "Pantry",
	"lentils":       "Pantry",
	"noodles":       "Pantry",
	"salsa":         "Pantry",

	// Frozen
	"ice cream":      "Frozen",
	"frozen pizza":   "Frozen",
	"frozen veggies": "Frozen",
	"frozen fruit":   "Frozen",
	"popsicles":      "Frozen",

	// Beverages
	"water":           "Beverages",
	"juice":           "Beverages",
	"coffee":          "Beverages",
	"tea":             "Beverages",
	"soda":            "Beverages",
	"beer":            "Beverages",
	"wine":            "Beverages",
	"sparkling water": "Beverages",

	// Snacks
	"chips":        "Snacks",
	"crackers":     "Snacks",
	"cookies":      "Snacks",
	"popcorn":      "Snacks",
	"pretzels":     "Snacks",
	"granola bars": "Snacks",
	"candy":        "Snacks",
	"chocolate":    "Snacks",

	// Household
	"paper towels":      "Household",
	"toilet paper":      "Household",
	"trash bags":        "Household",
	"dish soap":         "Household",
	"laundry detergent": "Household",
	"sponges":           "Household",
	"aluminum foil":     "Household",
}

type substringEntry struct {
	keyword string
	aisle   string
}

// Ordered longer/more-specific first.
var substringMatches = []substringEntry{
	{"chicken breast", "Meat & Seafood"},
	{"ground beef", "Meat & Seafood"},
	{"ground turkey", "Meat & Seafood"},
	{"deli meat", "Meat & Seafood"},
	{"frozen", "Frozen"},
	{"canned", "Pantry"},
	{"chicken", "Meat & Seafood"},
	{"beef", "Meat & Seafood"},
	{"cheese", "Dairy"},
	{"yogurt", "Dairy"},
	{"milk", "Dairy"},
	{"bread", "Bakery"},
	{"juice", "Beverages"},
	{"soap", "Household"},
	{"cleaner", "Household"},
	{"detergent", "Household"},
	{"sauce", "Pantry"},
	{"spice", "Pantry"},
	{"seasoning", "Pantry"},
}
