package guard

// defaultConfig is the built-in guard policy for the Russian grocery
// assortment. Word lists are written in dictionary form and stemmed at
// compile time. Unit price floors are wholesale rubles per kilogram,
// liter or piece and exist to catch catalog data errors, not to judge
// deals.
var defaultConfig = Config{
	Mutex: map[string][]string{
		"seafood": {"meat", "poultry"},
		"meat":    {"seafood", "poultry", "dairy"},
		"poultry": {"seafood", "meat"},
		"dairy":   {"meat"},
	},
	Forbidden: map[string][]string{
		"seafood": {"имитация", "сурими", "паштет", "закуска"},
		"meat":    {"соевый", "заменитель", "паштет"},
		"poultry": {"заменитель", "паштет"},
		"dairy":   {"заменитель", "растительный"},
		"oils":    {"косметическое", "массажное"},
	},
	Anchors: map[string][]string{
		"dairy":     {"молоко", "сыр", "творог", "сметана", "кефир", "йогурт", "сливки", "ряженка", "масло", "моцарелла", "пармезан", "простокваша"},
		"sauces":    {"кетчуп", "соус", "майонез", "горчица", "аджика", "паста"},
		"oils":      {"масло", "маргарин", "спред"},
		"bakery":    {"хлеб", "батон", "булка", "булочка", "лаваш", "багет", "сухари"},
		"eggs":      {"яйцо", "яйца", "меланж"},
		"beverages": {"сок", "вода", "напиток", "чай", "кофе", "морс", "квас"},
	},
	Wide: []string{"seafood", "meat", "poultry", "vegetables", "fruits", "pasta_grains", "spices", "canned"},
	Qualifiers: []string{
		"филе", "тушка", "стейк", "фарш", "грудка", "бедро", "голень",
		"крыло", "кольца", "щупальца", "вырезка", "окорочок", "окорочка", "целый",
	},
	// Pair forms are substring prefixes so inflected endings still match:
	// «очищенн» covers «очищенные» and «очищенных».
	AttributePairs: []AttributePair{
		{Positive: "очищенн", Negative: "неочищенн"},
		{Positive: "с хвост", Negative: "без хвост"},
		{Positive: "с кож", Negative: "без кож"},
		{Positive: "на кост", Negative: "без кост"},
		{Positive: "н/к", Negative: "б/к"},
		{Positive: "солен", Negative: "несолен"},
		{Positive: "с сахар", Negative: "без сахар"},
		{Positive: "газированн", Negative: "негазированн"},
	},
	MinUnitPrice: map[string]float64{
		"seafood":      100,
		"meat":         100,
		"poultry":      60,
		"dairy":        30,
		"sauces":       40,
		"oils":         50,
		"vegetables":   10,
		"fruits":       20,
		"pasta_grains": 25,
		"spices":       20,
		"canned":       50,
		"bakery":       10,
		"eggs":         3,
		"beverages":    15,
	},
	PremiumMarkers:      []string{"премиум", "экстра", "отборный", "люкс", "элитный", "premium", "deluxe"},
	CheapFactor:         5,
	OriginEligible:      []string{"seafood", "meat", "poultry", "vegetables", "fruits"},
	PackToleranceStrict: 0.20,
	PackToleranceRescue: 0.50,
}
