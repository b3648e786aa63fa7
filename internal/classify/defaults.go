package classify

// defaultConfig is the built-in rule table for a Russian HoReCa grocery
// assortment. Keywords are written in dictionary form; the compiler stems
// them with the same stemmer applied to product names, so inflected forms
// in real names ("креветки", "кетчупы") land on the same stem. Patterns
// run against the folded name and exist for word families and for cases
// where word order or co-occurrence matters ("масло сливочное" is dairy,
// "масло подсолнечное" is oil).
//
// Priorities: 50 is the generic keyword tier, 100+ are disambiguation
// rules that must win over the generic tier.
var defaultConfig = Config{
	SuperRules: []SuperRule{
		// Disambiguation tier.
		{SuperClass: "sauces", Priority: 120, Confidence: 0.95,
			Patterns: []string{`томатн[а-я]*\s+паст`, `паст[а-я]*\s+томатн`}},
		{SuperClass: "dairy", Priority: 120, Confidence: 0.95,
			Patterns: []string{`масл[а-я]*\s+сливочн`, `сливочн[а-я]*\s+масл`}},
		{SuperClass: "oils", Priority: 120, Confidence: 0.95,
			Patterns: []string{`масл[а-я]*\s+(подсолнечн|оливков|растительн|кукурузн|рапсов)`, `(подсолнечн|оливков|растительн)[а-я]*\s+масл`}},
		{SuperClass: "spices", Priority: 120, Confidence: 0.95,
			Patterns: []string{`перец\s+(черн|душист|красн|белы|молот|горошк)`, `перц[а-я]*\s+(черн|душист|молот)`}},
		{SuperClass: "vegetables", Priority: 118, Confidence: 0.95,
			Patterns: []string{`перец\s+чили`, `перец\s+болгарск`, `перец\s+сладк`}},
		{SuperClass: "beverages", Priority: 110, Confidence: 0.9,
			Keywords: []string{"сок", "вода", "напиток", "чай", "кофе", "морс", "квас"}},
		{SuperClass: "canned", Priority: 105, Confidence: 0.9,
			Patterns: []string{`консерв`, `маринованн`, `в\s+собственном\s+соку`}},

		// Generic tier.
		{SuperClass: "seafood", Priority: 50, Confidence: 0.9,
			Keywords: []string{
				"кальмар", "креветка", "креветки", "треска", "лосось", "семга",
				"форель", "сельдь", "минтай", "горбуша", "тунец", "окунь",
				"икра", "краб", "мидии", "устрицы", "осьминог", "гребешок", "рыба",
			}},
		{SuperClass: "meat", Priority: 50, Confidence: 0.9,
			Keywords: []string{"говядина", "свинина", "баранина", "телятина", "фарш", "вырезка", "ребра", "шея", "лопатка"}},
		{SuperClass: "poultry", Priority: 50, Confidence: 0.9,
			Keywords: []string{
				"курица", "куриный", "куриная", "цыпленок", "цыпленка", "индейка",
				"грудка", "бедро", "голень", "окорочок", "окорочка", "крыло", "крылья", "тушка",
			}},
		{SuperClass: "dairy", Priority: 50, Confidence: 0.9,
			Keywords: []string{
				"молоко", "сыр", "творог", "сметана", "кефир", "йогурт",
				"ряженка", "сливки", "простокваша", "моцарелла", "пармезан",
			}},
		{SuperClass: "sauces", Priority: 50, Confidence: 0.9,
			Keywords: []string{"кетчуп", "соус", "майонез", "горчица", "аджика", "терияки"}},
		{SuperClass: "pasta_grains", Priority: 50, Confidence: 0.9,
			Keywords: []string{"макароны", "спагетти", "пенне", "фузилли", "лапша", "рис", "гречка", "крупа", "мука", "овсянка", "пшено", "булгур"}},
		{SuperClass: "spices", Priority: 50, Confidence: 0.9,
			Keywords: []string{"соль", "сахар", "специи", "приправа", "паприка", "куркума", "корица", "орегано", "базилик", "лавровый", "ванилин"}},
		{SuperClass: "vegetables", Priority: 50, Confidence: 0.9,
			Keywords: []string{
				"огурец", "огурцы", "помидор", "помидоры", "томаты", "картофель",
				"лук", "морковь", "капуста", "свекла", "кабачок", "баклажан",
				"чеснок", "зелень", "салат", "укроп", "петрушка", "шампиньоны", "грибы",
			}},
		{SuperClass: "fruits", Priority: 50, Confidence: 0.9,
			Keywords: []string{"яблоко", "яблоки", "банан", "апельсин", "лимон", "груша", "виноград", "мандарин", "киви", "ананас"}},
		{SuperClass: "oils", Priority: 50, Confidence: 0.85,
			Keywords: []string{"маргарин", "спред"}},
		{SuperClass: "bakery", Priority: 50, Confidence: 0.9,
			Keywords: []string{"хлеб", "батон", "булка", "булочка", "лаваш", "багет", "сухари"}},
		{SuperClass: "eggs", Priority: 50, Confidence: 0.9,
			Keywords: []string{"яйцо", "яйца", "меланж"}},
	},
	CoreRules: []CoreRule{
		// seafood
		{CoreID: "squid", SuperClass: "seafood", Priority: 50, Keywords: []string{"кальмар"}},
		{CoreID: "shrimp", SuperClass: "seafood", Priority: 50, Keywords: []string{"креветка", "креветки"}},
		{CoreID: "cod", SuperClass: "seafood", Priority: 50, Keywords: []string{"треска"}},
		{CoreID: "salmon", SuperClass: "seafood", Priority: 50, Keywords: []string{"лосось", "семга"}},
		{CoreID: "trout", SuperClass: "seafood", Priority: 50, Keywords: []string{"форель"}},
		{CoreID: "herring", SuperClass: "seafood", Priority: 50, Keywords: []string{"сельдь", "селедка"}},
		{CoreID: "pollock", SuperClass: "seafood", Priority: 50, Keywords: []string{"минтай"}},
		{CoreID: "pink_salmon", SuperClass: "seafood", Priority: 50, Keywords: []string{"горбуша"}},
		{CoreID: "tuna", SuperClass: "seafood", Priority: 50, Keywords: []string{"тунец", "тунца"}},
		{CoreID: "crab_sticks", SuperClass: "seafood", Priority: 100, Patterns: []string{`крабов[а-я]*\s+палочк`}},
		{CoreID: "caviar", SuperClass: "seafood", Priority: 50, Keywords: []string{"икра"}},
		{CoreID: "mussels", SuperClass: "seafood", Priority: 50, Keywords: []string{"мидии"}},

		// meat
		{CoreID: "beef", SuperClass: "meat", Priority: 50, Keywords: []string{"говядина"}},
		{CoreID: "pork", SuperClass: "meat", Priority: 50, Keywords: []string{"свинина"}},
		{CoreID: "lamb", SuperClass: "meat", Priority: 50, Keywords: []string{"баранина"}},
		{CoreID: "veal", SuperClass: "meat", Priority: 50, Keywords: []string{"телятина"}},
		{CoreID: "mince", SuperClass: "meat", Priority: 60, Keywords: []string{"фарш"}},

		// poultry
		{CoreID: "chicken_breast", SuperClass: "poultry", Priority: 60, Keywords: []string{"грудка"}},
		{CoreID: "chicken_thigh", SuperClass: "poultry", Priority: 60, Keywords: []string{"бедро", "бедра"}},
		{CoreID: "chicken_drumstick", SuperClass: "poultry", Priority: 60, Keywords: []string{"голень"}},
		{CoreID: "chicken_wing", SuperClass: "poultry", Priority: 60, Keywords: []string{"крыло", "крылья"}},
		{CoreID: "chicken_whole", SuperClass: "poultry", Priority: 55, Keywords: []string{"тушка", "цыпленок", "цыпленка"}},
		{CoreID: "turkey", SuperClass: "poultry", Priority: 65, Keywords: []string{"индейка"}},
		{CoreID: "chicken_fillet", SuperClass: "poultry", Priority: 50, Keywords: []string{"филе"}},

		// dairy
		{CoreID: "milk", SuperClass: "dairy", Priority: 50, Keywords: []string{"молоко"}},
		{CoreID: "butter", SuperClass: "dairy", Priority: 100, Patterns: []string{`масл[а-я]*\s+сливочн`, `сливочн[а-я]*\s+масл`}},
		{CoreID: "cheese", SuperClass: "dairy", Priority: 50, Keywords: []string{"сыр", "моцарелла", "пармезан"}},
		{CoreID: "cottage_cheese", SuperClass: "dairy", Priority: 60, Keywords: []string{"творог"}},
		{CoreID: "sour_cream", SuperClass: "dairy", Priority: 50, Keywords: []string{"сметана"}},
		{CoreID: "kefir", SuperClass: "dairy", Priority: 50, Keywords: []string{"кефир"}},
		{CoreID: "yogurt", SuperClass: "dairy", Priority: 50, Keywords: []string{"йогурт"}},
		{CoreID: "cream", SuperClass: "dairy", Priority: 50, Keywords: []string{"сливки"}},

		// sauces
		{CoreID: "ketchup", SuperClass: "sauces", Priority: 60, Keywords: []string{"кетчуп"}},
		{CoreID: "tomato_paste", SuperClass: "sauces", Priority: 100,
			Patterns: []string{`томатн[а-я]*\s+паст`, `паст[а-я]*\s+томатн`}, Forbidden: []string{"кетчуп"}},
		{CoreID: "mayonnaise", SuperClass: "sauces", Priority: 60, Keywords: []string{"майонез"}},
		{CoreID: "mustard", SuperClass: "sauces", Priority: 60, Keywords: []string{"горчица"}},
		{CoreID: "soy_sauce", SuperClass: "sauces", Priority: 70, Patterns: []string{`соус[а-я]*\s+соев`, `соев[а-я]*\s+соус`}},

		// pasta and grains
		{CoreID: "pasta", SuperClass: "pasta_grains", Priority: 50, Keywords: []string{"макароны", "спагетти", "пенне", "фузилли", "лапша"}},
		{CoreID: "rice", SuperClass: "pasta_grains", Priority: 50, Keywords: []string{"рис"}},
		{CoreID: "buckwheat", SuperClass: "pasta_grains", Priority: 50, Keywords: []string{"гречка"}},
		{CoreID: "flour", SuperClass: "pasta_grains", Priority: 50, Keywords: []string{"мука"}},

		// spices
		{CoreID: "salt", SuperClass: "spices", Priority: 50, Keywords: []string{"соль"}},
		{CoreID: "sugar", SuperClass: "spices", Priority: 50, Keywords: []string{"сахар"}},
		{CoreID: "black_pepper", SuperClass: "spices", Priority: 60, Patterns: []string{`перец\s+черн`, `перц[а-я]*\s+черн`}},
		{CoreID: "paprika", SuperClass: "spices", Priority: 50, Keywords: []string{"паприка"}},

		// vegetables
		{CoreID: "cucumber", SuperClass: "vegetables", Priority: 50, Keywords: []string{"огурец", "огурцы"}},
		{CoreID: "tomato", SuperClass: "vegetables", Priority: 50, Keywords: []string{"помидор", "помидоры", "томаты"}},
		{CoreID: "potato", SuperClass: "vegetables", Priority: 50, Keywords: []string{"картофель"}},
		{CoreID: "onion", SuperClass: "vegetables", Priority: 50, Keywords: []string{"лук"}},
		{CoreID: "carrot", SuperClass: "vegetables", Priority: 50, Keywords: []string{"морковь"}},
		{CoreID: "cabbage", SuperClass: "vegetables", Priority: 50, Keywords: []string{"капуста"}},
		{CoreID: "bell_pepper", SuperClass: "vegetables", Priority: 60, Patterns: []string{`перец\s+болгарск`, `перец\s+сладк`}},
		{CoreID: "chili_pepper", SuperClass: "vegetables", Priority: 60, Patterns: []string{`перец\s+чили`}},
		{CoreID: "champignon", SuperClass: "vegetables", Priority: 55, Keywords: []string{"шампиньоны"}},

		// fruits
		{CoreID: "apple", SuperClass: "fruits", Priority: 50, Keywords: []string{"яблоко", "яблоки"}},
		{CoreID: "banana", SuperClass: "fruits", Priority: 50, Keywords: []string{"банан"}},
		{CoreID: "orange", SuperClass: "fruits", Priority: 50, Keywords: []string{"апельсин"}},
		{CoreID: "lemon", SuperClass: "fruits", Priority: 50, Keywords: []string{"лимон"}},

		// oils
		{CoreID: "sunflower_oil", SuperClass: "oils", Priority: 60, Patterns: []string{`масл[а-я]*\s+подсолнечн`, `подсолнечн[а-я]*\s+масл`}},
		{CoreID: "olive_oil", SuperClass: "oils", Priority: 60, Patterns: []string{`масл[а-я]*\s+оливков`, `оливков[а-я]*\s+масл`}},

		// bakery
		{CoreID: "bread", SuperClass: "bakery", Priority: 50, Keywords: []string{"хлеб", "батон"}},
		{CoreID: "lavash", SuperClass: "bakery", Priority: 55, Keywords: []string{"лаваш"}},

		// beverages
		{CoreID: "juice", SuperClass: "beverages", Priority: 50, Keywords: []string{"сок"}},
		{CoreID: "water", SuperClass: "beverages", Priority: 50, Keywords: []string{"вода"}},
		{CoreID: "tea", SuperClass: "beverages", Priority: 50, Keywords: []string{"чай"}},
		{CoreID: "coffee", SuperClass: "beverages", Priority: 50, Keywords: []string{"кофе"}},

		// eggs
		{CoreID: "egg", SuperClass: "eggs", Priority: 50, Keywords: []string{"яйцо", "яйца"}},
	},
}
