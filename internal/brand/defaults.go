package brand

// defaultConfig is the built-in brand and geography table. Aliases are
// folded with the product-name pipeline at compile time, so «Хайнц» and
// a name containing «ХАЙНЦ» land on the same form. Geography terms are
// stemmed, which lets a single term «мурманск» cover «мурманский» and
// «мурманская»; spellings whose adjective stems differently are listed
// explicitly.
var defaultConfig = Config{
	Brands: []BrandEntry{
		{ID: "heinz", Name: "Heinz", Family: "kraft_heinz", Aliases: []string{"Heinz", "Хайнц"}},
		{ID: "picador", Name: "Picador", Family: "kraft_heinz", Aliases: []string{"Picador", "Пикадор"}},
		{ID: "makheev", Name: "Махеевъ", Family: "essen", Aliases: []string{"Махеевъ", "Махеев", "Makheev"}},
		{ID: "mr_ricco", Name: "Mr.Ricco", Family: "essen", Aliases: []string{"Mr.Ricco", "Мистер Рикко"}},
		{ID: "barilla", Name: "Barilla", Aliases: []string{"Barilla", "Барилла"}},
		{ID: "makfa", Name: "Макфа", Aliases: []string{"Makfa", "Макфа"}},
		{ID: "prostokvashino", Name: "Простоквашино", Family: "danone", Aliases: []string{"Простоквашино"}},
		{ID: "danone", Name: "Danone", Family: "danone", Aliases: []string{"Danone", "Данон"}},
		{ID: "domik_v_derevne", Name: "Домик в деревне", Aliases: []string{"Домик в деревне"}},
		{ID: "ekomilk", Name: "Экомилк", Aliases: []string{"Экомилк", "Ekomilk"}},
		{ID: "miratorg", Name: "Мираторг", Aliases: []string{"Мираторг", "Miratorg"}},
		{ID: "cherkizovo", Name: "Черкизово", Aliases: []string{"Черкизово"}},
		{ID: "petelinka", Name: "Петелинка", Aliases: []string{"Петелинка"}},
		{ID: "bonduelle", Name: "Bonduelle", Aliases: []string{"Bonduelle", "Бондюэль"}},
	},
	Geography: []GeoEntry{
		// Countries.
		{Terms: []string{"Россия", "российский"}, Country: "Россия"},
		{Terms: []string{"Беларусь", "белорусский"}, Country: "Беларусь"},
		{Terms: []string{"Китай", "китайский"}, Country: "Китай"},
		{Terms: []string{"Чили", "чилийский"}, Country: "Чили"},
		{Terms: []string{"Эквадор", "эквадорский"}, Country: "Эквадор"},
		{Terms: []string{"Турция", "турецкий"}, Country: "Турция"},
		{Terms: []string{"Вьетнам", "вьетнамский"}, Country: "Вьетнам"},
		{Terms: []string{"Аргентина", "аргентинский"}, Country: "Аргентина"},
		{Terms: []string{"Марокко", "марокканский"}, Country: "Марокко"},
		{Terms: []string{"фарерский"}, Country: "Фарерские острова"},
		// Regions.
		{Terms: []string{"краснодарский", "Кубань", "кубанский"}, Country: "Россия", Region: "Краснодарский край"},
		{Terms: []string{"Алтай", "алтайский"}, Country: "Россия", Region: "Алтайский край"},
		{Terms: []string{"Камчатка", "камчатский"}, Country: "Россия", Region: "Камчатский край"},
		{Terms: []string{"Карелия", "карельский"}, Country: "Россия", Region: "Карелия"},
		// Cities.
		{Terms: []string{"Мурманск"}, Country: "Россия", Region: "Мурманская область", City: "Мурманск"},
		{Terms: []string{"Астрахань", "астраханский"}, Country: "Россия", Region: "Астраханская область", City: "Астрахань"},
		{Terms: []string{"Владивосток"}, Country: "Россия", Region: "Приморский край", City: "Владивосток"},
	},
	OriginExclusions: map[string][]string{
		// Chili the pepper, not Chile the country.
		"чили": {"перец", "соус", "острый", "кетчуп"},
		// «Сыр Российский» is a variety, not a declaration of origin.
		"российский": {"сыр"},
	},
}
