package quiz

// Default study content, used to seed fresh databases and to back the
// in-memory content repository in tests. Real deployments replace this
// through the content tables.

func DefaultCardSets() []CardSet {
	return []CardSet{
		{
			ID:   "steaks",
			Name: "Steaks",
			Cards: []Flashcard{
				{SetID: "steaks", Front: "Ribeye", Back: "16oz bone-in, most marbled cut"},
				{SetID: "steaks", Front: "Filet", Back: "8oz center cut tenderloin"},
				{SetID: "steaks", Front: "NY Strip", Back: "14oz, firm texture, rich flavor"},
				{SetID: "steaks", Front: "Medium rare", Back: "Warm red center, 130-135F"},
				{SetID: "steaks", Front: "Medium", Back: "Warm pink center, 135-145F"},
				{SetID: "steaks", Front: "Steak resting time", Back: "5 minutes before serving"},
			},
		},
		{
			ID:   "bar",
			Name: "Bar & Beer",
			Cards: []Flashcard{
				{SetID: "bar", Front: "IPA", Back: "Hop-forward ale, bitter finish"},
				{SetID: "bar", Front: "Stout", Back: "Dark roasted malt, creamy body"},
				{SetID: "bar", Front: "Old Fashioned", Back: "Bourbon, sugar, bitters, orange peel"},
				{SetID: "bar", Front: "Margarita", Back: "Tequila, triple sec, lime, salt rim"},
				{SetID: "bar", Front: "Draft pour", Back: "45 degree tilt, one inch head"},
			},
		},
		{
			ID:   "wines",
			Name: "Wines",
			Cards: []Flashcard{
				{SetID: "wines", Front: "Cabernet Sauvignon", Back: "Full-bodied red, dark fruit, firm tannin"},
				{SetID: "wines", Front: "Pinot Noir", Back: "Light-bodied red, cherry, earthy"},
				{SetID: "wines", Front: "Chardonnay", Back: "Full white, oak and butter notes"},
				{SetID: "wines", Front: "Sauvignon Blanc", Back: "Crisp white, citrus and grass"},
				{SetID: "wines", Front: "Red wine service", Back: "Serve at 60-65F, decant big reds"},
			},
		},
		{
			ID:   "soups",
			Name: "Soups",
			Cards: []Flashcard{
				{SetID: "soups", Front: "French Onion", Back: "Caramelized onion, gruyere crouton"},
				{SetID: "soups", Front: "Lobster Bisque", Back: "Cream base, sherry, lobster stock"},
				{SetID: "soups", Front: "Soup of the day", Back: "Rotates daily, check the board"},
			},
		},
		{
			ID:   "bonus",
			Name: "Bonus Practice",
			Cards: []Flashcard{
				{SetID: "bonus", Front: "Greeting window", Back: "Greet every table within 60 seconds"},
				{SetID: "bonus", Front: "Allergy protocol", Back: "Flag the ticket and tell the chef directly"},
			},
		},
	}
}

func DefaultQuestionBanks() []QuestionBank {
	return []QuestionBank{
		{
			TestID: TestSteaks,
			SetID:  "steaks",
			Questions: []Question{
				{Prompt: "Which cut is the most marbled?", Options: []string{"Filet", "Ribeye", "NY Strip"}, Answer: 1},
				{Prompt: "How is the filet prepared?", Options: []string{"8oz center cut tenderloin", "16oz bone-in", "Flank, butterflied"}, Answer: 0},
				{Prompt: "What internal temp is medium rare?", Options: []string{"Warm red center, 130-135F", "Warm pink center, 135-145F", "120F cool center"}, Answer: 0},
				{Prompt: "How long does a steak rest before serving?", Options: []string{"No rest", "5 minutes before serving", "15 minutes"}, Answer: 1},
				{Prompt: "Which steak is 14oz with a firm texture?", Options: []string{"NY Strip", "Ribeye", "Filet"}, Answer: 0},
			},
		},
		{
			TestID: TestBar,
			SetID:  "bar",
			Questions: []Question{
				{Prompt: "What defines an IPA?", Options: []string{"Dark roasted malt", "Hop-forward ale, bitter finish", "Wheat base, citrus"}, Answer: 1},
				{Prompt: "What goes in an Old Fashioned?", Options: []string{"Bourbon, sugar, bitters, orange peel", "Gin, vermouth, olive", "Rum, mint, lime"}, Answer: 0},
				{Prompt: "How do you pour a draft beer?", Options: []string{"Straight down the middle", "45 degree tilt, one inch head", "No head at all"}, Answer: 1},
				{Prompt: "Which cocktail gets a salt rim?", Options: []string{"Margarita", "Old Fashioned", "Manhattan"}, Answer: 0},
			},
		},
		{
			TestID: TestWines,
			SetID:  "wines",
			Questions: []Question{
				{Prompt: "Which red is full-bodied with firm tannin?", Options: []string{"Pinot Noir", "Cabernet Sauvignon"}, Answer: 1},
				{Prompt: "Which white shows oak and butter notes?", Options: []string{"Chardonnay", "Sauvignon Blanc"}, Answer: 0},
				{Prompt: "At what temperature are reds served?", Options: []string{"Serve at 60-65F, decant big reds", "Ice cold", "Room temperature, never decant"}, Answer: 0},
				{Prompt: "Which wine is crisp with citrus and grass?", Options: []string{"Sauvignon Blanc", "Chardonnay", "Pinot Noir"}, Answer: 0},
			},
		},
		{
			TestID: TestSoups,
			SetID:  "soups",
			Questions: []Question{
				{Prompt: "What tops the French Onion soup?", Options: []string{"Caramelized onion, gruyere crouton", "Sour cream", "Croutons only"}, Answer: 0},
				{Prompt: "What is the base of the Lobster Bisque?", Options: []string{"Tomato broth", "Cream base, sherry, lobster stock"}, Answer: 1},
				{Prompt: "How do you know today's soup?", Options: []string{"Rotates daily, check the board", "Always French Onion"}, Answer: 0},
			},
		},
		{
			TestID: TestBonus,
			SetID:  "bonus",
			Questions: []Question{
				{Prompt: "How fast must a table be greeted?", Options: []string{"Greet every table within 60 seconds", "Within 5 minutes"}, Answer: 0},
				{Prompt: "A guest reports a shellfish allergy. What do you do?", Options: []string{"Note it mentally", "Flag the ticket and tell the chef directly"}, Answer: 1},
			},
		},
	}
}
