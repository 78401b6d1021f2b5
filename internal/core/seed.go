package core

// DefaultCategories are offered by the add form on top of the categories
// already in use.
var DefaultCategories = []string{
	"Real Estate",
	"Cars",
	"Watches",
	"Shares",
	"Wine",
	"Art",
	"Crypto",
	"Cash",
}

// SeedAssets returns the sample assets every new session starts with.
// A fresh slice is returned on each call.
func SeedAssets() []Asset {
	return []Asset{
		NewAsset("Villa in Tuscany", "Real Estate", 500000, 2000),
		NewAsset("Tesla Model S", "Cars", 90000, -500),
		NewAsset("Rolex Daytona", "Watches", 40000, 100),
		NewAsset("Apple Shares", "Shares", 120000, 3000),
		NewAsset("Chateau Margaux 2000", "Wine", 10000, 150),
		NewAsset("Monet Painting", "Art", 300000, -2500),
	}
}

// SuggestCategories lists the categories present in assets, in order of
// first appearance, followed by the defaults not already listed.
func SuggestCategories(assets []Asset) []string {
	seen := make(map[string]struct{}, len(assets)+len(DefaultCategories))
	out := make([]string, 0, len(assets)+len(DefaultCategories))
	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, a := range assets {
		add(a.Category)
	}
	for _, c := range DefaultCategories {
		add(c)
	}
	return out
}
