package core

import "strings"

// keyword lists per category, checked in order. First match wins, so the more
// specific delivery/transport buckets come before the generic ones.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Food Delivery", []string{"zomato", "swiggy", "food delivery", "delivery"}},
	{"Food", []string{"domino", "pizza", "restaurant", "food", "dining", "cafe", "grocery"}},
	{"Travel", []string{"uber", "ola", "taxi", "cab", "flight", "train", "hotel"}},
	{"Transport", []string{"metro", "bus", "auto", "rickshaw", "transport", "fuel", "petrol", "diesel"}},
	{"Rent", []string{"rent", "lease", "landlord"}},
	{"Bills", []string{"bill", "recharge", "invoice"}},
	{"Utilities", []string{"electricity", "water", "gas", "broadband", "wifi", "internet"}},
	{"Subscriptions", []string{"netflix", "spotify", "prime", "subscription", "membership"}},
	{"Shopping", []string{"amazon", "flipkart", "myntra", "shopping", "mall", "store"}},
	{"Entertainment", []string{"movie", "cinema", "concert", "game", "party"}},
	{"Healthcare", []string{"hospital", "doctor", "pharmacy", "medicine", "clinic", "medical"}},
	{"Education", []string{"course", "tuition", "school", "college", "book", "udemy"}},
}

// CategorizeDescription guesses a category from free-text using the keyword
// table. Unmatched descriptions fall back to Other.
func CategorizeDescription(description string) string {
	lower := strings.ToLower(description)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.category
			}
		}
	}
	return "Other"
}
