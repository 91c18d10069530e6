package model

// Task categories are a fixed set; bulk promotes, direct adds and template
// items are validated against it.
const (
	CategoryCareer    = "career"
	CategoryLangpulse = "langpulse"
	CategoryHealth    = "health"
	CategoryLife      = "life"
)

// Categories lists every valid category in presentation order.
var Categories = []string{CategoryCareer, CategoryLangpulse, CategoryHealth, CategoryLife}

func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
