package achievements

import "github.com/vytor/flashplay/internal/models"

// Facts is what the rules can see about a finished session. Totals are
// lifetime numbers including the session being evaluated.
type Facts struct {
	Accuracy     int
	CardsStudied int
	Totals       models.UserTotals
}

type Rule struct {
	Code        string
	Title       string
	Description string
	Earned      func(f Facts) bool
}

const (
	PerfectRoundMinCards = 5
	CenturyCards         = 100
	MarathonSessions     = 10
)

var catalog = []Rule{
	{
		Code:        "first_session",
		Title:       "First Steps",
		Description: "Finish your first study session",
		Earned:      func(f Facts) bool { return f.Totals.Sessions >= 1 },
	},
	{
		Code:        "perfect_round",
		Title:       "Perfect Round",
		Description: "Answer every card correctly in a session of at least 5 cards",
		Earned: func(f Facts) bool {
			return f.Accuracy == 100 && f.CardsStudied >= PerfectRoundMinCards
		},
	},
	{
		Code:        "century",
		Title:       "Century",
		Description: "Study 100 cards in total",
		Earned:      func(f Facts) bool { return f.Totals.CardsStudied >= CenturyCards },
	},
	{
		Code:        "marathon",
		Title:       "Marathon",
		Description: "Complete 10 study sessions",
		Earned:      func(f Facts) bool { return f.Totals.Sessions >= MarathonSessions },
	},
}

// Catalog returns every known achievement in display order.
func Catalog() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// Evaluate returns the rules satisfied by f, held or not.
func Evaluate(f Facts) []Rule {
	var out []Rule
	for _, r := range catalog {
		if r.Earned(f) {
			out = append(out, r)
		}
	}
	return out
}

func Lookup(code string) (Rule, bool) {
	for _, r := range catalog {
		if r.Code == code {
			return r, true
		}
	}
	return Rule{}, false
}

func (r Rule) Model() models.Achievement {
	return models.Achievement{Code: r.Code, Title: r.Title, Description: r.Description}
}
