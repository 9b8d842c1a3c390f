package models

// AgeBand is the age category of a single attendee. It is the only age
// vocabulary stored or accepted on input.
type AgeBand string

const (
	AgeUnder5 AgeBand = "under5"
	Age5To12  AgeBand = "age5to12"
	Age12Plus AgeBand = "age12plus"
)

// AgeGroup is the coarser grouping meal choices and selection counts are
// checked against.
type AgeGroup string

const (
	GroupUnder5 AgeGroup = "under5"
	GroupOver5  AgeGroup = "over5"
)

var ageGroups = map[AgeBand]AgeGroup{
	AgeUnder5: GroupUnder5,
	Age5To12:  GroupOver5,
	Age12Plus: GroupOver5,
}

func (b AgeBand) Valid() bool {
	_, ok := ageGroups[b]
	return ok
}

func (b AgeBand) Group() AgeGroup {
	return ageGroups[b]
}

type MealChoice string

const (
	MealNuggetsAndChips MealChoice = "nuggets-and-chips"
	MealNotRequired     MealChoice = "not-required"
	MealRiceAndCurry    MealChoice = "rice-and-curry"
	MealBurger          MealChoice = "burger-meal"
)

var mealChoices = map[AgeGroup][]MealChoice{
	GroupUnder5: {MealNuggetsAndChips, MealNotRequired},
	GroupOver5:  {MealRiceAndCurry, MealBurger},
}

// MealChoicesFor lists the choices offered to the given group.
func MealChoicesFor(g AgeGroup) []MealChoice {
	return append([]MealChoice(nil), mealChoices[g]...)
}

func (b AgeBand) Allows(c MealChoice) bool {
	for _, allowed := range mealChoices[b.Group()] {
		if allowed == c {
			return true
		}
	}
	return false
}

type MealSelection struct {
	AgeCategory AgeBand    `json:"age_category"`
	PersonIndex int        `json:"person_index"`
	MealChoice  MealChoice `json:"meal_choice"`
}
