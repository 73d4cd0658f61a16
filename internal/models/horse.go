// internal/models/horse.go
package models

const EntityHorse = "horse"

// Activity is one discipline a horse competes or works in.
type Activity struct {
	Activity string `json:"activity"`
	Level    string `json:"level"`
}

// Horse is a horse registration profile.
type Horse struct {
	Name         string     `form:"name,kind=text" json:"name"`
	Breed        string     `form:"breed,kind=enum,options=arabian|thoroughbred|quarter_horse|andalusian|friesian|warmblood|other" json:"breed"`
	BirthDate    string     `form:"birthDate,kind=date" json:"birthDate"`
	Gender       string     `form:"gender,kind=enum,options=stallion|mare|gelding" json:"gender"`
	Color        string     `form:"color,kind=text" json:"color"`
	Height       string     `form:"height,kind=number" json:"height"`
	Bio          string     `form:"bio,kind=textarea" json:"bio"`
	Activities   []Activity `form:"activities,kind=subrecords" json:"activities"`
	Images       []*Upload  `form:"images,kind=images" json:"images"`
	PedigreeLink string     `form:"pedigreeLink,kind=url" json:"pedigreeLink"`
	MarketValue  string     `form:"marketValue,kind=number" json:"marketValue"`
	Location     string     `form:"location,kind=text" json:"location"`
	ProfileLevel string     `form:"profileLevel,kind=enum,unset=basic,options=basic|bronze|silver|gold" json:"profileLevel"`
}

func (*Horse) EntityType() string { return EntityHorse }

// NewHorse returns a draft with form defaults.
func NewHorse() *Horse {
	return &Horse{
		Activities:   []Activity{},
		Images:       []*Upload{},
		ProfileLevel: "basic",
	}
}

func init() {
	register(Entity{
		Type:       EntityHorse,
		OwnerField: "owner",
		TierField:  "profileLevel",
		New:        func() Record { return NewHorse() },
	})
}
