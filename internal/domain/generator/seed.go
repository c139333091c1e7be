package generator

import "github.com/codrutul/roster/internal/domain/model"

// SampleRoster returns the four characters the roster starts with when seeding is enabled.
func SampleRoster() []model.CharacterInput {
	return []model.CharacterInput{
		{
			Name: "Eldric the Brave", Class: model.ClassWarrior,
			Level: 25, HP: 2500, Damage: 180, Armor: 75, MagicResistance: 40, CriticalChance: 15,
			ImageURL:    DefaultImageURL,
			Description: "A stalwart warrior known for his exceptional bravery and mastery of heavy armor.",
		},
		{
			Name: "Luna Shadowweave", Class: model.ClassRogue,
			Level: 23, HP: 1800, Damage: 220, Armor: 45, MagicResistance: 35, CriticalChance: 25,
			ImageURL:    DefaultImageURL,
			Description: "A cunning rogue who excels in stealth and precision strikes.",
		},
		{
			Name: "Archmage Theron", Class: model.ClassMage,
			Level: 24, HP: 1500, Damage: 250, Armor: 30, MagicResistance: 80, CriticalChance: 10,
			ImageURL:    DefaultImageURL,
			Description: "A powerful mage who has mastered the arcane arts through years of study.",
		},
		{
			Name: "Sylvana Lightbringer", Class: model.ClassPaladin,
			Level: 26, HP: 2200, Damage: 160, Armor: 65, MagicResistance: 60, CriticalChance: 12,
			ImageURL:    DefaultImageURL,
			Description: "A holy warrior who combines martial prowess with divine magic.",
		},
	}
}
