package domain

import "strings"

// Rarity card rarity tier, ordered from lowest to highest.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityUltraRare
	RarityEpic
	RarityLegendary
)

type rarityInfo struct {
	name  string
	emoji string
	color int
}

var rarityTable = [...]rarityInfo{
	RarityCommon:    {name: "common", emoji: ":white_circle:", color: 0xe6e7e8},
	RarityUncommon:  {name: "uncommon", emoji: ":green_circle:", color: 0x78b159},
	RarityRare:      {name: "rare", emoji: ":blue_circle:", color: 0x54acee},
	RarityUltraRare: {name: "ultra-rare", emoji: ":purple_circle:", color: 0xa98ed6},
	RarityEpic:      {name: "epic", emoji: ":red_circle:", color: 0xdd2d44},
	RarityLegendary: {name: "legendary", emoji: ":yellow_circle:", color: 0xfdcb58},
}

// ParseRarity maps a card category to its tier. Unknown categories map to common
// and report ok=false.
func ParseRarity(category string) (Rarity, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	for i, info := range rarityTable {
		if info.name == c {
			return Rarity(i), true
		}
	}
	return RarityCommon, false
}

// IsValid reports whether r is a known tier.
func (r Rarity) IsValid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

func (r Rarity) info() rarityInfo {
	if !r.IsValid() {
		return rarityTable[RarityCommon]
	}
	return rarityTable[r]
}

// String returns the category name of the tier.
func (r Rarity) String() string {
	return r.info().name
}

// Emoji returns the display emoji of the tier.
func (r Rarity) Emoji() string {
	return r.info().emoji
}

// Color returns the accent color of the tier as 0xRRGGBB.
func (r Rarity) Color() int {
	return r.info().color
}
