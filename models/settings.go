package models

// LotItem is one physical reward of a top-3 lot
type LotItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"qty"`
}

// GuildSettings binds the bot to one Discord server
type GuildSettings struct {
	GuildID           string `json:"guildId"`
	ResultsChannelID  string `json:"resultsChannelId"`
	AdminLogChannelID string `json:"adminLogChannelId"`
	TopVoterRoleID    string `json:"topVoterRoleId"`
	ModoRoleID        string `json:"modoRoleId"`
}

// RewardSettings drives payout amounts
type RewardSettings struct {
	DiamondsPerVote int64             `json:"diamondsPerVote"`
	TopDiamonds     map[int]int64     `json:"topDiamonds"`
	TopLots         map[int][]LotItem `json:"topLots"`
	ReasonLabel     string            `json:"reasonLabel"`
	DisplayTop      int               `json:"displayTop"`
}

// APISettings points at external services
type APISettings struct {
	RankingURL string `json:"topserveursRankingUrl"`
	Timezone   string `json:"timezone"`
}

// StyleSettings holds the emojis used by announcements
type StyleSettings struct {
	EveryonePing bool     `json:"everyonePing"`
	Logo         string   `json:"logo"`
	Fireworks    string   `json:"fireworks"`
	Arrow        string   `json:"arrow"`
	AnimeArrow   string   `json:"animeArrow"`
	Sparkly      string   `json:"sparkly"`
	MemoURL      string   `json:"memoUrl"`
	PlaceIcons   []string `json:"placeIcons"`
}

// MessageSettings holds the editable announcement texts
type MessageSettings struct {
	IntroText     string `json:"introText"`
	CreditText    string `json:"creditText"`
	MemoText      string `json:"memoText"`
	DinoShinyText string `json:"dinoShinyText"`
	DinoTitle     string `json:"dinoTitle"`
	DinoWinText   string `json:"dinoWinText"`
	Pack1Text     string `json:"pack1Text"`
	Pack2Text     string `json:"pack2Text"`
	Pack3Text     string `json:"pack3Text"`
}

// AuthSettings holds dashboard passwords
type AuthSettings struct {
	AdminPassword string `json:"adminPassword"`
	StaffPassword string `json:"staffPassword"`
}

// CatalogueSettings tunes catalogue publishing
type CatalogueSettings struct {
	PageCharBudget int `json:"pageCharBudget"`
}

// Settings is the whole bot configuration document
type Settings struct {
	Guild     GuildSettings     `json:"guild"`
	Rewards   RewardSettings    `json:"rewards"`
	API       APISettings       `json:"api"`
	Style     StyleSettings     `json:"style"`
	Message   MessageSettings   `json:"message"`
	Auth      AuthSettings      `json:"auth"`
	Aliases   map[string]string `json:"aliases"`
	Catalogue CatalogueSettings `json:"catalogue"`
}

// DefaultPageCharBudget keeps a page under Discord's 4096 embed description limit
const DefaultPageCharBudget = 3900

// DefaultSettings returns a fully populated configuration
func DefaultSettings() Settings {
	return Settings{
		Guild: GuildSettings{
			GuildID:           "1156256997403000874",
			ResultsChannelID:  "1157994586774442085",
			AdminLogChannelID: "1457048610939207769",
			TopVoterRoleID:    "1180440383784759346",
			ModoRoleID:        "1157803768893689877",
		},
		Rewards: RewardSettings{
			DiamondsPerVote: 100,
			TopDiamonds:     map[int]int64{4: 4000, 5: 3000},
			TopLots: map[int][]LotItem{
				1: {{"🦖", 6}, {"🎨", 6}, {"3️⃣", 1}, {"🍓", 15000}, {"💎", 15000}},
				2: {{"🦖", 4}, {"🎨", 4}, {"2️⃣", 1}, {"🍓", 10000}, {"💎", 10000}},
				3: {{"🦖", 2}, {"🎨", 2}, {"1️⃣", 1}, {"🍓", 5000}, {"💎", 5000}},
			},
			ReasonLabel: "Récompense votes mensuels",
			DisplayTop:  10,
		},
		API: APISettings{
			RankingURL: "https://api.top-serveurs.net/v1/servers/4ROMAU33GJTY/players-ranking?type=lastMonth",
			Timezone:   "Europe/Paris",
		},
		Style: StyleSettings{
			EveryonePing: true,
			Logo:         "<a:Logo:1313979016973127730>",
			Fireworks:    "<a:fireworks:1388428854078476339>",
			Arrow:        "<a:fleche:1402586366210080899>",
			AnimeArrow:   "<a:animearrow:1157234686200922152>",
			Sparkly:      "<a:SparklyCrystal:1366174439003263087>",
			MemoURL:      "https://discord.com/channels/1156256997403000874/1157994573716973629/1367513646158319637",
			PlaceIcons: []string{
				"<:icon_place_1:1120819097916149911>",
				"<:icon_place_2:1120819117197365299>",
				"<:icon_place_3:1120819143659233452>",
				"<:icon_place_4:1120819164119040151>",
				"<:icon_place_5:1120819191650451598>",
			},
		},
		Message: MessageSettings{
			IntroText:     "Merci à tous les votants ! Grâce à vous, notre serveur gagne en visibilité. Continuez comme ça ! 💪",
			CreditText:    "Les diamants ont été **automatiquement crédités** sur vos comptes !",
			MemoText:      "Pour mémo, vous retrouverez la liste des récompenses votes à gagner ici",
			DinoShinyText: "Tirage Dino Shiny juste après 🦖",
			DinoTitle:     "DINO",
			DinoWinText:   "Tu remportes le **Dino Shiny** du mois ! 🦖✨",
			Pack1Text:     "Pack vote 1ère place + rôle",
			Pack2Text:     "Pack vote 2ème place",
			Pack3Text:     "Pack vote 3ème place",
		},
		Auth: AuthSettings{
			AdminPassword: "arki2024",
			StaffPassword: "arkistaff",
		},
		Aliases: map[string]string{},
		Catalogue: CatalogueSettings{
			PageCharBudget: DefaultPageCharBudget,
		},
	}
}

// BonusForRank returns the flat diamond bonus configured for a 1-based rank
func (r RewardSettings) BonusForRank(rank int) int64 {
	return r.TopDiamonds[rank]
}
