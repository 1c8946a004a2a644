package utils

import "time"

// General Configuration
const (
	BrandName = "Arki' Family"
	BotColor  = 0x5865F2
)

// Embed colors
const (
	ColorSuccess  = 0x2ecc71
	ColorError    = 0xe74c3c
	ColorWarning  = 0xf1c40f
	ColorVotes    = 0xf1c40f
	ColorRoulette = 0x9b59b6
)

// Currency emojis used across catalogue and vote messages
const (
	DiamondEmoji    = "<a:SparklyCrystal:1366174439003263087>"
	StrawberryEmoji = "<:fraises:1328148609585123379>"
)

// Discord limits
const (
	MaxMessageLength       = 2000
	MaxEmbedDescription    = 4096
	GuildMembersPageSize   = 1000
	InteractionDeferWindow = 3 * time.Second
)

// Store keys
const (
	KeySettings = "settings"
	KeyDinos    = "dinos"
	KeyShop     = "shop"
	KeyRoulette = "config"
)

// UI Messages
const (
	NotAuthorizedMessage      = "❌ Tu n'as pas la permission d'utiliser cette commande."
	RankingUnavailableMessage = "❌ Impossible de récupérer le classement top-serveurs."
	RosterUnavailableMessage  = "❌ Impossible de récupérer la liste des membres du serveur."
	ReportExpiredMessage      = "❌ Ce rapport a expiré, relance la commande."
)
