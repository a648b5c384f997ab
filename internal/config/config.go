package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PaymentMethod describes one supported payout channel.
type PaymentMethod struct {
	Name        string
	Emoji       string
	Placeholder string
}

// PlatformLimits carries the per-platform sharing limits.
type PlatformLimits struct {
	Name          string
	Emoji         string
	MinMembers    int
	MaxSharesADay int
}

type Config struct {
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	UserBotToken  string
	AdminBotToken string
	AdminIDs      []int64

	LogLevel    string
	ChannelLink string

	// Economics (integer FCFA).
	RewardPerShare int64
	ReferralBonus  int64
	MinWithdrawal  int64
	DailyBudget    int64

	// Anti-fraud.
	MinImageSize   int
	GroupReuseDays int
	VideoValidity  time.Duration

	PaymentMethods map[string]PaymentMethod
	Platforms      map[string]PlatformLimits

	// Cloudflare R2 media storage. Optional: when AccountID is empty the
	// media sink degrades to storing telegram file ids only.
	R2AccountID    string
	R2AccessKeyID  string
	R2AccessSecret string
	R2Bucket       string
	CDNBaseURL     string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "sharemoney"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		UserBotToken:  getEnv("BOT_USER_TOKEN", ""),
		AdminBotToken: getEnv("BOT_ADMIN_TOKEN", ""),
		AdminIDs:      parseIDs(getEnv("ADMIN_IDS", "")),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ChannelLink: getEnv("BOT_CHANNEL_LINK", "https://t.me/sharemoney_officiel"),

		RewardPerShare: getEnvInt64("REWARD_PER_SHARE", 100),
		ReferralBonus:  getEnvInt64("REFERRAL_BONUS", 50),
		MinWithdrawal:  getEnvInt64("MIN_WITHDRAWAL", 500),
		DailyBudget:    getEnvInt64("DAILY_BUDGET_LIMIT", 50000),

		MinImageSize:   getEnvInt("MIN_IMAGE_SIZE", 500),
		GroupReuseDays: getEnvInt("GROUP_REUSE_DAYS", 7),
		VideoValidity:  time.Duration(getEnvInt("VIDEO_VALIDITY_HOURS", 48)) * time.Hour,

		PaymentMethods: map[string]PaymentMethod{
			"orange_money": {Name: "Orange Money", Emoji: "🟠", Placeholder: "Numéro Orange Money (ex: 691234567)"},
			"mtn_money":    {Name: "MTN Money", Emoji: "🟡", Placeholder: "Numéro MTN Money (ex: 671234567)"},
			"binance":      {Name: "Binance", Emoji: "🔶", Placeholder: "Binance ID ou Email"},
			"bitcoin":      {Name: "Bitcoin", Emoji: "₿", Placeholder: "Adresse Bitcoin (BTC)"},
		},
		Platforms: map[string]PlatformLimits{
			"telegram": {Name: "Telegram", Emoji: "📘", MinMembers: getEnvInt("MIN_TELEGRAM_MEMBERS", 250), MaxSharesADay: getEnvInt("MAX_TELEGRAM_SHARES_PER_DAY", 10)},
			"whatsapp": {Name: "WhatsApp", Emoji: "💚", MinMembers: getEnvInt("MIN_WHATSAPP_MEMBERS", 200), MaxSharesADay: getEnvInt("MAX_WHATSAPP_SHARES_PER_DAY", 10)},
		},

		R2AccountID:    getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2AccessKeyID:  getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessSecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2Bucket:       getEnv("R2_BUCKET_NAME", ""),
		CDNBaseURL:     getEnv("CDN_BASE_URL", ""),
	}
}

// MaxSharesPerDay returns the daily cap for a platform, zero if unknown.
func (c *Config) MaxSharesPerDay(platform string) int {
	if p, ok := c.Platforms[platform]; ok {
		return p.MaxSharesADay
	}
	return 0
}

// IsAdmin reports whether the telegram id belongs to a configured admin.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func parseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Skipping invalid admin id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
