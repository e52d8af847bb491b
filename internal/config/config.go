// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Ingest   IngestConfig
	Supabase SupabaseConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type SheetsConfig struct {
	// BaseURL is the published-to-web endpoint of the master workbook.
	BaseURL        string
	TimeoutSeconds int
	// CredentialsJSON holds a service account key. When set, the sheets
	// are read through the Sheets API instead of the published CSV URL.
	CredentialsJSON string
	SpreadsheetID   string
	GIDMasterData   int
	GIDMasterProduk int
	GIDMasterStore  int
	GIDMaxStock     int
	GIDAssortment   int
}

// EntityFiles names the warehouse and retail exports for one entity.
// Empty paths mean the entity has no export of that kind.
type EntityFiles struct {
	Warehouse string
	Retail    string
}

type IngestConfig struct {
	DataDir string
	// EntityOrder preserves declaration order so runs stay deterministic.
	EntityOrder []string
	Entities    map[string]EntityFiles
	// DoubledStores are store columns whose export carries duplicate
	// rows under old and new store codes; quantities are halved.
	DoubledStores []string
}

type SupabaseConfig struct {
	URL            string
	AnonKey        string
	Table          string
	BatchSize      int
	PageSize       int
	TimeoutSeconds int
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SyncEnabled bool
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	SheetTTLSeconds int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type AppConfig struct {
	OutputDir  string
	OutputFile string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

		viper.SetDefault("SHEETS_BASE_URL", "https://docs.google.com/spreadsheets/d/e/2PACX-1vRMI13PjlcKpGxF2QKXIkn0-QS0bVsqrw2MZVRVcm8l7jt_lT2sKgRcFYnVDDqmT5LUzPm8nFxMTgS9/pub")
		viper.SetDefault("SHEETS_TIMEOUT_SECONDS", 30)
		viper.SetDefault("SHEETS_CREDENTIALS_JSON", "")
		viper.SetDefault("SHEETS_SPREADSHEET_ID", "")
		viper.SetDefault("SHEETS_GID_MASTER_DATA", 0)
		viper.SetDefault("SHEETS_GID_MASTER_PRODUK", 813944059)
		viper.SetDefault("SHEETS_GID_MASTER_STORE", 1803569317)
		viper.SetDefault("SHEETS_GID_MAX_STOCK", 382740121)
		viper.SetDefault("SHEETS_GID_ASSORTMENT", 1063661008)

		viper.SetDefault("INGEST_DATA_DIR", ".")

		viper.SetDefault("SUPABASE_URL", "")
		viper.SetDefault("SUPABASE_ANON_KEY", "")
		viper.SetDefault("SUPABASE_TABLE", "inventory")
		viper.SetDefault("SUPABASE_BATCH_SIZE", 500)
		viper.SetDefault("SUPABASE_PAGE_SIZE", 1000)
		viper.SetDefault("SUPABASE_TIMEOUT_SECONDS", 60)

		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stockboard")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_SYNC_ENABLED", false)

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SHEET_TTL_SECONDS", 300)

		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "stockboard")
		viper.SetDefault("ARCHIVE_REGION", "us-east-1")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("APP_OUTPUT_FILE", "dashboard_inventory.html")

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Sheets: SheetsConfig{
				BaseURL:         viper.GetString("SHEETS_BASE_URL"),
				TimeoutSeconds:  viper.GetInt("SHEETS_TIMEOUT_SECONDS"),
				CredentialsJSON: viper.GetString("SHEETS_CREDENTIALS_JSON"),
				SpreadsheetID:   viper.GetString("SHEETS_SPREADSHEET_ID"),
				GIDMasterData:   viper.GetInt("SHEETS_GID_MASTER_DATA"),
				GIDMasterProduk: viper.GetInt("SHEETS_GID_MASTER_PRODUK"),
				GIDMasterStore:  viper.GetInt("SHEETS_GID_MASTER_STORE"),
				GIDMaxStock:     viper.GetInt("SHEETS_GID_MAX_STOCK"),
				GIDAssortment:   viper.GetInt("SHEETS_GID_ASSORTMENT"),
			},
			Ingest: defaultIngestConfig(viper.GetString("INGEST_DATA_DIR")),
			Supabase: SupabaseConfig{
				URL:            viper.GetString("SUPABASE_URL"),
				AnonKey:        viper.GetString("SUPABASE_ANON_KEY"),
				Table:          viper.GetString("SUPABASE_TABLE"),
				BatchSize:      viper.GetInt("SUPABASE_BATCH_SIZE"),
				PageSize:       viper.GetInt("SUPABASE_PAGE_SIZE"),
				TimeoutSeconds: viper.GetInt("SUPABASE_TIMEOUT_SECONDS"),
			},
			Database: DatabaseConfig{
				Host:        viper.GetString("DB_HOST"),
				Port:        viper.GetString("DB_PORT"),
				User:        viper.GetString("DB_USER"),
				Password:    viper.GetString("DB_PASSWORD"),
				DBName:      viper.GetString("DB_NAME"),
				SSLMode:     viper.GetString("DB_SSLMODE"),
				SyncEnabled: viper.GetBool("DB_SYNC_ENABLED"),
			},
			Cache: CacheConfig{
				Enabled:         viper.GetBool("CACHE_ENABLED"),
				RedisURL:        viper.GetString("REDIS_URL"),
				RedisHost:       viper.GetString("REDIS_HOST"),
				RedisPort:       viper.GetString("REDIS_PORT"),
				RedisPassword:   viper.GetString("REDIS_PASSWORD"),
				RedisDB:         viper.GetInt("REDIS_DB"),
				SheetTTLSeconds: viper.GetInt("CACHE_SHEET_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			App: AppConfig{
				OutputDir:  viper.GetString("APP_OUTPUT_DIR"),
				OutputFile: viper.GetString("APP_OUTPUT_FILE"),
			},
		}
	})

	return instance
}

// defaultIngestConfig mirrors the export layout the warehouse team
// publishes: DDD has both exports, the rest warehouse only.
func defaultIngestConfig(dataDir string) IngestConfig {
	return IngestConfig{
		DataDir:     dataDir,
		EntityOrder: []string{"DDD", "LJBB", "MBB", "UBB"},
		Entities: map[string]EntityFiles{
			"DDD":  {Warehouse: "Stock WH DDD.csv", Retail: "Stok Retail DDD.csv"},
			"LJBB": {Warehouse: "Stock WH LJBB.csv"},
			"MBB":  {Warehouse: "Stock WH MBB.csv"},
			"UBB":  {Warehouse: "Stock WH UBB.csv"},
		},
		DoubledStores: []string{
			"zuma city of tomorrow mall",
			"zuma tanah lot",
			"zuma lippo bali",
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
