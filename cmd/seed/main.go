package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"clfadmin/internal/auth"
	"clfadmin/internal/cache"
	"clfadmin/internal/config"
	"clfadmin/internal/db"
	"clfadmin/internal/logger"
	"clfadmin/internal/model"
	"clfadmin/internal/registry"
	"clfadmin/internal/repository"
)

// seedConfig holds the accounts created by the seed script.
type seedConfig struct {
	AdminName          string `env:"SEED_ADMIN_NAME" envDefault:"Administrator"`
	AdminEmail         string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword      string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin123"`
	ResearcherName     string `env:"SEED_RESEARCHER_NAME" envDefault:"Peneliti"`
	ResearcherEmail    string `env:"SEED_RESEARCHER_EMAIL" envDefault:"peneliti@example.com"`
	ResearcherPassword string `env:"SEED_RESEARCHER_PASSWORD" envDefault:"peneliti123"`
	SampleHistory      int    `env:"SEED_SAMPLE_HISTORY" envDefault:"5"`
}

type samplePrediction struct {
	Text       string  `json:"text"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

var sampleRequirements = []samplePrediction{
	{Text: "The system shall allow users to export reports as PDF.", Prediction: "FR", Confidence: 0.94},
	{Text: "Pages must load within two seconds.", Prediction: "NFR", Confidence: 0.91},
	{Text: "Only administrators may delete accounts.", Prediction: "FR", Confidence: 0.87},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var seedCfg seedConfig
	if err := env.Parse(&seedCfg); err != nil {
		fmt.Fprintf(os.Stderr, "seed config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting seed script")

	// Connect to database
	gormDB, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	historyRepo := repository.NewHistoryRepository(gormDB)

	admin, created, err := upsertUser(ctx, userRepo, seedCfg.AdminName, seedCfg.AdminEmail, seedCfg.AdminPassword, model.RoleAdmin)
	if err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}
	log.Info("admin account ready", zap.Uint("id", admin.ID), zap.Bool("created", created))

	researcher, created, err := upsertUser(ctx, userRepo, seedCfg.ResearcherName, seedCfg.ResearcherEmail, seedCfg.ResearcherPassword, model.RoleResearcher)
	if err != nil {
		log.Fatal("seed researcher", zap.Error(err))
	}
	log.Info("researcher account ready", zap.Uint("id", researcher.ID), zap.Bool("created", created))

	inserted, err := seedHistory(ctx, historyRepo, researcher.ID, seedCfg.SampleHistory)
	if err != nil {
		log.Fatal("seed history", zap.Error(err))
	}
	log.Info("sample history ready", zap.Int("inserted", inserted))

	if cfg.RegistryBackend == config.RegistryRedis {
		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()
		seeded, err := registry.Seed(ctx, registry.NewRedisRegistry(cacheClient, registry.DefaultRedisKey), cfg.RegistrySeedModels)
		if err != nil {
			log.Fatal("seed model registry", zap.Error(err))
		}
		log.Info("model registry seeded", zap.Int("added", seeded))
	} else {
		log.Info("memory model registry is seeded by the server at startup")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	for _, user := range []*model.User{admin, researcher} {
		token, err := jwtService.GenerateAccessToken(user.ID, user.Role)
		if err != nil {
			log.Fatal("issue token", zap.Uint("id", user.ID), zap.Error(err))
		}
		fmt.Printf("%s (%s) token:\n%s\n\n", user.Email, user.Role, token)
	}

	log.Info("seed completed successfully")
}

// upsertUser creates the account or resets its name, role and password.
func upsertUser(ctx context.Context, repo repository.UserRepository, name, email, password, role string) (*model.User, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password for %s: %w", email, err)
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("error checking user %s: %w", email, err)
	}

	if existing != nil {
		existing.Name = name
		existing.Role = role
		existing.PasswordHash = string(hash)
		if err := repo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("error updating user %s: %w", email, err)
		}
		return existing, false, nil
	}

	user := &model.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("error creating user %s: %w", email, err)
	}
	return user, true, nil
}

// seedHistory inserts n sample rows for a user that has no history yet.
func seedHistory(ctx context.Context, repo repository.HistoryRepository, userID uint, n int) (int, error) {
	_, total, err := repo.List(ctx, repository.HistoryQuery{UserID: userID, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	if total > 0 || n <= 0 {
		return 0, nil
	}

	results, err := json.Marshal(sampleRequirements)
	if err != nil {
		return 0, err
	}

	statuses := []string{"completed", "completed", "failed"}
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		item := &model.ClassificationHistory{
			UserID:      userID,
			ModelName:   "indobenchmark/indobert-base-p1",
			ModelType:   "huggingface",
			Status:      statuses[i%len(statuses)],
			IssueURL:    fmt.Sprintf("https://github.com/example/app/issues/%d", 100+i),
			IssueTitle:  fmt.Sprintf("Sample requirement batch %d", i+1),
			IssueNumber: fmt.Sprint(100 + i),
			Timestamp:   now.Add(-time.Duration(i) * time.Hour),
			ResultsJSON: datatypes.JSON(results),
		}
		if err := repo.Create(ctx, item); err != nil {
			return i, fmt.Errorf("create sample history: %w", err)
		}
	}
	return n, nil
}
