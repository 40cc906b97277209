package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatewarden/internal/config"
	"gatewarden/internal/interfaces"
	"gatewarden/internal/models"
)

// PostgresStore is the production GameStore backed by Supabase/Postgres
// through GORM.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Session{},
		&models.Structure{},
		&models.Reputation{},
		&models.InventoryItem{},
		&models.Traveler{},
		&models.Event{},
	); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) GetDB() *gorm.DB {
	return s.db
}

// translateErr maps GORM's not-found onto the shared sentinel.
func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return interfaces.ErrNotFound
	}
	return err
}

func (s *PostgresStore) GetPlayerByChatID(ctx context.Context, chatID string) (*models.Player, error) {
	var player models.Player
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&player).Error; err != nil {
		return nil, translateErr(err)
	}
	return &player, nil
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Create(player).Error
}

func (s *PostgresStore) SavePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Save(player).Error
}

func (s *PostgresStore) GetActiveSession(ctx context.Context, playerID uint) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND active = ?", playerID, true).
		First(&session).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *PostgresStore) SaveSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s *PostgresStore) ListStructures(ctx context.Context, sessionID uint) ([]models.Structure, error) {
	var structures []models.Structure
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id").
		Find(&structures).Error
	return structures, err
}

func (s *PostgresStore) GetStructureByTemplate(ctx context.Context, sessionID uint, templateID string) (*models.Structure, error) {
	var structure models.Structure
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND template_id = ?", sessionID, templateID).
		First(&structure).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &structure, nil
}

func (s *PostgresStore) CreateStructures(ctx context.Context, structures []models.Structure) error {
	return s.db.WithContext(ctx).Create(&structures).Error
}

func (s *PostgresStore) SaveStructure(ctx context.Context, structure *models.Structure) error {
	return s.db.WithContext(ctx).Save(structure).Error
}

func (s *PostgresStore) GetReputation(ctx context.Context, sessionID uint) (*models.Reputation, error) {
	var rep models.Reputation
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rep).Error; err != nil {
		return nil, translateErr(err)
	}
	return &rep, nil
}

func (s *PostgresStore) CreateReputation(ctx context.Context, rep *models.Reputation) error {
	return s.db.WithContext(ctx).Create(rep).Error
}

func (s *PostgresStore) SaveReputation(ctx context.Context, rep *models.Reputation) error {
	return s.db.WithContext(ctx).Save(rep).Error
}

func (s *PostgresStore) ListInventory(ctx context.Context, sessionID uint) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("name").
		Find(&items).Error
	return items, err
}

func (s *PostgresStore) GetInventoryItem(ctx context.Context, sessionID uint, name string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, name).
		First(&item).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

func (s *PostgresStore) SaveInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *PostgresStore) CreateTravelers(ctx context.Context, travelers []models.Traveler) error {
	return s.db.WithContext(ctx).CreateInBatches(&travelers, 100).Error
}

func (s *PostgresStore) ListTravelers(ctx context.Context, sessionID uint, day int) ([]models.Traveler, error) {
	var travelers []models.Traveler
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND day = ?", sessionID, day).
		Order("position").
		Find(&travelers).Error
	return travelers, err
}

func (s *PostgresStore) GetTraveler(ctx context.Context, id uint) (*models.Traveler, error) {
	var traveler models.Traveler
	if err := s.db.WithContext(ctx).First(&traveler, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &traveler, nil
}

func (s *PostgresStore) SaveTraveler(ctx context.Context, traveler *models.Traveler) error {
	return s.db.WithContext(ctx).Save(traveler).Error
}

func (s *PostgresStore) CountCompletedTravelers(ctx context.Context, sessionID uint, day int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Traveler{}).
		Where("session_id = ? AND day = ? AND complete = ?", sessionID, day, true).
		Count(&count).Error
	return count, err
}

func (s *PostgresStore) AppendEvent(ctx context.Context, event *models.Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *PostgresStore) ListRecentEvents(ctx context.Context, sessionID uint, limit int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	// Oldest first for display.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// ApplyTriggerBundle applies item grants, a structure activation and an
// interaction unlock in one transaction, so a scripted encounter can
// never leave the session half-applied.
func (s *PostgresStore) ApplyTriggerBundle(ctx context.Context, sessionID uint, bundle interfaces.TriggerBundle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, amount := range bundle.GrantItems {
			var item models.InventoryItem
			err := tx.Where("session_id = ? AND name = ?", sessionID, name).First(&item).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item = models.InventoryItem{SessionID: sessionID, Name: name}
			} else if err != nil {
				return err
			}
			item.Count += amount
			if item.Count < 0 {
				item.Count = 0
			}
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}

		if bundle.ActivateStructureID != "" {
			var structure models.Structure
			err := tx.Where("session_id = ? AND template_id = ?", sessionID, bundle.ActivateStructureID).
				First(&structure).Error
			if err != nil {
				return translateErr(err)
			}
			structure.Active = true
			if err := tx.Save(&structure).Error; err != nil {
				return err
			}
		}

		if bundle.UnlockInteraction != "" {
			var session models.Session
			if err := tx.First(&session, sessionID).Error; err != nil {
				return translateErr(err)
			}
			present := false
			for _, id := range session.Interactions {
				if id == bundle.UnlockInteraction {
					present = true
					break
				}
			}
			if !present {
				session.Interactions = append(session.Interactions, bundle.UnlockInteraction)
				if err := tx.Save(&session).Error; err != nil {
					return err
				}
			}
		}

		if bundle.Event != "" {
			if err := tx.Create(&models.Event{SessionID: sessionID, Event: bundle.Event}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
