package Services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"Attendance/Models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsService is the key-value settings store.
type SettingsService struct {
	db       *gorm.DB
	validate *Models.Validator
}

func NewSettingsService(db *gorm.DB, opts ...Option) *SettingsService {
	o := buildOptions(opts)
	return &SettingsService{db: db, validate: o.validator()}
}

// Raw returns the stored JSON for key.
func (s *SettingsService) Raw(ctx context.Context, key string) (datatypes.JSON, error) {
	var setting Models.Setting
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		log.Printf("Error reading setting %s: %v\n", key, err)
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return setting.Value, nil
}

// Get decodes the value stored under key into dest.
func (s *SettingsService) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := s.Raw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("Error decoding setting %s: %v\n", key, err)
		return fmt.Errorf("decode setting %q: %w", key, err)
	}
	return nil
}

// Set stores value under key, replacing any previous value.
func (s *SettingsService) Set(ctx context.Context, key string, value interface{}) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyID
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}

	setting := Models.Setting{Key: key, Value: datatypes.JSON(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		log.Printf("Error saving setting %s: %v\n", key, err)
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&Models.Setting{})
	if result.Error != nil {
		log.Printf("Error deleting setting %s: %v\n", key, result.Error)
		return fmt.Errorf("delete setting %q: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return nil
}

// Keys lists the stored keys in order. The PIN hash is never listed.
func (s *SettingsService) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := s.db.WithContext(ctx).Model(&Models.Setting{}).
		Where("`key` <> ?", Models.SettingPINHash).
		Order("`key` ASC").
		Pluck("key", &keys).Error
	if err != nil {
		log.Printf("Error listing settings: %v\n", err)
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return keys, nil
}

func (s *SettingsService) Profile(ctx context.Context) (*Models.Profile, error) {
	var p Models.Profile
	if err := s.Get(ctx, Models.SettingProfile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SettingsService) SaveProfile(ctx context.Context, p Models.Profile) error {
	if err := s.validate.Struct(p); err != nil {
		return err
	}
	return s.Set(ctx, Models.SettingProfile, p)
}

// SetPIN stores a bcrypt hash of the app unlock PIN (4 to 8 digits).
func (s *SettingsService) SetPIN(ctx context.Context, pin string) error {
	if err := s.validate.Var("pin", pin, "required,numeric,min=4,max=8"); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.Set(ctx, Models.SettingPINHash, string(hash))
}

// HasPIN reports whether an unlock PIN was configured.
func (s *SettingsService) HasPIN(ctx context.Context) (bool, error) {
	_, err := s.Raw(ctx, Models.SettingPINHash)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// VerifyPIN compares pin with the stored hash. It returns ErrNotFound when no
// PIN was ever set.
func (s *SettingsService) VerifyPIN(ctx context.Context, pin string) (bool, error) {
	var hash string
	if err := s.Get(ctx, Models.SettingPINHash, &hash); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify pin: %w", err)
	}
	return true, nil
}
