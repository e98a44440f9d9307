// Package preferences provides durable key/value storage for session and
// settings data. Settings live in a plaintext namespace; credentials live in
// an encrypted namespace backed by AES-256-GCM.
package preferences

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/sergioat7/reader-collection/internal/crypto"
	"github.com/sergioat7/reader-collection/internal/entities"
)

// Plaintext settings keys.
const (
	KeyLanguage      = "language"
	KeySortParam     = "sort_param"
	KeySortDirection = "sort_direction"
	KeyThemeMode     = "theme_mode"
	KeyPublicProfile = "public_profile"
	KeyAutomaticSync = "automatic_sync"

	KeyBooksTutorialShown    = "books_tutorial_shown"
	KeySearchTutorialShown   = "search_tutorial_shown"
	KeyStatsTutorialShown    = "statistics_tutorial_shown"
	KeySettingsTutorialShown = "settings_tutorial_shown"
)

// Encrypted namespace keys.
const (
	KeyAccessToken = "access_token"
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyPassword    = "password"
)

// Defaults for the plaintext settings keys.
const (
	DefaultLanguage      = "en"
	DefaultSortParam     = "title"
	DefaultSortDirection = "asc"
	DefaultThemeMode     = "system"
)

// logoutResetKeys is the explicit list of plaintext keys reset on logout.
// Tutorial-shown flags are deliberately not in this list and survive logout.
var logoutResetKeys = map[string]string{
	KeyLanguage:      DefaultLanguage,
	KeySortParam:     DefaultSortParam,
	KeySortDirection: DefaultSortDirection,
	KeyThemeMode:     DefaultThemeMode,
	KeyPublicProfile: "false",
	KeyAutomaticSync: "false",
}

// Store is the preferences store. Construct one instance at process start and
// pass it by reference; it holds no state beyond its database handle.
type Store struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

func NewStore(db *gorm.DB, encryptor *crypto.Encryptor) *Store {
	return &Store{db: db, encryptor: encryptor}
}

// Write stores a value under key. With encrypted set, the value is sealed
// before it touches the database.
func (s *Store) Write(key, value string, encrypted bool) error {
	if encrypted {
		sealed, err := s.encryptor.Encrypt(value)
		if err != nil {
			return err
		}
		value = sealed
	}

	var pref entities.Preference
	result := s.db.Where("key = ?", key).First(&pref)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		pref = entities.Preference{Key: key, Value: value, Encrypted: encrypted}
		return s.db.Create(&pref).Error
	} else if result.Error != nil {
		return result.Error
	}

	pref.Value = value
	pref.Encrypted = encrypted
	return s.db.Save(&pref).Error
}

// Read returns the stored value for key, or def when the key is absent.
func (s *Store) Read(key, def string, encrypted bool) (string, error) {
	var pref entities.Preference
	err := s.db.Where("key = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}

	if encrypted {
		return s.encryptor.Decrypt(pref.Value)
	}
	return pref.Value, nil
}

// Remove deletes the given keys. Absent keys are skipped.
func (s *Store) Remove(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("key IN ?", keys).Delete(&entities.Preference{}).Error
}

func (s *Store) readBool(key string, def bool) (bool, error) {
	raw, err := s.Read(key, strconv.FormatBool(def), false)
	if err != nil {
		return def, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return value, nil
}

func (s *Store) Language() (string, error) {
	return s.Read(KeyLanguage, DefaultLanguage, false)
}

func (s *Store) SetLanguage(language string) error {
	return s.Write(KeyLanguage, language, false)
}

func (s *Store) SortParam() (string, error) {
	return s.Read(KeySortParam, DefaultSortParam, false)
}

func (s *Store) SortDirection() (string, error) {
	return s.Read(KeySortDirection, DefaultSortDirection, false)
}

func (s *Store) SetSortOrder(param, direction string) error {
	if err := s.Write(KeySortParam, param, false); err != nil {
		return err
	}
	return s.Write(KeySortDirection, direction, false)
}

func (s *Store) ThemeMode() (string, error) {
	return s.Read(KeyThemeMode, DefaultThemeMode, false)
}

func (s *Store) SetThemeMode(mode string) error {
	return s.Write(KeyThemeMode, mode, false)
}

func (s *Store) PublicProfile() (bool, error) {
	return s.readBool(KeyPublicProfile, false)
}

func (s *Store) SetPublicProfile(enabled bool) error {
	return s.Write(KeyPublicProfile, strconv.FormatBool(enabled), false)
}

func (s *Store) AutomaticSync() (bool, error) {
	return s.readBool(KeyAutomaticSync, false)
}

func (s *Store) SetAutomaticSync(enabled bool) error {
	return s.Write(KeyAutomaticSync, strconv.FormatBool(enabled), false)
}

func (s *Store) TutorialShown(key string) (bool, error) {
	return s.readBool(key, false)
}

func (s *Store) SetTutorialShown(key string) error {
	return s.Write(key, "true", false)
}

// StoreAuthData persists the session issued by the backend.
func (s *Store) StoreAuthData(auth entities.AuthData) error {
	if err := s.Write(KeyAccessToken, auth.Token, true); err != nil {
		return err
	}
	return s.Write(KeyUserID, auth.UserID, true)
}

func (s *Store) AuthData() (entities.AuthData, error) {
	token, err := s.Read(KeyAccessToken, "", true)
	if err != nil {
		return entities.AuthData{}, err
	}
	userID, err := s.Read(KeyUserID, "", true)
	if err != nil {
		return entities.AuthData{}, err
	}
	return entities.AuthData{Token: token, UserID: userID}, nil
}

// StoreUserData caches the credential pair for autofill and re-auth.
func (s *Store) StoreUserData(user entities.UserData) error {
	if err := s.Write(KeyUsername, user.Username, true); err != nil {
		return err
	}
	return s.Write(KeyPassword, user.Password, true)
}

func (s *Store) UserData() (entities.UserData, error) {
	username, err := s.Read(KeyUsername, "", true)
	if err != nil {
		return entities.UserData{}, err
	}
	password, err := s.Read(KeyPassword, "", true)
	if err != nil {
		return entities.UserData{}, err
	}
	return entities.UserData{Username: username, Password: password}, nil
}

// IsLoggedIn reports whether a non-empty session token is stored.
func (s *Store) IsLoggedIn() bool {
	token, err := s.Read(KeyAccessToken, "", true)
	return err == nil && token != ""
}

// Logout clears the encrypted credentials and resets the enumerated settings
// keys. The cached username is kept for login autofill.
func (s *Store) Logout() error {
	if err := s.Remove(KeyAccessToken, KeyUserID, KeyPassword); err != nil {
		return err
	}
	for key, value := range logoutResetKeys {
		if err := s.Write(key, value, false); err != nil {
			return err
		}
	}
	return nil
}
