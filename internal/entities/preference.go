package entities

// Preference is one key/value pair of the preferences store. Entries in the
// encrypted namespace hold an AES-GCM ciphertext in Value.
type Preference struct {
	Key       string `gorm:"primaryKey;size:128" json:"key"`
	Value     string `gorm:"type:text" json:"value"`
	Encrypted bool   `gorm:"default:false" json:"encrypted"`
}

func (Preference) TableName() string {
	return "preferences"
}

// AuthData is the session issued by the backend on login or registration.
type AuthData struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// UserData is the cached credential pair used for autofill and re-auth.
type UserData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
