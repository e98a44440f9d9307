package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/preferences"
	"github.com/sergioat7/reader-collection/internal/remoteconfig"
)

type SettingsController struct {
	prefs      *preferences.Store
	vocab      *remoteconfig.Fetcher
	syncToggle SyncToggle
}

// SyncToggle lets the settings controller start and stop the periodic sync
// when the automatic sync setting changes.
type SyncToggle interface {
	Start(ctx context.Context) error
	Stop()
}

func NewSettingsController(prefs *preferences.Store, vocab *remoteconfig.Fetcher, syncToggle SyncToggle) *SettingsController {
	return &SettingsController{
		prefs:      prefs,
		vocab:      vocab,
		syncToggle: syncToggle,
	}
}

type settingsResponse struct {
	Language      string `json:"language"`
	SortParam     string `json:"sortParam"`
	SortDirection string `json:"sortDirection"`
	ThemeMode     string `json:"themeMode"`
	PublicProfile bool   `json:"publicProfile"`
	AutomaticSync bool   `json:"automaticSync"`
}

type settingsUpdateRequest struct {
	Language      *string `json:"language"`
	SortParam     *string `json:"sortParam"`
	SortDirection *string `json:"sortDirection"`
	ThemeMode     *string `json:"themeMode"`
	PublicProfile *bool   `json:"publicProfile"`
	AutomaticSync *bool   `json:"automaticSync"`
}

func (controller *SettingsController) GetSettings(c *gin.Context) {
	settings, err := controller.currentSettings()
	if err != nil {
		respondInternalError(c, err, "read settings")
		return
	}
	c.IndentedJSON(http.StatusOK, settings)
}

// UpdateSettings applies a partial settings update. Absent fields are left
// untouched. A language change triggers a vocabulary refresh so formats and
// states come back localized.
func (controller *SettingsController) UpdateSettings(c *gin.Context) {
	var req settingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid settings payload")
		return
	}

	if req.SortDirection != nil && *req.SortDirection != "asc" && *req.SortDirection != "desc" {
		respondBadRequest(c, "sortDirection must be asc or desc")
		return
	}
	if req.ThemeMode != nil && *req.ThemeMode != "light" && *req.ThemeMode != "dark" && *req.ThemeMode != "system" {
		respondBadRequest(c, "themeMode must be light, dark or system")
		return
	}
	if req.Language != nil && len(*req.Language) != 2 {
		respondBadRequest(c, "language must be a two letter code")
		return
	}

	if req.Language != nil {
		if err := controller.prefs.SetLanguage(*req.Language); err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
		go func(language string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			controller.vocab.Refresh(ctx, language)
		}(*req.Language)
	}
	if req.SortParam != nil || req.SortDirection != nil {
		param, err := controller.prefs.SortParam()
		if err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
		direction, err := controller.prefs.SortDirection()
		if err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
		if req.SortParam != nil {
			param = *req.SortParam
		}
		if req.SortDirection != nil {
			direction = *req.SortDirection
		}
		if err := controller.prefs.SetSortOrder(param, direction); err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
	}
	if req.ThemeMode != nil {
		if err := controller.prefs.SetThemeMode(*req.ThemeMode); err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
	}
	if req.PublicProfile != nil {
		if err := controller.prefs.SetPublicProfile(*req.PublicProfile); err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
	}
	if req.AutomaticSync != nil {
		if err := controller.prefs.SetAutomaticSync(*req.AutomaticSync); err != nil {
			respondInternalError(c, err, "update settings")
			return
		}
		if controller.syncToggle != nil {
			if *req.AutomaticSync {
				if err := controller.syncToggle.Start(context.Background()); err != nil {
					respondInternalError(c, err, "update settings")
					return
				}
			} else {
				controller.syncToggle.Stop()
			}
		}
	}

	settings, err := controller.currentSettings()
	if err != nil {
		respondInternalError(c, err, "read settings")
		return
	}
	c.IndentedJSON(http.StatusOK, settings)
}

// GetVocabularies returns the current format and state vocabularies.
func (controller *SettingsController) GetVocabularies(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, controller.vocab.Current())
}

var tutorialKeys = map[string]string{
	"books":      preferences.KeyBooksTutorialShown,
	"search":     preferences.KeySearchTutorialShown,
	"statistics": preferences.KeyStatsTutorialShown,
	"settings":   preferences.KeySettingsTutorialShown,
}

// MarkTutorialShown records that a first-run tutorial has been dismissed.
// These flags survive logout.
func (controller *SettingsController) MarkTutorialShown(c *gin.Context) {
	key, ok := tutorialKeys[c.Param("screen")]
	if !ok {
		respondBadRequest(c, "unknown tutorial screen")
		return
	}
	if err := controller.prefs.SetTutorialShown(key); err != nil {
		respondInternalError(c, err, "mark tutorial shown")
		return
	}
	respondSuccess(c, "tutorial marked as shown")
}

func (controller *SettingsController) currentSettings() (settingsResponse, error) {
	var settings settingsResponse
	var err error

	if settings.Language, err = controller.prefs.Language(); err != nil {
		return settingsResponse{}, err
	}
	if settings.SortParam, err = controller.prefs.SortParam(); err != nil {
		return settingsResponse{}, err
	}
	if settings.SortDirection, err = controller.prefs.SortDirection(); err != nil {
		return settingsResponse{}, err
	}
	if settings.ThemeMode, err = controller.prefs.ThemeMode(); err != nil {
		return settingsResponse{}, err
	}
	if settings.PublicProfile, err = controller.prefs.PublicProfile(); err != nil {
		return settingsResponse{}, err
	}
	if settings.AutomaticSync, err = controller.prefs.AutomaticSync(); err != nil {
		return settingsResponse{}, err
	}
	return settings, nil
}
