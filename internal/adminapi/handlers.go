package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/purge"
	"github.com/aatumaykin/subpurge/internal/settings"
	"github.com/aatumaykin/subpurge/internal/version"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PreviewResponse lists upcoming purges.
type PreviewResponse struct {
	Object string           `json:"object"`
	Data   []purge.Upcoming `json:"data"`
	Total  int              `json:"total"`
}

// SettingsSaveFailedResponse is returned when the settings could not be
// persisted. Settings holds the values still in effect.
type SettingsSaveFailedResponse struct {
	ErrorResponse
	Settings settings.Settings `json:"settings"`
}

// HandleHealthGET reports liveness.
func HandleHealthGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	}
}

// HandleSettingsGET returns the current settings page.
func HandleSettingsGET(svc SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Page(c.Request.Context()))
	}
}

// HandleSettingsPUT accepts a JSON object of settings. Values are sanitised:
// days are clamped, flags coerced, unknown keys dropped, missing keys defaulted.
func HandleSettingsPUT(svc SettingsService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "body must be a JSON object"})
			return
		}

		ctx := c.Request.Context()
		current, ok := svc.UpdateAll(ctx, body)
		if !ok {
			log.WarnCtx(ctx, "settings update via admin api failed")
			c.JSON(http.StatusInternalServerError, SettingsSaveFailedResponse{
				ErrorResponse: ErrorResponse{Error: "failed_to_save_settings", Message: "Error saving settings."},
				Settings:      current,
			})
			return
		}
		c.JSON(http.StatusOK, svc.Page(ctx))
	}
}

// HandlePreviewGET lists the upcoming deletions.
func HandlePreviewGET(preview Previewer, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rows, err := preview.Preview(ctx)
		if err != nil {
			log.ErrorCtx(ctx, "failed to build purge preview", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed_to_list_accounts"})
			return
		}
		c.JSON(http.StatusOK, PreviewResponse{Object: "list", Data: rows, Total: len(rows)})
	}
}
