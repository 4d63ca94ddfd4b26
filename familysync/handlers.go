package familysync

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zayar/starsync_backend/config"
	"github.com/zayar/starsync_backend/models"
	"github.com/zayar/starsync_backend/utils"
)

// How long one family's save may hold the write lock. Saves are short
// transactions; a crashed holder frees the slot after the TTL.
const saveLockTTL = 10 * time.Second

// LoadHandler answers GET /?familyId=..&scope=.. with the requested scope
// slice. An unknown family id is not an error; the response is {"data": null}
// so a fresh device can tell "nothing remote yet" from a failure.
func LoadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		familyId := strings.TrimSpace(c.Query("familyId"))
		if familyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "familyId is required"})
			return
		}
		scope := strings.TrimSpace(c.DefaultQuery("scope", models.ScopeAll))
		if !models.ValidLoadScope(scope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope"})
			return
		}

		ctx := utils.SetFamilyIdInContext(c.Request.Context(), familyId)
		db := config.GetDB().WithContext(ctx)

		data, err := models.LoadScope(db, familyId, scope)
		if err != nil {
			config.LogError(config.GetLogger(), "familysync", "LoadHandler", "load scope "+scope, familyId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if data == nil {
			c.JSON(http.StatusOK, gin.H{"data": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
	}
}

// SaveHandler answers POST /?familyId=.. with a scoped snapshot body. The
// snapshot replaces the scope wholesale; lastUpdated is carried by clients but
// the latest accepted write wins regardless of it.
func SaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		familyId := strings.TrimSpace(c.Query("familyId"))
		if familyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "familyId is required"})
			return
		}

		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !models.ValidSaveScope(string(req.Scope)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope"})
			return
		}

		ctx := utils.SetFamilyIdInContext(c.Request.Context(), familyId)

		// Best-effort lock so two devices saving the same family do not
		// interleave their delete+reinsert batches. Proceeds without the lock
		// when Redis is absent; the row-level transaction still holds.
		if locker := config.GetRedisLock(); locker != nil {
			lock, err := locker.Obtain(ctx, "lock:family:"+familyId, saveLockTTL, nil)
			if err == nil {
				defer lock.Release(ctx)
			} else if !errors.Is(err, redislock.ErrNotObtained) {
				config.GetLogger().WithFields(logrus.Fields{
					"familyId": familyId,
				}).Warn("family save lock unavailable: " + err.Error())
			}
		}

		db := config.GetDB().WithContext(ctx)
		if err := models.SaveScope(db, familyId, string(req.Scope), req.Data); err != nil {
			if errors.Is(err, models.ErrInvalidPayload) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config.LogError(config.GetLogger(), "familysync", "SaveHandler", "save scope "+string(req.Scope), familyId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RegisterRoutes mounts the sync endpoints. The root pair matches what the
// original worker served; the /api/sync pair is the stable alias.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/", LoadHandler())
	r.POST("/", SaveHandler())
	r.GET("/api/sync", LoadHandler())
	r.POST("/api/sync", SaveHandler())
}
