package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/internal/services"
	"github.com/smarttransit/flight-search-web/internal/storage"
	"github.com/smarttransit/flight-search-web/internal/utils"
	"github.com/smarttransit/flight-search-web/pkg/jwt"
)

// ClientIDContextKey is the key the resolved client id is stored under in gin's context
const ClientIDContextKey = "client_id"

// ClientIdentityConfig wires the middleware
type ClientIdentityConfig struct {
	Signer     *jwt.Service
	Cookie     storage.CookieOptions
	Registry   services.ClientRegistry // optional
	IPHashSalt string
	Logger     *logrus.Logger
}

// ClientIdentity ensures every request carries a durable client id,
// minting one into a signed cookie on first visit
func ClientIdentity(cfg ClientIdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storage.NewCookieStore(c, cfg.Signer, cfg.Cookie)

		var opts []services.IdentityOption
		if cfg.Registry != nil {
			opts = append(opts, services.WithClientRegistry(cfg.Registry, describeRequest(c, cfg.IPHashSalt)))
		}
		identity := services.NewIdentityService(store, cfg.Logger, opts...)

		clientID, err := identity.EnsureClientID(c.Request.Context())
		if err != nil {
			cfg.Logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Failed to ensure client id")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to establish client identity",
			})
			c.Abort()
			return
		}

		c.Set(ClientIDContextKey, clientID)
		c.Next()
	}
}

// GetClientID returns the client id set by ClientIdentity
func GetClientID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ClientIDContextKey)
	if !exists {
		return "", false
	}
	clientID, ok := value.(string)
	return clientID, ok && clientID != ""
}

func describeRequest(c *gin.Context, salt string) services.ClientDescriber {
	return func(clientID string) models.ClientIdentity {
		device := utils.ParseUserAgent(utils.GetUserAgent(c))
		return models.ClientIdentity{
			ClientID:   clientID,
			DeviceType: device.DeviceType,
			OS:         device.OS,
			Browser:    device.Browser,
			Platform:   device.Platform,
			IsBot:      device.IsBot,
			IPHash:     utils.HashIP(utils.GetRealIP(c), salt),
		}
	}
}
