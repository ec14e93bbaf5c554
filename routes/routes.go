package routes

import (
	"time"

	"lostfound-bot/controllers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers is everything the router mounts. Auth is nil when admin routes
// are disabled. Signature and RateLimiter are nil when those webhook checks
// are off.
type Handlers struct {
	Webhook     *controllers.WebhookController
	Reports     *controllers.ReportController
	Auth        *controllers.AuthController
	Signature   gin.HandlerFunc
	RateLimiter gin.HandlerFunc
	AdminSecret string
	CORSOrigins []string
	Now         func() time.Time
	Log         logrus.FieldLogger
}

// Register mounts every route on r.
func Register(r *gin.Engine, h Handlers) {
	r.Use(corsFor(h.CORSOrigins)...)

	HealthRoutes(r, h)
	WebhookRoutes(r, h)
	APIRoutes(r, h)
	if h.Auth != nil {
		AdminRoutes(r, h)
	}
}

// HealthRoutes sets up the liveness probes
func HealthRoutes(r *gin.Engine, h Handlers) {
	r.GET("/", controllers.Health(h.Now))
	r.GET("/health", controllers.Health(h.Now))
}

// WebhookRoutes sets up the messaging webhook
func WebhookRoutes(r *gin.Engine, h Handlers) {
	chain := []gin.HandlerFunc{controllers.TwiMLRecovery(h.Log)}
	if h.Signature != nil {
		chain = append(chain, h.Signature)
	}
	if h.RateLimiter != nil {
		chain = append(chain, h.RateLimiter)
	}
	chain = append(chain, h.Webhook.HandleWhatsApp)
	r.POST("/whatsapp", chain...)
}

// APIRoutes sets up the public read API
func APIRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")
	{
		api.GET("/success-stories", h.Reports.ListSuccessStories)
	}
}

func corsFor(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	return []gin.HandlerFunc{cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	})}
}
