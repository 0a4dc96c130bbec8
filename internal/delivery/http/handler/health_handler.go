package handler

import (
	"context"
	"net/http"
	"time"

	"dental-booking/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	DB      string    `json:"db"`
	Redis   string    `json:"redis"`
	Time    time.Time `json:"time"`
}

type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	health := HealthResponse{
		Status:  "ok",
		Service: "dental-booking",
		DB:      "ok",
		Redis:   "ok",
		Time:    time.Now().UTC(),
	}

	if err := h.pingDB(ctx); err != nil {
		h.log.Warnf("Health check: database unreachable: %+v", err)
		health.Status, health.DB = "degraded", "unreachable"
	}

	if h.redisClient == nil {
		health.Redis = "disabled"
	} else if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Warnf("Health check: redis unreachable: %+v", err)
		health.Status, health.Redis = "degraded", "unreachable"
	}

	if health.Status != "ok" {
		response.JSON(w, http.StatusServiceUnavailable, response.Response{OK: false, Message: "Service unhealthy", Data: health})
		return
	}
	response.Success(w, http.StatusOK, "Service healthy", health)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
