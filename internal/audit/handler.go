package audit

import (
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
)

const defaultListLimit = 200

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=supply&entity_id=1&user_id=2&limit=50
func ListAuditLogsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityID, err := httpx.QueryUint(c, "entity_id")
		if err != nil {
			return err
		}
		userID, err := httpx.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", defaultListLimit)
		if limit <= 0 || limit > 1000 {
			limit = defaultListLimit
		}

		logs, err := st.ListAuditLogs(c.UserContext(), store.AuditFilter{
			EntityType: c.Query("entity_type"),
			EntityID:   entityID,
			UserID:     userID,
			Limit:      limit,
		})
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format(httpx.TimeLayout),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
