package statusapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// serverStatus is the JSON shape of one server's entry in GET /status.
type serverStatus struct {
	ID        string `json:"id"`
	Phase     string `json:"phase"`
	Update    string `json:"update"`
	LostPings int    `json:"lost_pings"`
	HasKiller bool   `json:"has_killer"`
}

type statusResponse struct {
	UpdatedAt time.Time      `json:"updated_at"`
	Servers   []serverStatus `json:"servers"`
}

// NewRouter builds the read-only status HTTP surface. It carries no
// mutation endpoints: spec.md scopes operator control to the (currently
// empty) operator message set, not to this surface.
func NewRouter(cache *Cache) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", func(c *gin.Context) {
		snap, updatedAt := cache.Get()
		resp := statusResponse{UpdatedAt: updatedAt, Servers: make([]serverStatus, 0, len(snap))}
		for id, st := range snap {
			resp.Servers = append(resp.Servers, serverStatus{
				ID:        id,
				Phase:     st.Phase,
				Update:    st.Update,
				LostPings: st.LostPings,
				HasKiller: st.HasKiller,
			})
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}
