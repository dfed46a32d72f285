package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

const instanceHeader = "X-Searx-Instance"

type instancesResponse struct {
	Instances []string  `json:"instances"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// search (GET /search?q=) отдает страницу результатов случайного инстанса
func (s *Server) search(c echo.Context) error {
	req := &domain.SearchRequest{Query: c.QueryParam("q")}

	resp, err := s.svc.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}

	c.Response().Header().Set(instanceHeader, resp.Instance)
	return c.HTML(http.StatusOK, resp.Body)
}

// save (POST /save) применяет и сохраняет новые фильтры
func (s *Server) save(c echo.Context) error {
	var prefs domain.Preferences
	if err := c.Bind(&prefs); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPreferences, err)
	}

	if err := s.svc.SavePreferences(c.Request().Context(), prefs); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Data has been saved")
}

func (s *Server) instances(c echo.Context) error {
	snap := s.svc.Candidates()
	urls := snap.URLs
	if urls == nil {
		urls = []string{}
	}
	return c.JSON(http.StatusOK, instancesResponse{
		Instances: urls,
		Count:     len(urls),
		CreatedAt: snap.CreatedAt,
	})
}

func (s *Server) preferences(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Preferences())
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
