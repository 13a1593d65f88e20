// Package server exposes the prediction board over HTTP: a JSON API and a
// small HTML page. It is read-only; boards are produced by the pipeline.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reaganking/cbb-preds/internal/board"
	"github.com/reaganking/cbb-preds/internal/logger"
	"github.com/reaganking/cbb-preds/internal/models"
)

// Server serves the prediction board from a board store.
type Server struct {
	store  board.Store
	engine *gin.Engine
}

// New builds the router. The store is the only dependency; everything else
// is derived per request.
func New(store board.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{store: store, engine: engine}
	engine.SetHTMLTemplate(boardTemplate)

	engine.GET("/health", s.health)
	engine.GET("/api/predictions", s.predictionsJSON)
	engine.GET("/", s.boardHTML)
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	logger.Info("Board server listening on %s", addr)
	return s.engine.Run(addr)
}

// queryDate reads the d query parameter, defaulting to today (UTC).
func queryDate(c *gin.Context) (time.Time, error) {
	d := c.Query("d")
	if d == "" {
		return models.Normalize(time.Now().UTC()), nil
	}
	parsed, err := models.ParseDate(d)
	if err != nil {
		return time.Time{}, errors.New("d must be YYYY-MM-DD")
	}
	return parsed, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) predictionsJSON(c *gin.Context) {
	date, err := queryDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := s.store.ByDate(c.Request.Context(), date)
	if err != nil {
		logger.Error("Failed to read board: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if rows == nil {
		rows = []models.PredictionRow{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":        date.Format(models.DateLayout),
		"count":       len(rows),
		"predictions": rows,
	})
}

// boardRowView is a prediction row preformatted for the HTML table.
type boardRowView struct {
	Matchup string
	Spread  string
	WinProb string
	HomeML  string
	AwayML  string
}

func viewRow(r models.PredictionRow) boardRowView {
	ml := func(p *float64) string {
		if p == nil {
			return "n/a"
		}
		return fmt.Sprintf("%+.0f", *p)
	}
	return boardRowView{
		Matchup: fmt.Sprintf("%s @ %s", r.AwayTeamCode, r.HomeTeamCode),
		Spread:  fmt.Sprintf("%+.1f", r.HomeSpread),
		WinProb: fmt.Sprintf("%.0f%%", r.ProbHomeWin*100),
		HomeML:  ml(r.HomeMoneyline),
		AwayML:  ml(r.AwayMoneyline),
	}
}

func (s *Server) boardHTML(c *gin.Context) {
	date, err := queryDate(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.store.ByDate(c.Request.Context(), date)
	if err != nil {
		logger.Error("Failed to read board: %v", err)
		c.String(http.StatusInternalServerError, "database query failed")
		return
	}

	views := make([]boardRowView, len(rows))
	for i, r := range rows {
		views[i] = viewRow(r)
	}

	c.HTML(http.StatusOK, "board", gin.H{
		"Date": date.Format(models.DateLayout),
		"Rows": views,
	})
}

var boardTemplate = template.Must(template.New("board").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Predictions {{.Date}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>Predictions {{.Date}}</h1>
{{if .Rows}}
<table>
<tr><th>Matchup</th><th>Home spread</th><th>Home win</th><th>Home ML</th><th>Away ML</th></tr>
{{range .Rows}}
<tr>
<td>{{.Matchup}}</td>
<td>{{.Spread}}</td>
<td>{{.WinProb}}</td>
<td>{{.HomeML}}</td>
<td>{{.AwayML}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No games on the board.</p>
{{end}}
</body>
</html>
`))
