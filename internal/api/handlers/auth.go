package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/logging"
	"github.com/playmatatu/bouncer/internal/middleware"
	"github.com/playmatatu/bouncer/internal/models"
	"github.com/playmatatu/bouncer/internal/store"
)

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func issueToken(c *gin.Context, cfg *config.Config, player *models.Player, status int) {
	token, exp, err := middleware.NewToken(cfg, player.ID)
	if err != nil {
		logging.Named("api").Errorw("sign token", "player", player.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": exp.Format(time.RFC3339),
		"player":     player,
	})
}

// Register creates a player and returns a bearer token
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	players := store.NewPlayerStore(db)
	log := logging.Named("api")
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if !namePattern.MatchString(name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 3-24 letters, digits, '_' or '-'"})
			return
		}
		if len(req.Password) < minPasswordLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		player, err := players.Create(c.Request.Context(), name, req.Password)
		if errors.Is(err, store.ErrNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already taken"})
			return
		}
		if err != nil {
			log.Errorw("create player", "name", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Infow("player registered", "player", player.ID, "name", player.Name)
		issueToken(c, cfg, player, http.StatusCreated)
	}
}

// Login checks a player's password and returns a bearer token
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	players := store.NewPlayerStore(db)
	log := logging.Named("api")
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
			return
		}

		player, err := players.Authenticate(c.Request.Context(), strings.TrimSpace(req.Name), req.Password)
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid name or password"})
			return
		}
		if err != nil {
			log.Errorw("authenticate", "name", req.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		issueToken(c, cfg, player, http.StatusOK)
	}
}

// Me returns the authenticated player
func Me(db *sqlx.DB) gin.HandlerFunc {
	players := store.NewPlayerStore(db)
	return func(c *gin.Context) {
		player, err := players.GetByID(c.Request.Context(), playerID(c))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, player)
	}
}
