package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"arki-bot/models"
	"arki-bot/utils"
)

// Role is the dashboard access level carried by the session
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

const (
	sessionCookie = "arki_session"
	sessionTTL    = 24 * time.Hour
	roleKey       = "role"
)

var errBadPassword = errors.New("invalid password")

// sessionClaims is the payload of the signed session cookie
type sessionClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// passwords keeps bcrypt hashes of the dashboard passwords, never the plain text
type passwords struct {
	admin []byte
	staff []byte
	cost  int
	mutex sync.RWMutex
}

func (p *passwords) set(admin, staff string) error {
	hash := func(pw string) ([]byte, error) {
		if pw == "" {
			return nil, nil
		}
		return bcrypt.GenerateFromPassword([]byte(pw), p.cost)
	}
	adminHash, err := hash(admin)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	staffHash, err := hash(staff)
	if err != nil {
		return fmt.Errorf("failed to hash staff password: %w", err)
	}

	p.mutex.Lock()
	p.admin, p.staff = adminHash, staffHash
	p.mutex.Unlock()
	return nil
}

// check returns the role a password grants, admin first
func (p *passwords) check(password string) (Role, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if password == "" {
		return "", errBadPassword
	}
	if p.admin != nil && bcrypt.CompareHashAndPassword(p.admin, []byte(password)) == nil {
		return RoleAdmin, nil
	}
	if p.staff != nil && bcrypt.CompareHashAndPassword(p.staff, []byte(password)) == nil {
		return RoleStaff, nil
	}
	return "", errBadPassword
}

// adminPassword applies the DASHBOARD_PASSWORD override to the stored settings
func adminPassword(auth models.AuthSettings, override string) string {
	if override != "" {
		return override
	}
	return auth.AdminPassword
}

func (s *Server) issueToken(role Role) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(role),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(tokenString string) (Role, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || (claims.Role != RoleAdmin && claims.Role != RoleStaff) {
		return "", errors.New("invalid session claims")
	}
	return claims.Role, nil
}

// requireAuth accepts the session cookie or a Bearer token
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(sessionCookie)
		if err != nil || tokenString == "" {
			const bearerSchema = "Bearer "
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerSchema) {
				tokenString = header[len(bearerSchema):]
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		role, err := s.parseToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			}
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

// requireAdmin keeps staff sessions away from settings and passwords
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleKey) != string(RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Next()
	}
}

type loginRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

const loginPage = `<!DOCTYPE html>
<html lang="fr"><head><meta charset="utf-8"><title>Arki' Family ─ Dashboard</title></head>
<body><form method="post" action="/login">
<input type="password" name="password" placeholder="Mot de passe" autofocus>
<button type="submit">Connexion</button>
</form></body></html>`

func (s *Server) loginForm(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	role, err := s.passwords.check(req.Password)
	if err != nil {
		utils.BotLogf("WEB", "Rejected dashboard login from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	token, err := s.issueToken(role)
	if err != nil {
		utils.BotErrorf("WEB", "Failed to sign session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(sessionTTL.Seconds()), "/", "", s.secureCookies, true)
	utils.BotLogf("WEB", "Dashboard login as %s from %s", role, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"role": role, "token": token})
}

func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
