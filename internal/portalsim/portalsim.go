// Package portalsim is a stand-in for the campus captive portal. It speaks the
// same form-in, XML-out protocol as httpclient.html and is used by tests and by
// cmd/portalsim for local end-to-end runs.
package portalsim

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zarlcorp/zgate/internal/credential"
)

// Path is the handler path used by the real portal.
const Path = "/httpclient.html"

// Portal vocabulary.
const (
	MsgSignedInPrefix = "You are signed in as "
	MsgInvalid        = "Login failed. Invalid user name/password. Please contact the administrator."
	MsgLimit          = "Login failed. You have reached the maximum login limit."
	MsgSignedOut      = "You've signed out"
	MsgBadRequest     = "Your request could not be processed"
)

const (
	modeLogin  = "191"
	modeLogout = "193"
)

// Server simulates a portal with a fixed set of accounts.
type Server struct {
	mu          sync.Mutex
	accounts    map[string]string
	active      map[string]bool
	maxSessions int
	requests    int
}

// New creates a simulator. maxSessions caps concurrently signed-in users;
// zero means unlimited.
func New(creds []credential.Credential, maxSessions int) *Server {
	accounts := make(map[string]string, len(creds))
	for _, c := range creds {
		accounts[c.Username] = c.Password
	}

	return &Server{
		accounts:    accounts,
		active:      make(map[string]bool),
		maxSessions: maxSessions,
	}
}

// Handler returns the gin engine serving the portal.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.POST(Path, s.handle)
	return r
}

// Active reports whether username currently holds a session.
func (s *Server) Active(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[username]
}

// Requests returns the number of form submissions handled.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// SignIn marks username as active without a request, for test setup.
func (s *Server) SignIn(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[username] = true
}

type form struct {
	Mode     string `form:"mode" binding:"required"`
	Username string `form:"username"`
	Password string `form:"password"`
	Nonce    string `form:"a" binding:"required"`
}

func (s *Server) handle(c *gin.Context) {
	var f form
	if err := c.ShouldBind(&f); err != nil {
		c.XML(http.StatusOK, reply("LOGIN", MsgBadRequest))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	switch f.Mode {
	case modeLogin:
		c.XML(http.StatusOK, s.login(f))
	case modeLogout:
		delete(s.active, f.Username)
		c.XML(http.StatusOK, reply("LOGIN", MsgSignedOut))
	default:
		c.XML(http.StatusOK, reply("LOGIN", MsgBadRequest))
	}
}

// login must be called with s.mu held.
func (s *Server) login(f form) response {
	pw, ok := s.accounts[f.Username]
	if !ok || pw != f.Password {
		return reply("LOGIN", MsgInvalid)
	}

	if !s.active[f.Username] && s.maxSessions > 0 && len(s.active) >= s.maxSessions {
		return reply("LOGIN", MsgLimit)
	}

	s.active[f.Username] = true
	return reply("LIVE", MsgSignedInPrefix+f.Username)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("portalsim request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"mode", c.PostForm("mode"),
			"username", c.PostForm("username"),
			"elapsed", time.Since(start),
		)
	}
}

// xml response types

type response struct {
	XMLName xml.Name `xml:"requestresponse"`
	Status  cdata    `xml:"status"`
	Message cdata    `xml:"message"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

func reply(status, msg string) response {
	return response{Status: cdata{status}, Message: cdata{msg}}
}
