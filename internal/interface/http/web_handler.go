package http

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
)

const sessionCookie = "synergy_session"

//go:embed templates/*.html
var templatesFS embed.FS

// WebHandler serves the server-rendered search page.
type WebHandler struct {
	sessions *sessionStore
	logger   *slog.Logger
}

// NewWebHandler constructs the web UI handler. Sessions idle longer than sessionTTL are dropped.
func NewWebHandler(analyzer discovery.Analyzer, sessionTTL time.Duration, logger *slog.Logger) *WebHandler {
	return &WebHandler{
		sessions: newSessionStore(analyzer, sessionTTL),
		logger:   logger.With("component", "http.web"),
	}
}

func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

type platformGroup struct {
	Platform    discovery.Platform
	Label       string
	Suggestions []discovery.SocialProfile
}

type pageData struct {
	View    discovery.View
	Idle    bool
	Loading bool
	Success bool
	Failure bool
	Groups  []platformGroup
}

// Index renders the current session view.
func (w *WebHandler) Index(c *gin.Context) {
	_, session := w.session(c)
	w.render(c, http.StatusOK, session.View())
}

// Search starts an analysis for the form url and redirects straight back to
// the index, which shows Loading until the analysis settles.
func (w *WebHandler) Search(c *gin.Context) {
	_, session := w.session(c)
	view, err := session.Start(c.Request.Context(), c.PostForm("url"))
	if errors.Is(err, discovery.ErrBusy) {
		w.logger.Info("search refused while loading", "query", view.Query)
		w.render(c, http.StatusConflict, view)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Reset returns the session to Idle.
func (w *WebHandler) Reset(c *gin.Context) {
	_, session := w.session(c)
	session.Reset()
	c.Redirect(http.StatusSeeOther, "/")
}

func (w *WebHandler) session(c *gin.Context) (string, *discovery.Session) {
	existing, _ := c.Cookie(sessionCookie)
	id, session := w.sessions.get(existing)
	if id != existing {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, int(w.sessions.ttl.Seconds()), "/", "", false, true)
	}
	return id, session
}

func (w *WebHandler) render(c *gin.Context, status int, view discovery.View) {
	data := pageData{
		View:    view,
		Idle:    view.State == discovery.StateIdle,
		Loading: view.State == discovery.StateLoading,
		Success: view.State == discovery.StateSuccess,
		Failure: view.State == discovery.StateFailure,
	}
	if view.Result != nil {
		data.Groups = groupByPlatform(view.Result.Suggestions)
	}
	c.HTML(status, "index.html", data)
}

// groupByPlatform buckets suggestions by classified platform in display order,
// keeping the provider's order inside each bucket.
func groupByPlatform(suggestions []discovery.SocialProfile) []platformGroup {
	buckets := make(map[discovery.Platform][]discovery.SocialProfile)
	for _, s := range suggestions {
		buckets[s.PlatformKind] = append(buckets[s.PlatformKind], s)
	}
	groups := make([]platformGroup, 0, len(buckets))
	for _, p := range discovery.Platforms() {
		if items := buckets[p]; len(items) > 0 {
			groups = append(groups, platformGroup{Platform: p, Label: p.Label(), Suggestions: items})
		}
	}
	return groups
}
