package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Skufu/chronicrisk/internal/model"
	"github.com/Skufu/chronicrisk/internal/page"
	"github.com/Skufu/chronicrisk/internal/patient"
)

const pageCookie = "page"

type navItem struct {
	Label  string
	Active bool
}

type screenData struct {
	page.Screen
	NavItems  []navItem
	Error     string
	RequestID string
}

// stateFromCookie restores the selected page; anything unreadable is Home.
func stateFromCookie(c *gin.Context) page.State {
	s := page.NewState()
	slug, err := c.Cookie(pageCookie)
	if err != nil {
		return s
	}
	if k, ok := page.KindFromSlug(slug); ok {
		s.Page = k
	}
	return s
}

func (s *server) render(c *gin.Context, status int, screen page.Screen, errMsg string) {
	nav := make([]navItem, len(screen.Nav))
	for i, k := range screen.Nav {
		nav[i] = navItem{Label: k.Label(), Active: k == screen.State.Page}
	}
	c.HTML(status, "index.tmpl", screenData{
		Screen:    screen,
		NavItems:  nav,
		Error:     errMsg,
		RequestID: c.GetString(requestIDKey),
	})
}

func (s *server) showPage(c *gin.Context) {
	screen, err := s.app.Render(stateFromCookie(c), nil, false)
	if err != nil {
		s.fail(c, screen, err)
		return
	}
	s.render(c, http.StatusOK, screen, "")
}

func (s *server) navigate(c *gin.Context) {
	state := page.Select(stateFromCookie(c), c.PostForm("page"))
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(pageCookie, state.Page.Slug(), 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *server) submitPage(c *gin.Context) {
	state := stateFromCookie(c)
	p, ok := s.app.Page(state.Page)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		s.rejectBody(c, state, err)
		return
	}

	form := make(page.Form, len(p.Disease.Fields))
	for _, f := range p.Disease.Fields {
		if v, ok := c.GetPostForm(f.Name); ok {
			form[f.Name] = v
		}
	}

	screen, err := s.app.Render(state, form, true)
	if err != nil {
		s.fail(c, screen, err)
		return
	}
	s.record(p.Disease.Key, screen.Page)
	s.render(c, http.StatusOK, screen, "")
}

// rejectBody answers an unreadable submission with the untouched page so
// nothing is scored from defaults.
func (s *server) rejectBody(c *gin.Context, state page.State, err error) {
	status, msg := http.StatusBadRequest, "The submitted form could not be read."
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status, msg = http.StatusRequestEntityTooLarge, "The submitted form is too large."
	}
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("form rejected")

	screen, rerr := s.app.Render(state, nil, false)
	if rerr != nil {
		s.fail(c, screen, rerr)
		return
	}
	s.render(c, status, screen, msg)
}

// fail renders a model failure in place of the result block.
func (s *server) fail(c *gin.Context, screen page.Screen, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("render failed")
	s.render(c, statusFor(err), screen, "The prediction model is unavailable. Please try again later.")
}

func (s *server) record(disease string, v *page.View) {
	if v == nil {
		return
	}
	switch v.Status {
	case page.Rejected:
		s.metrics.RecordRejection(disease, rejectionReason(v.Err))
	case page.Scored:
		s.metrics.RecordAssessment(disease, string(v.Result.Level))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, page.ErrMissingSelection):
		return "missing_selection"
	case errors.Is(err, patient.ErrOutOfRange):
		return "out_of_range"
	default:
		return "invalid_value"
	}
}

func statusFor(err error) int {
	if errors.Is(err, model.ErrArtifactMissing) || errors.Is(err, model.ErrArtifactCorrupt) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
