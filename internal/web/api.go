package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Skufu/chronicrisk/internal/disease"
	"github.com/Skufu/chronicrisk/internal/page"
	"github.com/Skufu/chronicrisk/internal/risk"
)

type assessmentRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

type assessmentResponse struct {
	Disease string        `json:"disease"`
	Score   risk.Score    `json:"score"`
	Percent string        `json:"percent"`
	Level   risk.Level    `json:"level"`
	Message string        `json:"message"`
	Plan    *disease.Plan `json:"plan"`
}

func (s *server) listDiseases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"diseases": s.catalog.Diseases})
}

func (s *server) assess(c *gin.Context) {
	key := c.Param("disease")
	k, ok := page.KindFromSlug(key)
	p, found := s.app.Page(k)
	if !ok || !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_disease", "disease": key})
		return
	}

	var payload assessmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	form, err := formFromJSON(p.Disease, payload.Fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "message": err.Error()})
		return
	}

	in, err := p.Build(form)
	if err != nil {
		reason := rejectionReason(err)
		s.metrics.RecordRejection(key, reason)
		body := gin.H{"error": reason, "message": err.Error()}
		var missing *page.MissingSelectionError
		if errors.As(err, &missing) {
			body["fields"] = missing.Fields
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}

	res, err := p.Assess(in)
	if err != nil {
		_ = c.Error(err)
		log.Error().Err(err).Str("disease", key).Msg("assessment failed")
		c.JSON(statusFor(err), gin.H{"error": "model_unavailable"})
		return
	}
	s.metrics.RecordAssessment(key, string(res.Level))

	c.JSON(http.StatusOK, assessmentResponse{
		Disease: key,
		Score:   res.Score,
		Percent: res.Score.Percent(),
		Level:   res.Level,
		Message: res.Message,
		Plan:    res.Plan,
	})
}

// formFromJSON accepts numbers, strings and booleans for the disease's own
// fields and renders them the way a browser would submit them.
func formFromJSON(d *disease.Disease, fields map[string]any) (page.Form, error) {
	form := make(page.Form, len(fields))
	for name, raw := range fields {
		if _, ok := d.Field(name); !ok {
			return nil, fmt.Errorf("unknown field %q for %s", name, d.Key)
		}
		switch v := raw.(type) {
		case string:
			form[name] = v
		case float64:
			form[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			form[name] = strconv.FormatBool(v)
		case nil:
			form[name] = ""
		default:
			return nil, fmt.Errorf("field %q: unsupported value %v", name, raw)
		}
	}
	return form, nil
}
