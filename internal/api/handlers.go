package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/questionnaire"
	"github.com/harrison/attune/internal/report"
	"github.com/harrison/attune/internal/session"
)

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(s.started).Seconds(),
	})
}

type infoResponse struct {
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Description   string            `json:"description"`
	Questionnaire string            `json:"questionnaire"`
	Endpoints     map[string]string `json:"endpoints"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Name:          "attune",
		Version:       s.version,
		Description:   "Attachment Style Assessment API",
		Questionnaire: s.questionnaire().Name(),
		Endpoints: map[string]string{
			"health":     "/api/health",
			"assessment": "/api/assessment",
		},
	})
}

type questionsResponse struct {
	Questions       []questionnaire.Question       `json:"questions"`
	Pagination      questionnaire.Pagination       `json:"pagination"`
	ResponseOptions []questionnaire.ResponseOption `json:"responseOptions"`
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, &requestError{
				message: "Page must be a positive integer",
				details: []fieldError{{Field: "page", Message: "Page must be a positive integer", Value: raw}},
			})
			return
		}
		page = n
	}

	q := s.questionnaire()
	questions, pagination := q.Page(page)
	writeJSON(w, http.StatusOK, questionsResponse{
		Questions:       questions,
		Pagination:      pagination,
		ResponseOptions: q.ResponseOptions(),
	})
}

type createSessionRequest struct {
	UserAgent string `json:"userAgent" validate:"omitempty,max=512"`
	IPAddress string `json:"ipAddress" validate:"omitempty,ip"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.svc.CreateSession(r.Context(), session.Metadata{UserAgent: req.UserAgent, IPAddress: req.IPAddress})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Message:   "Assessment session created successfully",
	})
}

type submitRequest struct {
	SessionID string           `json:"sessionId" validate:"required"`
	Responses models.Responses `json:"responses" validate:"required"`
	UserAgent string           `json:"userAgent" validate:"omitempty,max=512"`
	IPAddress string           `json:"ipAddress" validate:"omitempty,ip"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome, err := s.svc.Submit(r.Context(), req.SessionID, req.Responses, session.Metadata{
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.svc.Results(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleReport serves the HTML report, Markdown with ?format=md or a PDF with
// ?format=pdf.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.svc.Results(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	md := report.Markdown(s.questionnaire(), outcome)
	switch r.URL.Query().Get("format") {
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, md)
		return
	case "pdf":
		var buf bytes.Buffer
		if err := report.PDF(&buf, s.questionnaire(), outcome, s.pdfFont); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+outcome.SessionID+".pdf"))
		w.Write(buf.Bytes())
		return
	}

	doc, err := report.Document(md)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, doc)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// decodeJSON reads one JSON object into dst. With allowEmpty an empty body
// leaves dst untouched. Rating errors pass through so they map to the
// invalid-responses body.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		var (
			nonIntegral  *models.NonIntegralRatingError
			duplicate    *models.DuplicateQuestionError
			nonCanonical *models.NonCanonicalKeyError
		)
		if errors.As(err, &nonIntegral) || errors.As(err, &duplicate) || errors.As(err, &nonCanonical) {
			return err
		}
		return badBody(err)
	}
	return nil
}
