package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kailas-cloud/notesearch/internal/domain"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

type textRequest struct {
	Text string `json:"text"`
}

type suggestResponse struct {
	Success   bool      `json:"success"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Language  string    `json:"language"`
	WordCount int       `json:"wordCount"`
	Fallback  bool      `json:"fallback"`
	Code      ErrorCode `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type organizeResponse struct {
	Success       bool   `json:"success"`
	Language      string `json:"language"`
	EditedContent string `json:"editedContent"`
}

type editResponse struct {
	Success       bool   `json:"success"`
	Language      string `json:"language"`
	WordCount     int    `json:"wordCount"`
	EditedContent string `json:"editedContent"`
}

type usageResponse struct {
	Success           bool      `json:"success"`
	UserID            string    `json:"userId"`
	Date              string    `json:"date"`
	WordsUsed         int64     `json:"wordsUsed"`
	RequestsCount     int64     `json:"requestsCount"`
	MaxWordsPerDay    int64     `json:"maxWordsPerDay"`
	MaxRequestsPerDay int64     `json:"maxRequestsPerDay"`
	RemainingWords    int64     `json:"remainingWords"`
	RemainingRequests int64     `json:"remainingRequests"`
	ResetsAt          time.Time `json:"resetsAt"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "invalid request body: "+err.Error())
		return "", false
	}
	return req.Text, true
}

// Suggest handles POST /api/ai/suggest.
// Upstream and usage store failures answer 200 with the local fallback; quota denials answer 429 with it.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithWordUsage(r.Context())
	sug, err := s.deps.Assist.Suggest(ctx, domain.CallerFromContext(ctx), text)
	if err != nil && canceled(r) {
		return
	}

	resp := suggestResponse{
		Success:   err == nil,
		Title:     sug.Title,
		Summary:   sug.Summary,
		Language:  string(sug.Language),
		WordCount: sug.WordCount,
		Fallback:  sug.Fallback,
	}
	switch {
	case err == nil:
		setWordHeaders(w, usage)
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrQuotaExceeded):
		resp.Code = CodeQuotaExceeded
		resp.Error = err.Error()
		writeJSON(w, http.StatusTooManyRequests, resp)
	case errors.Is(err, domain.ErrUpstreamUnavailable) && sug.Fallback:
		resp.Code = CodeUpstreamUnavailable
		resp.Error = clientMessage(err, domain.ErrUpstreamUnavailable)
		writeJSON(w, http.StatusOK, resp)
	case sug.Fallback:
		resp.Code = CodeUsageUnavailable
		resp.Error = "usage accounting unavailable"
		writeJSON(w, http.StatusOK, resp)
	default:
		s.handleDomainError(w, r, err)
	}
}

// Organize handles POST /api/ai/organize.
func (s *Server) Organize(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithWordUsage(r.Context())
	out, err := s.deps.Assist.Organize(ctx, domain.CallerFromContext(ctx), text)
	if err != nil {
		if !canceled(r) {
			s.handleDomainError(w, r, err)
		}
		return
	}

	setWordHeaders(w, usage)
	writeJSON(w, http.StatusOK, organizeResponse{
		Success:       true,
		Language:      string(out.Language),
		EditedContent: out.EditedContent,
	})
}

// Edit handles POST /api/ai/edit.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithWordUsage(r.Context())
	out, err := s.deps.Assist.Edit(ctx, domain.CallerFromContext(ctx), text)
	if err != nil {
		if !canceled(r) {
			s.handleDomainError(w, r, err)
		}
		return
	}

	setWordHeaders(w, usage)
	writeJSON(w, http.StatusOK, editResponse{
		Success:       true,
		Language:      string(out.Language),
		WordCount:     out.WordCount,
		EditedContent: out.EditedContent,
	})
}

// GetUsage handles GET /api/ai/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Usage.Report(r.Context(), domain.CallerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

func usageToResponse(report *domusage.Report) usageResponse {
	rec := report.Record()
	policy := report.Policy()
	return usageResponse{
		Success:           true,
		UserID:            rec.Key.UserID,
		Date:              rec.Key.Date,
		WordsUsed:         rec.WordsUsed,
		RequestsCount:     rec.RequestsCount,
		MaxWordsPerDay:    policy.MaxWordsPerDay(),
		MaxRequestsPerDay: policy.MaxRequestsPerDay(),
		RemainingWords:    report.RemainingWords(),
		RemainingRequests: report.RemainingRequests(),
		ResetsAt:          report.ResetsAt(),
	}
}
