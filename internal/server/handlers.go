package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai"
	"github.com/praveenlokku/EasyApply/internal/extract"
	"github.com/praveenlokku/EasyApply/internal/store"
)

type analyzeRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.writeJSON(w, http.StatusOK, s.ai.Analyze(r.Context(), req.ResumeText, req.JobDescription))
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.writeJSON(w, http.StatusOK, s.ai.Match(r.Context(), req.ResumeText))
}

// handleExtractText runs the AI extraction chain on an uploaded document.
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	data, mimeType, _, err := readUpload(r)
	if err != nil {
		s.writeError(w, uploadStatus(err), err.Error())
		return
	}

	result, err := s.ai.ExtractText(r.Context(), data, mimeType)
	if err != nil {
		if errors.Is(err, ai.ErrNoInput) {
			s.writeError(w, http.StatusBadRequest, "no file provided")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ai.Status(r.Context()))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.CreateUser(store.User{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil || user.Password != req.Password {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListUsers())
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	user, err := s.store.GetUser(id)
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteUser(id); err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.store.CreateWaitlistEntry(store.WaitlistEntry{Email: req.Email, Name: req.Name})
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListWaitlist(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListWaitlist())
}

func (s *Server) handleDeleteWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteWaitlistEntry(id); err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadResume stores an uploaded resume. Local extraction is tried
// first; documents it cannot handle go through the AI extraction chain.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	data, mimeType, fileName, err := readUpload(r)
	if err != nil {
		s.writeError(w, uploadStatus(err), err.Error())
		return
	}

	text, extractErr := extract.Text(data, mimeType)
	if extractErr != nil {
		s.logger.Debug("local extraction failed, using AI chain",
			zap.String("mime_type", mimeType),
			zap.Error(extractErr),
		)

		extraction, err := s.ai.ExtractText(r.Context(), data, mimeType)
		if err != nil {
			if errors.Is(err, ai.ErrNoInput) {
				s.writeError(w, http.StatusBadRequest, "no file provided")
				return
			}
			s.writeError(w, http.StatusInternalServerError, "text extraction failed")
			return
		}
		text = extraction.Text
	}

	resume, err := s.store.CreateResume(store.Resume{
		FileName: fileName,
		MimeType: mimeType,
		Text:     text,
	})
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, resume)
}

func (s *Server) handleListResumes(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListResumes())
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	resume, err := s.store.GetResume(id)
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteResume(id); err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyzeResume runs the analysis pipeline over a stored resume and
// persists the result. Persistence failure does not fail the response; the
// pipeline result is already in hand.
func (s *Server) handleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	resume, err := s.store.GetResume(id)
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}

	var req analyzeRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	analysis := s.ai.Analyze(r.Context(), resume.Text, req.JobDescription)

	if err := s.store.UpdateResumeAnalysis(id, analysis.Result); err != nil {
		s.logger.Warn("persisting analysis", zap.Int("resume_id", id), zap.Error(err))
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleMatchResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	resume, err := s.store.GetResume(id)
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}

	matches := s.ai.Match(r.Context(), resume.Text)

	if err := s.store.UpdateResumeMatches(id, matches.Results); err != nil {
		s.logger.Warn("persisting matches", zap.Int("resume_id", id), zap.Error(err))
	}

	s.writeJSON(w, http.StatusOK, matches)
}

type jobRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.store.CreateJob(store.JobDescription{
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	job, err := s.store.GetJob(id)
	if err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteJob(id); err != nil {
		s.writeError(w, storeStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// errUploadTooLarge marks an upload past the size limit; it maps to 413.
var errUploadTooLarge = errors.New("uploaded file exceeds the size limit")

// uploadStatus maps readUpload errors to HTTP status codes.
func uploadStatus(err error) int {
	if errors.Is(err, errUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readUpload pulls the file out of a multipart form. The form field is
// "file"; MIME type comes from the part header, falling back to sniffing.
func readUpload(r *http.Request) (data []byte, mimeType, fileName string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", errors.New("no file provided")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", errors.New("no file provided")
	}
	defer file.Close()

	// Read one byte past the limit so truncation is detectable.
	data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", errors.New("reading upload")
	}
	if len(data) == 0 {
		return nil, "", "", errors.New("no file provided")
	}
	if len(data) > maxUploadBytes {
		return nil, "", "", errUploadTooLarge
	}

	mimeType = header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if idx := strings.Index(mimeType, ";"); idx != -1 {
			mimeType = mimeType[:idx]
		}
	}

	return data, mimeType, header.Filename, nil
}
