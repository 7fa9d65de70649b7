package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/fastball-data/pitch.report/internal/httputil"
	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/security"
)

// uploadFieldName is the multipart form field carrying the video.
const uploadFieldName = "file"

// multipartMemoryLimit is how much of a parsed upload stays in memory before
// spooling to disk.
const multipartMemoryLimit = 32 << 20

// analyzeVideo accepts a multipart video upload, runs the full pipeline on
// it, persists the outcome, and returns the analysis result. Analytical dead
// ends (no ball found, track too short) are still 200 responses with
// success=false; only malformed requests and undecodable files map to error
// statuses.
func (s *Server) analyzeVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.PayloadTooLarge(w, fmt.Sprintf("video exceeds the %d MB upload limit", s.maxUploadBytes>>20))
			return
		}
		httputil.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("missing %q form field", uploadFieldName))
		return
	}
	defer file.Close()

	if err := security.ValidateVideoFilename(header.Filename); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sourceName := security.SanitizeFilename(header.Filename)

	// Stage the upload under a unique name that keeps the original extension
	// at the end, so the video decoder can sniff the container.
	tmp, err := s.fs.CreateTemp(s.uploadDir, "upload_*_"+sourceName)
	if err != nil {
		log.Printf("failed to stage upload %s: %v", sourceName, err)
		httputil.InternalServerError(w, "could not stage upload")
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := s.fs.Remove(tmpPath); err != nil {
			log.Printf("failed to remove staged upload %s: %v", tmpPath, err)
		}
	}()

	_, copyErr := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		log.Printf("failed to store upload %s: copy=%v close=%v", tmpPath, copyErr, closeErr)
		httputil.InternalServerError(w, "could not store upload")
		return
	}

	s.analyzeMu.Lock()
	res, err := s.analyzer.AnalyzeFile(r.Context(), tmpPath)
	s.analyzeMu.Unlock()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("analysis of %s abandoned: %v", sourceName, err)
			return
		}
		httputil.UnprocessableEntity(w, fmt.Sprintf("could not process video: %v", err))
		return
	}
	res.Source = sourceName

	if s.store != nil {
		rec := pitch.NewAnalysisRecord(res)
		if err := s.store.InsertAnalysis(rec); err != nil {
			log.Printf("failed to persist analysis of %s: %v", sourceName, err)
		}
	}

	httputil.WriteJSONOK(w, res)
}
