package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
)

const maxDocumentBytes = 1 << 20

func readText(r *http.Request) (string, error) {
	data, err := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "", err
	}
	if err != nil {
		return "", &requestError{msg: "failed to read body: " + err.Error()}
	}
	return string(data), nil
}

// checkDocument validates editor text and returns the document it describes.
func (s *Server) checkDocument(text string) (*domain.Document, error) {
	st := editor.Check(text)
	if !st.OK() {
		return nil, st.Err()
	}
	return st.Document, nil
}

// handleValidate always answers 200; the level carries the verdict.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, editor.Check(text))
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	out, err := editor.Format(text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, editor.ComputeStats(text))
}
