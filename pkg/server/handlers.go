package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/pipeline"
)

const (
	paramOffsets  = "withOffsetComment"
	paramLanguage = "lang"
	paramFormat   = "format"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) handleIsAlive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) handleKotlinToMermaid(w http.ResponseWriter, r *http.Request) {
	s.convert(w, r, "kotlin")
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get(paramLanguage)
	if lang == "" {
		lang = s.opts.Language
	}
	s.convert(w, r, lang)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request, lang string) {
	q := r.URL.Query()
	offsets := parseFlag(q.Get(paramOffsets))
	format := q.Get(paramFormat)
	switch format {
	case "", pipeline.FormatMermaid, pipeline.FormatClass:
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidFormat,
			"format %q is not served over HTTP (must be mermaid or class)", format))
		return
	}

	src, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.runner.Convert(r.Context(), src, pipeline.Options{
		Language: lang,
		Format:   format,
		Offsets:  offsets,
		MaxNodes: s.opts.MaxNodes,
		Timeout:  s.opts.Timeout,
		Logger:   s.logger,
	})
	if err != nil {
		s.logger.Warn("conversion failed", "language", lang, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	src, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if err := errors.ValidateSource(src, s.opts.MaxBodyBytes); err != nil {
		return nil, err
	}
	return src, nil
}

// parseFlag reports whether v spells "true" in any case. Every other value,
// including an absent one, reads as false.
func parseFlag(v string) bool {
	return strings.EqualFold(v, "true")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(code), errorBody{Error: errors.UserMessage(err), Code: code})
}
