package api

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/http"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-lms/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ETag fingerprints an exported document.
func ETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		writeErr(w, err)
		return
	}

	etag := ETag(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="roadmap-progress.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import body too large")
		return
	}
	if err := s.store.Import(r.Context(), data); err != nil {
		writeErr(w, err)
		return
	}
	exported, err := s.store.Export()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("ETag", ETag(exported))
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.roadmap(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, s.store, s.scheduler, rd.ID); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rd.ID+`-progress.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
