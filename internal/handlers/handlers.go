package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/minesweeper/internal/middleware"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

// sendStatusJSON writes the status code before the body, which SendJSON
// cannot do once headers are out.
func sendStatusJSON(w http.ResponseWriter, logger *slog.Logger, statusCode int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("unable to marshal response", slog.Any("error", err))
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(payload); err != nil {
		logger.Error("unable to send response", slog.Any("error", err))
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

func sendError(w http.ResponseWriter, logger *slog.Logger, statusCode int, err error) {
	sendStatusJSON(w, logger, statusCode, wrapError(err))
}

func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	logger.Error(msg, slog.Any("error", err))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// decodeRequest fills dst from a JSON body or, failing that, from the form
// and query values using its schema tags.
func decodeRequest(r *http.Request, dst any) error {
	if isJSON(r) {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(dst, r.Form)
}

func playerId(r *http.Request) *int64 {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		return nil
	}
	return &claims.PlayerId
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}
