package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const defaultListLimit = 20

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleListSplits(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	channelID := mux.Vars(r)["channel_id"]
	if claims == nil || !claims.allows(channelID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := a.splits.ListSplits(r.Context(), channelID, limit)
	if err != nil {
		a.log.Error().Err(err).Str("channel", channelID).Msg("failed to list splits")
		writeError(w, http.StatusInternalServerError, "failed to list splits")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
