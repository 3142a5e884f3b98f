package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// allowedSSEParams defines the whitelist of allowed query parameters for SSE endpoints
var allowedSSEParams = map[string]bool{
	"playerId": true,
	"datastar": true, // Datastar automatically sends this with client state
}

// allowedDatastarSignals are the signals the state stream itself patches
var allowedDatastarSignals = map[string]bool{
	"state":     true,
	"closed":    true,
	"heartbeat": true,
}

// ValidateSSERequest validates SSE request parameters for security
func ValidateSSERequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > 10000 {
			http.Error(w, "Query string too large", http.StatusRequestURITooLong)
			return
		}

		params, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			http.Error(w, "Invalid query parameters", http.StatusBadRequest)
			return
		}

		for key, values := range params {
			if !allowedSSEParams[key] {
				http.Error(w, "Invalid parameter", http.StatusBadRequest)
				return
			}
			if len(values) != 1 {
				http.Error(w, "Repeated parameter", http.StatusBadRequest)
				return
			}

			switch key {
			case "playerId":
				if len(values[0]) > 64 {
					http.Error(w, "Invalid playerId", http.StatusBadRequest)
					return
				}
			case "datastar":
				if len(values[0]) > 8192 {
					http.Error(w, "Datastar state too large", http.StatusBadRequest)
					return
				}
				if values[0] == "" {
					continue
				}
				var signals map[string]interface{}
				if err := json.Unmarshal([]byte(values[0]), &signals); err != nil {
					http.Error(w, "Invalid datastar JSON", http.StatusBadRequest)
					return
				}
				for signalName := range signals {
					if !allowedDatastarSignals[signalName] {
						http.Error(w, "Invalid signal in datastar", http.StatusBadRequest)
						return
					}
				}
			}
		}

		next(w, r)
	}
}
