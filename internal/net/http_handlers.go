package net

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"time"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/directory"
	"coop-defense/server/internal/lobby"
	"coop-defense/server/internal/net/session"
	"coop-defense/server/internal/net/ws"
	"coop-defense/server/internal/observability"
	"coop-defense/server/internal/telemetry"
	"coop-defense/server/logging"
)

type HTTPHandlerConfig struct {
	ClientDir     string
	Logger        telemetry.Logger
	Catalog       *catalog.Catalog
	Users         *directory.Users
	Metrics       *logging.Metrics
	Events        *logging.Router
	TickInterval  time.Duration
	Observability observability.Config
}

func NewHTTPHandler(router *session.Router, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Users == nil {
		cfg.Users = directory.NewUsers()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			TickMillis int64             `json:"tickMillis"`
			Rooms      []lobby.Summary   `json:"rooms"`
			Sessions   session.Stats     `json:"sessions"`
			Metrics    map[string]uint64 `json:"metrics,omitempty"`
			Events     any               `json:"events,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickMillis: cfg.TickInterval.Milliseconds(),
			Rooms:      router.Registry().ListRooms(),
			Sessions:   router.Stats(),
		}
		if cfg.Metrics != nil {
			payload.Metrics = cfg.Metrics.Snapshot()
		}
		if cfg.Events != nil {
			payload.Events = cfg.Events.Stats()
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/catalog", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, nethttp.StatusOK, cfg.Catalog.Document())
	})

	mux.HandleFunc("/catalog/schema", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, nethttp.StatusOK, catalog.Schema())
	})

	mux.HandleFunc("/api/users", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodGet:
			writeJSON(w, nethttp.StatusOK, cfg.Users.List())
		case nethttp.MethodPost:
			var req struct {
				Username string `json:"username"`
			}
			if r.Body != nil {
				defer r.Body.Close()
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpError(w, "invalid payload", nethttp.StatusBadRequest)
					return
				}
			}
			user, err := cfg.Users.Register(req.Username)
			switch {
			case errors.Is(err, directory.ErrUsernameRequired):
				httpError(w, "Username is required", nethttp.StatusBadRequest)
			case errors.Is(err, directory.ErrUsernameTaken):
				httpError(w, "Username already exists", nethttp.StatusBadRequest)
			case err != nil:
				httpError(w, "failed to register", nethttp.StatusInternalServerError)
			default:
				logger.Debugf("registered user %s", user.Username)
				writeJSON(w, nethttp.StatusCreated, user)
			}
		default:
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("GET /api/users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		user, ok := cfg.Users.Get(r.PathValue("id"))
		if !ok {
			httpError(w, "User not found", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, user)
	})

	mux.HandleFunc("GET /api/games", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, router.Registry().ListRooms())
	})

	mux.HandleFunc("GET /api/games/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		detail, ok := router.Registry().Room(r.PathValue("id"))
		if !ok || detail.ID != r.PathValue("id") {
			httpError(w, "Game not found", nethttp.StatusNotFound)
			return
		}
		type player struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		players := make([]player, 0, len(detail.Members))
		for _, m := range detail.Members {
			players = append(players, player{ID: m.ID, Username: m.Username})
		}
		writeJSON(w, nethttp.StatusOK, struct {
			ID         string   `json:"id"`
			Name       string   `json:"name"`
			Players    []player `json:"players"`
			MaxPlayers int      `json:"maxPlayers"`
			Active     bool     `json:"active"`
		}{
			ID:         detail.ID,
			Name:       detail.Name,
			Players:    players,
			MaxPlayers: detail.MaxPlayers,
			Active:     detail.Active(),
		})
	})

	mux.HandleFunc("/ws", ws.NewHandler(router, ws.HandlerConfig{Logger: logger}).Handle)

	cfg.Observability.Mount(mux)

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	w.Write(data)
}
