// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
)

// Version reported by /status.
const Version = "1.0.0"

type StatusHandler struct {
	start time.Time
}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{start: time.Now()}
}

// Status handles GET /status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.StatusResponse{
		Version: Version,
		OK:      "ok",
		Uptime:  humanize.RelTime(h.start, time.Now(), "", ""),
	})
}
